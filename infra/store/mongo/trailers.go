package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dockops/yms/core/faults"
	"github.com/dockops/yms/core/model"
)

// TrailerStore persists trailer visits in the trailers collection.
type TrailerStore struct {
	col *mongo.Collection
}

func (s *TrailerStore) Insert(ctx context.Context, t model.Trailer) error {
	_, err := s.col.InsertOne(ctx, t)
	if mongo.IsDuplicateKeyError(err) {
		return faults.Conflict("trailer %s already exists", t.ID)
	}
	return err
}

func (s *TrailerStore) Get(ctx context.Context, id string) (model.Trailer, error) {
	var t model.Trailer
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Trailer{}, faults.NotFound("trailer %s not found", id)
	}
	return t, err
}

func (s *TrailerStore) Update(ctx context.Context, t model.Trailer) error {
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return faults.NotFound("trailer %s not found", t.ID)
	}
	return nil
}

func (s *TrailerStore) ListByWarehouse(ctx context.Context, warehouseID string) ([]model.Trailer, error) {
	opts := options.Find().SetSort(bson.M{"checkInTime": 1})
	cur, err := s.col.Find(ctx, bson.M{"warehouseID": warehouseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []model.Trailer
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
