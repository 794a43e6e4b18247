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

// LocationStore persists yard locations. Occupancy changes go through
// guarded FindOneAndUpdate / UpdateOne calls so two concurrent reservations
// can never push a spot past its capacity.
type LocationStore struct {
	col *mongo.Collection
}

func locFilter(warehouseID, code string) bson.M {
	return bson.M{"warehouseID": warehouseID, "code": code}
}

// hasSpace matches active locations with at least one free unit.
func hasSpace(warehouseID string) bson.M {
	return bson.M{
		"warehouseID": warehouseID,
		"active":      true,
		"$expr":       bson.M{"$lt": bson.A{"$currentOccupancy", "$capacity"}},
	}
}

func (s *LocationStore) Upsert(ctx context.Context, l model.YardLocation) error {
	if l.Capacity <= 0 {
		return faults.Conflict("location %s capacity must be positive", l.Code)
	}
	if l.CurrentOccupancy < 0 || l.CurrentOccupancy > l.Capacity {
		return faults.Conflict("location %s occupancy out of bounds", l.Code)
	}
	opts := options.Replace().SetUpsert(true)
	_, err := s.col.ReplaceOne(ctx, locFilter(l.WarehouseID, l.Code), l, opts)
	return err
}

func (s *LocationStore) Get(ctx context.Context, warehouseID, code string) (model.YardLocation, error) {
	var l model.YardLocation
	err := s.col.FindOne(ctx, locFilter(warehouseID, code)).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.YardLocation{}, faults.NotFound("yard location %s not found", code)
	}
	return l, err
}

func (s *LocationStore) List(ctx context.Context, warehouseID string) ([]model.YardLocation, error) {
	opts := options.Find().SetSort(bson.M{"code": 1})
	cur, err := s.col.Find(ctx, bson.M{"warehouseID": warehouseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []model.YardLocation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *LocationStore) Reserve(ctx context.Context, warehouseID, code string) (model.YardLocation, error) {
	filter := hasSpace(warehouseID)
	if code != "" {
		filter["code"] = code
	}
	update := bson.M{"$inc": bson.M{"currentOccupancy": 1}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.M{"code": 1}).
		SetReturnDocument(options.After)
	var l model.YardLocation
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if code == "" {
			return model.YardLocation{}, faults.Conflict("no yard location with free capacity")
		}
		// A pinned miss is either an unknown code or a known one without
		// space; the caller distinguishes 404 from 409 on that.
		if _, gerr := s.Get(ctx, warehouseID, code); gerr != nil {
			return model.YardLocation{}, gerr
		}
		return model.YardLocation{}, faults.Conflict("yard location %s is full or inactive", code)
	}
	return l, err
}

func (s *LocationStore) Release(ctx context.Context, warehouseID, code string) error {
	filter := locFilter(warehouseID, code)
	filter["currentOccupancy"] = bson.M{"$gt": 0}
	res, err := s.col.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"currentOccupancy": -1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return faults.Conflict("yard location %s is already empty or missing", code)
	}
	return nil
}

func (s *LocationStore) Transfer(ctx context.Context, warehouseID, from, to string) error {
	if _, err := s.Reserve(ctx, warehouseID, to); err != nil {
		return err
	}
	if from == "" {
		return nil
	}
	if err := s.Release(ctx, warehouseID, from); err != nil {
		// Undo the destination increment so the pair stays consistent.
		_ = s.Release(ctx, warehouseID, to)
		return err
	}
	return nil
}

func (s *LocationStore) Deactivate(ctx context.Context, warehouseID, code string) error {
	res, err := s.col.UpdateOne(ctx, locFilter(warehouseID, code), bson.M{"$set": bson.M{"active": false}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return faults.NotFound("yard location %s not found", code)
	}
	return nil
}

// MoveStore persists yard moves in the yard_moves collection.
type MoveStore struct {
	col *mongo.Collection
}

func (s *MoveStore) Insert(ctx context.Context, m model.YardMove) error {
	_, err := s.col.InsertOne(ctx, m)
	if mongo.IsDuplicateKeyError(err) {
		return faults.Conflict("move %s already exists", m.ID)
	}
	return err
}

func (s *MoveStore) Get(ctx context.Context, id string) (model.YardMove, error) {
	var m model.YardMove
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.YardMove{}, faults.NotFound("move %s not found", id)
	}
	return m, err
}

func (s *MoveStore) Update(ctx context.Context, m model.YardMove) error {
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return faults.NotFound("move %s not found", m.ID)
	}
	return nil
}

func (s *MoveStore) ListByWarehouse(ctx context.Context, warehouseID string) ([]model.YardMove, error) {
	opts := options.Find().SetSort(bson.M{"requestedTime": -1})
	cur, err := s.col.Find(ctx, bson.M{"warehouseID": warehouseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []model.YardMove
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
