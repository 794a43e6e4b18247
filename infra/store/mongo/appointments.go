package mongostore

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dockops/yms/core/appointment"
	"github.com/dockops/yms/core/faults"
	"github.com/dockops/yms/core/model"
)

// AppointmentStore persists appointments in the appointments collection.
type AppointmentStore struct {
	col *mongo.Collection
}

func (s *AppointmentStore) Insert(ctx context.Context, a model.Appointment) error {
	_, err := s.col.InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return faults.Conflict("appointment %s already exists", a.ID)
	}
	return err
}

func (s *AppointmentStore) Get(ctx context.Context, id string) (model.Appointment, error) {
	var a model.Appointment
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Appointment{}, faults.NotFound("appointment %s not found", id)
	}
	return a, err
}

func (s *AppointmentStore) Update(ctx context.Context, a model.Appointment) error {
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return faults.NotFound("appointment %s not found", a.ID)
	}
	return nil
}

func dayRange(date time.Time) (time.Time, time.Time) {
	y, m, d := date.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func (s *AppointmentStore) ListByDate(ctx context.Context, warehouseID string, date time.Time) ([]model.Appointment, error) {
	lo, hi := dayRange(date)
	filter := bson.M{
		"warehouseID":    warehouseID,
		"scheduledStart": bson.M{"$gte": lo, "$lt": hi},
	}
	opts := options.Find().SetSort(bson.M{"appointmentNumber": 1})
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []model.Appointment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MaxSequence ranges over the appointment-number index rather than the
// scheduled dates: a row rescheduled to another day keeps its number, and
// that number must stay burned for its original date.
func (s *AppointmentStore) MaxSequence(ctx context.Context, warehouseID string, date time.Time) (int, error) {
	prefix := appointment.NumberPrefix(date)
	filter := bson.M{
		"warehouseID":       warehouseID,
		"appointmentNumber": bson.M{"$gte": prefix, "$lt": prefix + "~"},
	}
	opts := options.FindOne().
		SetSort(bson.M{"appointmentNumber": -1}).
		SetProjection(bson.M{"appointmentNumber": 1})
	var doc struct {
		AppointmentNumber string `bson:"appointmentNumber"`
	}
	err := s.col.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimPrefix(doc.AppointmentNumber, prefix))
}
