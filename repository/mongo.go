package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"health-intake-backend/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	CollectionDiseases     = "diseases"
	CollectionDataset      = "symptom_dataset"
	CollectionDoctors      = "doctors"
	CollectionMessages     = "chat_messages"
	CollectionAppointments = "appointments"
)

// MongoStore implements Store on a MongoDB database. Seeded documents may
// use ObjectID keys; appointments use uuid strings.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

func (s *MongoStore) ListDiseases(ctx context.Context) ([]models.Disease, error) {
	cursor, err := s.db.Collection(CollectionDiseases).Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find diseases: %w", err)
	}
	var diseases []models.Disease
	if err := cursor.All(ctx, &diseases); err != nil {
		return nil, fmt.Errorf("decode diseases: %w", err)
	}
	return diseases, nil
}

func (s *MongoStore) LoadSymptomDataset(ctx context.Context) ([]models.DatasetRecord, error) {
	cursor, err := s.db.Collection(CollectionDataset).Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find dataset: %w", err)
	}
	var records []models.DatasetRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return records, nil
}

func (s *MongoStore) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	cursor, err := s.db.Collection(CollectionDoctors).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find doctors: %w", err)
	}
	var doctors []models.Doctor
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("decode doctors: %w", err)
	}
	return doctors, nil
}

func (s *MongoStore) GetDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := s.db.Collection(CollectionDoctors).FindOne(ctx, bson.M{"_id": bson.M{"$in": idCandidates(id)}}).Decode(&doctor)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("doctor %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	return &doctor, nil
}

func (s *MongoStore) AppendMessage(ctx context.Context, msg models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if _, err := s.db.Collection(CollectionMessages).InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (s *MongoStore) CreateAppointment(ctx context.Context, a *models.Appointment) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if _, err := s.db.Collection(CollectionAppointments).InsertOne(ctx, a); err != nil {
		return "", fmt.Errorf("insert appointment: %w", err)
	}
	return a.ID, nil
}

func (s *MongoStore) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var a models.Appointment
	err := s.db.Collection(CollectionAppointments).FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	return &a, nil
}

func (s *MongoStore) AttachCheckout(ctx context.Context, id, checkoutReference string) error {
	res, err := s.db.Collection(CollectionAppointments).UpdateOne(ctx,
		bson.M{"_id": id, "paid": false},
		bson.M{"$set": bson.M{"checkout_reference": checkoutReference}})
	if err != nil {
		return fmt.Errorf("attach checkout: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("unpaid appointment %s: %w", id, ErrNotFound)
	}
	return nil
}

// ConfirmPayment flips an unpaid appointment to paid in one atomic
// FindOneAndUpdate. An already paid appointment is returned unchanged. The
// unique payment_reference index rejects a reference used elsewhere.
func (s *MongoStore) ConfirmPayment(ctx context.Context, id, reference string, scheduledAt time.Time) (*models.Appointment, error) {
	filter := bson.M{"_id": id, "paid": false}
	update := bson.M{"$set": bson.M{
		"paid":              true,
		"status":            models.AppointmentConfirmed,
		"payment_reference": reference,
		"appointment_date":  scheduledAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var a models.Appointment
	err := s.db.Collection(CollectionAppointments).FindOneAndUpdate(ctx, filter, update, opts).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either unknown or already paid.
		return s.GetAppointment(ctx, id)
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("reference %s: %w", reference, ErrReferenceInUse)
	}
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}
	return &a, nil
}

func idCandidates(id string) []interface{} {
	candidates := []interface{}{id}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		candidates = append(candidates, oid)
	}
	return candidates
}
