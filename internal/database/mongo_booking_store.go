package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ihcportal/booking-backend/internal/models"
)

// MongoBookingStore keeps bookings in the "bookings" collection keyed by booking id
type MongoBookingStore struct {
	c *mongo.Collection
}

// NewMongoBookingStore creates a booking store over db
func NewMongoBookingStore(db *mongo.Database) *MongoBookingStore {
	return &MongoBookingStore{c: db.Collection(bookingsCollection)}
}

// Create inserts a booking; a taken _id yields ErrDuplicateBookingID
func (s *MongoBookingStore) Create(ctx context.Context, b *models.Booking) error {
	if _, err := s.c.InsertOne(ctx, b); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateBookingID
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByBookingID retrieves a booking by its public id
func (s *MongoBookingStore) GetByBookingID(ctx context.Context, bookingID string) (*models.Booking, error) {
	var booking models.Booking
	if err := s.c.FindOne(ctx, bson.M{"_id": bookingID}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// ListByUser returns a user's bookings in creation order
func (s *MongoBookingStore) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, bson.M{"userId": userID}, opts)
}

// ListAll returns every booking, newest first
func (s *MongoBookingStore) ListAll(ctx context.Context) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, bson.M{}, opts)
}

func (s *MongoBookingStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Booking, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cur.Close(ctx)

	bookings := []models.Booking{}
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// Update writes the mutable booking fields guarded by the version field
func (s *MongoBookingStore) Update(ctx context.Context, b *models.Booking) error {
	now := time.Now()
	filter := bson.M{"_id": b.BookingID, "version": b.Version}
	update := bson.M{
		"$set": bson.M{
			"email":         b.Email,
			"bookingStatus": b.BookingStatus,
			"paymentMethod": b.PaymentMethod,
			"paymentStatus": b.PaymentStatus,
			"invoiceUrl":    b.InvoiceURL,
			"ihcCode":       b.IHCCode,
			"updatedAt":     now,
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return s.missingOrConflict(ctx, b.BookingID)
	}

	b.Version++
	b.UpdatedAt = now
	return nil
}

// Delete removes a booking guarded by the version field
func (s *MongoBookingStore) Delete(ctx context.Context, bookingID string, version int) error {
	result, err := s.c.DeleteOne(ctx, bson.M{"_id": bookingID, "version": version})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return s.missingOrConflict(ctx, bookingID)
	}
	return nil
}

func (s *MongoBookingStore) missingOrConflict(ctx context.Context, bookingID string) error {
	count, err := s.c.CountDocuments(ctx, bson.M{"_id": bookingID})
	if err != nil {
		return fmt.Errorf("failed to check booking existence: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}
