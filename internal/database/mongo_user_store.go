package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ihcportal/booking-backend/internal/models"
)

// MongoUserStore keeps users in the "users" collection
type MongoUserStore struct {
	c *mongo.Collection
}

// NewMongoUserStore creates a user store over db
func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{c: db.Collection(usersCollection)}
}

// Create inserts a user; the unique email index reports duplicates
func (s *MongoUserStore) Create(ctx context.Context, user *models.User) error {
	if _, err := s.c.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id
func (s *MongoUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail retrieves a user by (normalized) email
func (s *MongoUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// GetByResetToken retrieves the user holding a password reset token
func (s *MongoUserStore) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"resetToken": token})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.c.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// SetResetToken stores a password reset token and its expiry
func (s *MongoUserStore) SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error {
	update := bson.M{"$set": bson.M{
		"resetToken":       token,
		"resetTokenExpiry": expiry,
		"updatedAt":        time.Now(),
	}}
	return s.updateOne(ctx, "set reset token", bson.M{"_id": userID}, update)
}

// UpdatePassword replaces the password hash and invalidates any reset token
func (s *MongoUserStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	update := bson.M{
		"$set":   bson.M{"passwordHash": passwordHash, "updatedAt": time.Now()},
		"$unset": bson.M{"resetToken": "", "resetTokenExpiry": ""},
	}
	return s.updateOne(ctx, "update password", bson.M{"_id": userID}, update)
}

// MarkPaymentConfirmed confirms the user's payment and assigns ihcCode once
func (s *MongoUserStore) MarkPaymentConfirmed(ctx context.Context, userID, ihcCode string) error {
	// The filter on an empty code makes the assignment a no-op once a code exists.
	codeFilter := bson.M{
		"_id": userID,
		"$or": bson.A{
			bson.M{"ihcCode": ""},
			bson.M{"ihcCode": bson.M{"$exists": false}},
		},
	}
	if _, err := s.c.UpdateOne(ctx, codeFilter, bson.M{"$set": bson.M{"ihcCode": ihcCode}}); err != nil {
		return fmt.Errorf("failed to assign user ihc code: %w", err)
	}

	update := bson.M{"$set": bson.M{
		"paymentStatus": models.PaymentStatusConfirmed,
		"updatedAt":     time.Now(),
	}}
	return s.updateOne(ctx, "confirm user payment", bson.M{"_id": userID}, update)
}

func (s *MongoUserStore) updateOne(ctx context.Context, op string, filter, update bson.M) error {
	result, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
