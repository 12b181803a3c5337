package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ihcportal/booking-backend/internal/config"
)

// Collection names
const (
	usersCollection    = "users"
	bookingsCollection = "bookings"
	auditCollection    = "audit_logs"
)

// NewMongoConnection connects to MongoDB and verifies the primary is reachable
func NewMongoConnection(ctx context.Context, cfg config.DatabaseConfig) (*mongo.Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	opts := options.Client().
		ApplyURI(cfg.URL).
		SetMaxPoolSize(uint64(cfg.MaxConnections)).
		SetMaxConnIdleTime(cfg.ConnMaxLifetime)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client, nil
}

// NewMongoStores wires the Mongo repositories over the named database
func NewMongoStores(client *mongo.Client, dbName string) *Stores {
	db := client.Database(dbName)
	return &Stores{
		Users:    NewMongoUserStore(db),
		Bookings: NewMongoBookingStore(db),
		Audit:    NewMongoAuditStore(db),
		Backend:  "mongodb",
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		migrate: func(ctx context.Context) error {
			return EnsureMongoIndexes(ctx, db)
		},
		clear: func(ctx context.Context) error {
			return clearMongoData(ctx, db)
		},
		close: client.Disconnect,
	}
}

// EnsureMongoIndexes creates the unique and lookup indexes the stores rely on
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_users_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "resetToken", Value: 1}},
			Options: options.Index().SetName("idx_users_reset_token").SetSparse(true),
		},
	}
	if _, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	bookingIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("idx_bookings_user_created"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_bookings_created"),
		},
	}
	if _, err := db.Collection(bookingsCollection).Indexes().CreateMany(ctx, bookingIndexes); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	auditIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "entityType", Value: 1}, {Key: "entityId", Value: 1}},
			Options: options.Index().SetName("idx_audit_entity"),
		},
	}
	if _, err := db.Collection(auditCollection).Indexes().CreateMany(ctx, auditIndexes); err != nil {
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}

	return nil
}

func clearMongoData(ctx context.Context, db *mongo.Database) error {
	for _, name := range []string{bookingsCollection, auditCollection} {
		if _, err := db.Collection(name).DeleteMany(ctx, bson.D{}); err != nil {
			return fmt.Errorf("failed to clear %s: %w", name, err)
		}
	}
	return nil
}
