package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ihcportal/booking-backend/internal/models"
)

// MongoAuditStore appends entries to the "audit_logs" collection
type MongoAuditStore struct {
	c *mongo.Collection
}

// NewMongoAuditStore creates an audit store over db
func NewMongoAuditStore(db *mongo.Database) *MongoAuditStore {
	return &MongoAuditStore{c: db.Collection(auditCollection)}
}

// Insert stores one audit entry
func (s *MongoAuditStore) Insert(ctx context.Context, entry *models.AuditLog) error {
	if _, err := s.c.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}
