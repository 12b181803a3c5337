package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ihcportal/booking-backend/internal/models"
)

// AuditRepository writes audit_logs rows
type AuditRepository struct {
	db DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert stores one audit entry; details are serialized to JSONB
func (r *AuditRepository) Insert(ctx context.Context, entry *models.AuditLog) error {
	var details interface{}
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
		details = string(raw)
	}

	query := `
		INSERT INTO audit_logs (
			id, user_id, action, entity_type, entity_id,
			ip_address, user_agent, details, created_at
		) VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.IPAddress,
		entry.UserAgent,
		details,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}
