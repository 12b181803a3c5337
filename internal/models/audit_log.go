package models

import (
	"time"
)

// AuditLog represents an audit log entry
type AuditLog struct {
	ID         string                 `json:"id" db:"id" bson:"_id"`
	UserID     string                 `json:"userId,omitempty" db:"user_id" bson:"userId,omitempty"`
	Action     string                 `json:"action" db:"action" bson:"action"`
	EntityType string                 `json:"entityType,omitempty" db:"entity_type" bson:"entityType,omitempty"`
	EntityID   string                 `json:"entityId,omitempty" db:"entity_id" bson:"entityId,omitempty"`
	IPAddress  string                 `json:"ipAddress,omitempty" db:"ip_address" bson:"ipAddress,omitempty"`
	UserAgent  string                 `json:"userAgent,omitempty" db:"user_agent" bson:"userAgent,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty" db:"-" bson:"details,omitempty"`
	CreatedAt  time.Time              `json:"createdAt" db:"created_at" bson:"createdAt"`
}
