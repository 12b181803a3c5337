package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ihcportal/booking-backend/internal/database"
	"github.com/ihcportal/booking-backend/internal/models"
	"github.com/ihcportal/booking-backend/internal/utils"
)

// Audit actions
const (
	ActionRegister             = "register"
	ActionLoginSuccess         = "login_success"
	ActionLoginFailed          = "login_failed"
	ActionPasswordResetRequest = "password_reset_request"
	ActionPasswordReset        = "password_reset"
	ActionRateLimitViolation   = "rate_limit_violation"
	ActionBookingCreated       = "booking_created"
	ActionPaymentMethodSet     = "payment_method_set"
	ActionBookingApproved      = "booking_approved"
	ActionPaymentConfirmed     = "payment_confirmed"
	ActionBookingDeleted       = "booking_deleted"
)

// RequestMeta describes the client behind a request
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuditEvent represents a security or lifecycle event to be logged
type AuditEvent struct {
	UserID     string // empty for pre-authentication events
	Action     string
	EntityType string // "user", "booking", "rate_limit"
	EntityID   string
	Meta       RequestMeta
	Details    map[string]interface{}
}

// AuditService records audit events. Failures are logged and never fail the
// operation being audited.
type AuditService struct {
	store   database.AuditStore
	enabled bool
	logger  *logrus.Logger
	now     func() time.Time
}

// NewAuditService creates a new audit service
func NewAuditService(store database.AuditStore, enabled bool, logger *logrus.Logger) *AuditService {
	return &AuditService{
		store:   store,
		enabled: enabled,
		logger:  logger,
		now:     time.Now,
	}
}

// LogAuthEvent records an account event
func (s *AuditService) LogAuthEvent(ctx context.Context, userID, action, email string, meta RequestMeta, extra map[string]interface{}) {
	details := map[string]interface{}{"email": email}
	for k, v := range extra {
		details[k] = v
	}
	s.Log(ctx, AuditEvent{
		UserID:     userID,
		Action:     action,
		EntityType: "user",
		EntityID:   userID,
		Meta:       meta,
		Details:    details,
	})
}

// LogBookingEvent records a booking transition by actorID.
// Staff actions have an empty actorID.
func (s *AuditService) LogBookingEvent(ctx context.Context, actorID, action string, booking *models.Booking, meta RequestMeta) {
	details := map[string]interface{}{
		"owner_id":       booking.UserID,
		"booking_status": booking.BookingStatus,
		"payment_status": booking.PaymentStatus,
		"version":        booking.Version,
	}
	if booking.PaymentMethod != "" {
		details["payment_method"] = booking.PaymentMethod
	}
	if actorID == "" {
		details["actor"] = "staff"
	}
	s.Log(ctx, AuditEvent{
		UserID:     actorID,
		Action:     action,
		EntityType: "booking",
		EntityID:   booking.BookingID,
		Meta:       meta,
		Details:    details,
	})
}

// LogRateLimitViolation records a rejected attempt
func (s *AuditService) LogRateLimitViolation(ctx context.Context, scope, email string, retryAfter time.Duration, meta RequestMeta) {
	s.Log(ctx, AuditEvent{
		Action:     ActionRateLimitViolation,
		EntityType: "rate_limit",
		Meta:       meta,
		Details: map[string]interface{}{
			"scope":       scope,
			"email":       email,
			"retry_after": int(retryAfter.Seconds()),
		},
	})
}

// Log writes one event
func (s *AuditService) Log(ctx context.Context, event AuditEvent) {
	if s == nil || !s.enabled {
		return
	}

	details := event.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	if event.Meta.UserAgent != "" {
		details["device_info"] = utils.ParseUserAgent(event.Meta.UserAgent).AsMap()
	}

	entry := &models.AuditLog{
		ID:         uuid.New().String(),
		UserID:     event.UserID,
		Action:     event.Action,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		IPAddress:  event.Meta.IPAddress,
		UserAgent:  event.Meta.UserAgent,
		Details:    details,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		s.logger.WithFields(logrus.Fields{
			"action":    event.Action,
			"entity_id": event.EntityID,
		}).WithError(err).Warn("Failed to write audit log")
	}
}
