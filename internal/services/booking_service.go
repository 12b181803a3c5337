package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ihcportal/booking-backend/internal/database"
	"github.com/ihcportal/booking-backend/internal/models"
	"github.com/ihcportal/booking-backend/internal/notify"
	"github.com/ihcportal/booking-backend/internal/utils"
	"github.com/ihcportal/booking-backend/pkg/mailer"
	"github.com/ihcportal/booking-backend/pkg/validator"
)

const (
	// maxBookingIDAttempts bounds regeneration after a booking id collision
	maxBookingIDAttempts = 10
	// maxConfirmAttempts bounds re-reads when confirmPayment races another write
	maxConfirmAttempts = 3
)

// BookingService drives a booking from submission to payment confirmation.
// Every transition is persisted first; notifications are sent afterwards and
// their failures are only logged.
type BookingService struct {
	bookings  database.BookingStore
	users     database.UserStore
	notifier  notify.Notifier
	templates *notify.Templates
	audit     *AuditService
	logger    *logrus.Logger

	now          func() time.Time
	newBookingID func(time.Time) (string, error)
	newIHCCode   func() (string, error)
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookings database.BookingStore,
	users database.UserStore,
	notifier notify.Notifier,
	templates *notify.Templates,
	audit *AuditService,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		users:        users,
		notifier:     notifier,
		templates:    templates,
		audit:        audit,
		logger:       logger,
		now:          time.Now,
		newBookingID: utils.GenerateBookingID,
		newIHCCode:   utils.GenerateIHCCode,
	}
}

// CreateBooking validates and stores a new booking for ownerID
func (s *BookingService) CreateBooking(ctx context.Context, callerID, ownerID string, req models.CreateBookingRequest, meta RequestMeta) (*models.Booking, error) {
	if callerID != ownerID {
		return nil, forbiddenError("You can only create bookings for your own account")
	}

	req = sanitizeBookingRequest(req)
	if err := validator.ValidateDate(req.DOB); err != nil {
		return nil, validationError(CodeInvalidDate, "dob must be in YYYY-MM-DD format")
	}
	if err := validator.ValidateDate(req.BookingDate); err != nil {
		return nil, validationError(CodeInvalidDate, "bookingDate must be in YYYY-MM-DD format")
	}

	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFoundError(CodeUserNotFound, "User not found")
		}
		return nil, err
	}

	now := s.now().UTC()
	booking := &models.Booking{
		UserID:         owner.ID,
		FirstName:      req.FirstName,
		MiddleName:     req.MiddleName,
		LastName:       req.LastName,
		Email:          owner.Email,
		PassportNumber: req.PassportNumber,
		Nationality:    req.Nationality,
		DOB:            req.DOB,
		Address:        req.Address,
		SponsorCompany: req.SponsorCompany,
		SponsorAirline: req.SponsorAirline,
		BookingDate:    req.BookingDate,
		TimeSlot:       req.TimeSlot,
		BookingStatus:  models.BookingStatusPendingApproval,
		PaymentStatus:  models.PaymentStatusPending,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.insertWithFreshID(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.BookingID,
		"user_id":    owner.ID,
	}).Info("Booking created")
	s.audit.LogBookingEvent(ctx, callerID, ActionBookingCreated, booking, meta)
	s.send(ctx, booking, "staff_new_booking", s.templates.StaffNewBooking(booking))

	return booking, nil
}

func (s *BookingService) insertWithFreshID(ctx context.Context, booking *models.Booking) error {
	for attempt := 1; attempt <= maxBookingIDAttempts; attempt++ {
		id, err := s.newBookingID(booking.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to generate booking id: %w", err)
		}
		booking.BookingID = id

		err = s.bookings.Create(ctx, booking)
		if err == nil {
			return nil
		}
		if !errors.Is(err, database.ErrDuplicateBookingID) {
			return err
		}
		s.logger.WithFields(logrus.Fields{
			"booking_id": id,
			"attempt":    attempt,
		}).Warn("Booking id collision, regenerating")
	}
	return &Error{
		Kind:    KindConflict,
		Code:    CodeBookingIDExhausted,
		Message: "Could not allocate a booking id, please retry",
	}
}

// SetPaymentMethod records the candidate's chosen payment method
func (s *BookingService) SetPaymentMethod(ctx context.Context, callerID, ownerID string, req models.PaymentMethodRequest, meta RequestMeta) (*models.Booking, error) {
	if callerID != ownerID {
		return nil, forbiddenError("You can only update your own bookings")
	}

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if !models.IsValidPaymentMethod(method) {
		return nil, validationError(CodeInvalidPaymentMethod, "Invalid payment method: %s", method)
	}

	booking, err := s.getBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != ownerID {
		return nil, forbiddenError("You can only update your own bookings")
	}
	if booking.IsApproved() {
		return nil, validationError(CodeAlreadyApproved, "Booking is already approved")
	}
	if booking.PaymentMethod != "" {
		return nil, conflictError(CodePaymentMethodSet, "A payment method was already submitted for this booking")
	}

	booking.PaymentMethod = method
	booking.UpdatedAt = s.now().UTC()
	if err := s.update(ctx, booking); err != nil {
		return nil, err
	}

	s.audit.LogBookingEvent(ctx, callerID, ActionPaymentMethodSet, booking, meta)
	s.send(ctx, booking, "staff_payment_method", s.templates.StaffPaymentMethod(booking))
	s.send(ctx, booking, "candidate_payment_method", s.templates.CandidatePaymentMethod(booking, booking.Email))

	return booking, nil
}

// ApproveBooking attaches the invoice and approves the booking. Repeating the
// call replaces the invoice URL.
func (s *BookingService) ApproveBooking(ctx context.Context, bookingID string, req models.ApproveBookingRequest, meta RequestMeta) (*models.Booking, error) {
	invoiceURL := strings.TrimSpace(req.InvoiceURL)
	if !isAbsoluteHTTPURL(invoiceURL) {
		return nil, validationError(CodeInvalidInvoiceURL, "invoiceUrl must be an absolute http(s) URL")
	}

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	booking.InvoiceURL = invoiceURL
	booking.BookingStatus = models.BookingStatusApproved
	booking.UpdatedAt = s.now().UTC()
	if err := s.update(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.WithField("booking_id", booking.BookingID).Info("Booking approved")
	s.audit.LogBookingEvent(ctx, "", ActionBookingApproved, booking, meta)
	s.send(ctx, booking, "booking_approved", s.templates.BookingApproved(booking, s.ownerEmail(ctx, booking)))

	return booking, nil
}

// ConfirmPayment marks an approved booking paid and assigns its IHC code.
// The code is generated once; later calls re-send the stored code.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID string, meta RequestMeta) (*models.Booking, error) {
	var booking *models.Booking
	alreadyConfirmed := false

	for attempt := 1; ; attempt++ {
		var err error
		booking, err = s.getBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if !booking.IsApproved() {
			return nil, validationError(CodeNotApproved, "Booking must be approved before payment can be confirmed")
		}

		alreadyConfirmed = booking.PaymentStatus == models.PaymentStatusConfirmed && booking.IHCCode != ""
		if alreadyConfirmed {
			break
		}

		if booking.IHCCode == "" {
			code, err := s.newIHCCode()
			if err != nil {
				return nil, fmt.Errorf("failed to generate ihc code: %w", err)
			}
			booking.IHCCode = code
		}
		booking.PaymentStatus = models.PaymentStatusConfirmed
		booking.UpdatedAt = s.now().UTC()

		err = s.bookings.Update(ctx, booking)
		if err == nil {
			break
		}
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFoundError(CodeBookingNotFound, "Booking not found")
		}
		if !errors.Is(err, database.ErrVersionConflict) || attempt >= maxConfirmAttempts {
			return nil, s.translateUpdateError(err)
		}
		s.logger.WithFields(logrus.Fields{
			"booking_id": bookingID,
			"attempt":    attempt,
		}).Warn("Concurrent update while confirming payment, retrying")
	}

	if err := s.users.MarkPaymentConfirmed(ctx, booking.UserID, booking.IHCCode); err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
		s.logger.WithField("user_id", booking.UserID).Warn("Owner of confirmed booking no longer exists")
	}

	if alreadyConfirmed {
		s.logger.WithField("booking_id", booking.BookingID).Info("Payment already confirmed, re-sending IHC code")
	} else {
		s.logger.WithField("booking_id", booking.BookingID).Info("Payment confirmed")
		s.audit.LogBookingEvent(ctx, "", ActionPaymentConfirmed, booking, meta)
	}
	s.send(ctx, booking, "payment_confirmed", s.templates.PaymentConfirmed(booking, s.ownerEmail(ctx, booking), booking.IHCCode))

	return booking, nil
}

// ListForUser returns ownerID's bookings in creation order
func (s *BookingService) ListForUser(ctx context.Context, callerID, ownerID string) ([]models.Booking, error) {
	if callerID != ownerID {
		return nil, forbiddenError("You can only view your own bookings")
	}
	return s.bookings.ListByUser(ctx, ownerID)
}

// GetForOwner returns one booking to its owner
func (s *BookingService) GetForOwner(ctx context.Context, callerID, ownerID, bookingID string) (*models.Booking, error) {
	if callerID != ownerID {
		return nil, forbiddenError("You can only view your own bookings")
	}
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != ownerID {
		return nil, forbiddenError("You can only view your own bookings")
	}
	return booking, nil
}

// GetForStaff returns any booking
func (s *BookingService) GetForStaff(ctx context.Context, bookingID string) (*models.Booking, error) {
	return s.getBooking(ctx, bookingID)
}

// GetInvoice returns the invoice view once the booking is approved
func (s *BookingService) GetInvoice(ctx context.Context, callerID, ownerID, bookingID string) (*models.InvoiceView, error) {
	booking, err := s.GetForOwner(ctx, callerID, ownerID, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsApproved() || booking.InvoiceURL == "" {
		return nil, validationError(CodeInvoiceNotAvailable, "Invoice not yet available")
	}
	return &models.InvoiceView{
		BookingID:     booking.BookingID,
		InvoiceURL:    booking.InvoiceURL,
		BookingStatus: booking.BookingStatus,
		PaymentStatus: booking.PaymentStatus,
		IHCCode:       booking.IHCCode,
	}, nil
}

// DeleteBooking removes a pending booking owned by callerID
func (s *BookingService) DeleteBooking(ctx context.Context, callerID, bookingID string, meta RequestMeta) error {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.UserID != callerID {
		return forbiddenError("You can only delete your own bookings")
	}
	if booking.IsApproved() {
		return validationError(CodeApprovedDelete, "Approved bookings cannot be deleted")
	}

	if err := s.bookings.Delete(ctx, booking.BookingID, booking.Version); err != nil {
		return s.translateUpdateError(err)
	}

	s.audit.LogBookingEvent(ctx, callerID, ActionBookingDeleted, booking, meta)
	return nil
}

// ListAll returns every booking, newest first
func (s *BookingService) ListAll(ctx context.Context) ([]models.Booking, error) {
	return s.bookings.ListAll(ctx)
}

func (s *BookingService) getBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.bookings.GetByBookingID(ctx, strings.TrimSpace(bookingID))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFoundError(CodeBookingNotFound, "Booking not found")
		}
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) update(ctx context.Context, booking *models.Booking) error {
	if err := s.bookings.Update(ctx, booking); err != nil {
		return s.translateUpdateError(err)
	}
	return nil
}

func (s *BookingService) translateUpdateError(err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return notFoundError(CodeBookingNotFound, "Booking not found")
	case errors.Is(err, database.ErrVersionConflict):
		return conflictError(CodeConcurrentUpdate, "Booking was modified by another request, please reload and retry")
	default:
		return err
	}
}

// ownerEmail prefers the owner's current address over the one cached on the booking
func (s *BookingService) ownerEmail(ctx context.Context, booking *models.Booking) string {
	owner, err := s.users.GetByID(ctx, booking.UserID)
	if err == nil && owner.Email != "" {
		return owner.Email
	}
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		s.logger.WithField("user_id", booking.UserID).WithError(err).Warn("Failed to load booking owner, using booking email")
	}
	return booking.Email
}

// send hands msg to the notifier; a failure never affects the caller
func (s *BookingService) send(ctx context.Context, booking *models.Booking, kind string, msg mailer.Message) {
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.WithFields(logrus.Fields{
			"booking_id":   booking.BookingID,
			"notification": kind,
			"to":           msg.To,
		}).WithError(err).Error("Failed to send notification")
	}
}

func sanitizeBookingRequest(req models.CreateBookingRequest) models.CreateBookingRequest {
	return models.CreateBookingRequest{
		FirstName:      utils.SanitizeText(req.FirstName),
		MiddleName:     utils.SanitizeText(req.MiddleName),
		LastName:       utils.SanitizeText(req.LastName),
		PassportNumber: strings.ToUpper(utils.SanitizeText(req.PassportNumber)),
		Nationality:    utils.SanitizeText(req.Nationality),
		DOB:            utils.SanitizeText(req.DOB),
		Address:        utils.SanitizeText(req.Address),
		SponsorCompany: utils.SanitizeText(req.SponsorCompany),
		SponsorAirline: utils.SanitizeText(req.SponsorAirline),
		BookingDate:    utils.SanitizeText(req.BookingDate),
		TimeSlot:       utils.SanitizeText(req.TimeSlot),
	}
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
