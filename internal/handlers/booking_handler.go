package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ihcportal/booking-backend/internal/middleware"
	"github.com/ihcportal/booking-backend/internal/models"
	"github.com/ihcportal/booking-backend/internal/services"
)

// BookingAPI is the booking surface used by BookingHandler and StaffHandler
type BookingAPI interface {
	CreateBooking(ctx context.Context, callerID, ownerID string, req models.CreateBookingRequest, meta services.RequestMeta) (*models.Booking, error)
	SetPaymentMethod(ctx context.Context, callerID, ownerID string, req models.PaymentMethodRequest, meta services.RequestMeta) (*models.Booking, error)
	ListForUser(ctx context.Context, callerID, ownerID string) ([]models.Booking, error)
	GetForOwner(ctx context.Context, callerID, ownerID, bookingID string) (*models.Booking, error)
	GetInvoice(ctx context.Context, callerID, ownerID, bookingID string) (*models.InvoiceView, error)
	DeleteBooking(ctx context.Context, callerID, bookingID string, meta services.RequestMeta) error

	ApproveBooking(ctx context.Context, bookingID string, req models.ApproveBookingRequest, meta services.RequestMeta) (*models.Booking, error)
	ConfirmPayment(ctx context.Context, bookingID string, meta services.RequestMeta) (*models.Booking, error)
	GetForStaff(ctx context.Context, bookingID string) (*models.Booking, error)
	ListAll(ctx context.Context) ([]models.Booking, error)
}

// BookingHandler serves the candidate booking wizard
type BookingHandler struct {
	bookings BookingAPI
	logger   *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings BookingAPI, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// CreateBooking handles POST /api/v1/booking/:userId
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), userCtx.UserID, c.Param("userId"), req, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "booking": booking})
}

// SetPaymentMethod handles POST /api/v1/booking/:userId/paymentMethod
func (h *BookingHandler) SetPaymentMethod(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	booking, err := h.bookings.SetPaymentMethod(c.Request.Context(), userCtx.UserID, c.Param("userId"), req, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// ListBookings handles GET /api/v1/booking/:userId
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	bookings, err := h.bookings.ListForUser(c.Request.Context(), userCtx.UserID, c.Param("userId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": bookings})
}

// GetBooking handles GET /api/v1/booking/:userId/:bookingId
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	booking, err := h.bookings.GetForOwner(c.Request.Context(), userCtx.UserID, c.Param("userId"), c.Param("bookingId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// GetInvoice handles GET /api/v1/booking/:userId/:bookingId/invoice
func (h *BookingHandler) GetInvoice(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	invoice, err := h.bookings.GetInvoice(c.Request.Context(), userCtx.UserID, c.Param("userId"), c.Param("bookingId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "invoice": invoice})
}

// DeleteBooking handles DELETE /api/v1/booking/:bookingId
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	if err := h.bookings.DeleteBooking(c.Request.Context(), userCtx.UserID, c.Param("bookingId"), requestMeta(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Booking deleted"})
}
