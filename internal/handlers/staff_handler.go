package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ihcportal/booking-backend/internal/models"
)

// StaffHandler serves the routes behind the staff key
type StaffHandler struct {
	bookings BookingAPI
	logger   *logrus.Logger
}

// NewStaffHandler creates a new staff handler
func NewStaffHandler(bookings BookingAPI, logger *logrus.Logger) *StaffHandler {
	return &StaffHandler{bookings: bookings, logger: logger}
}

// ApproveBooking handles PUT /api/v1/booking/:bookingId/invoice
func (h *StaffHandler) ApproveBooking(c *gin.Context) {
	var req models.ApproveBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	booking, err := h.bookings.ApproveBooking(c.Request.Context(), c.Param("bookingId"), req, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// ConfirmPayment handles PUT /api/v1/booking/:bookingId/confirmPayment
func (h *StaffHandler) ConfirmPayment(c *gin.Context) {
	booking, err := h.bookings.ConfirmPayment(c.Request.Context(), c.Param("bookingId"), requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// ListBookings handles GET /api/v1/staff/bookings
func (h *StaffHandler) ListBookings(c *gin.Context) {
	bookings, err := h.bookings.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": bookings})
}

// GetBooking handles GET /api/v1/staff/bookings/:bookingId
func (h *StaffHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookings.GetForStaff(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}
