package models

import (
	"strings"
	"time"
)

// ============================================================================
// BOOKING STATUSES
// ============================================================================

// BookingStatus represents the approval state of a booking.
// The only transition is pendingApproval -> approved.
type BookingStatus string

const (
	BookingStatusPendingApproval BookingStatus = "pendingApproval"
	BookingStatusApproved        BookingStatus = "approved"
)

// Accepted payment methods
const (
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCash         = "cash"
	PaymentMethodOnline       = "online"
)

// IsValidPaymentMethod reports whether method is one the portal accepts
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCash, PaymentMethodOnline:
		return true
	}
	return false
}

// ============================================================================
// BOOKING
// ============================================================================

// Booking is an appointment request owned by exactly one user
type Booking struct {
	BookingID      string        `json:"bookingId" db:"booking_id" bson:"_id"`
	UserID         string        `json:"userId" db:"user_id" bson:"userId"`
	FirstName      string        `json:"firstName" db:"first_name" bson:"firstName"`
	MiddleName     string        `json:"middleName,omitempty" db:"middle_name" bson:"middleName"`
	LastName       string        `json:"lastName" db:"last_name" bson:"lastName"`
	Email          string        `json:"email" db:"email" bson:"email"`
	PassportNumber string        `json:"passportNumber" db:"passport_number" bson:"passportNumber"`
	Nationality    string        `json:"nationality" db:"nationality" bson:"nationality"`
	DOB            string        `json:"dob" db:"dob" bson:"dob"`
	Address        string        `json:"address" db:"address" bson:"address"`
	SponsorCompany string        `json:"sponsorCompany" db:"sponsor_company" bson:"sponsorCompany"`
	SponsorAirline string        `json:"sponsorAirline" db:"sponsor_airline" bson:"sponsorAirline"`
	BookingDate    string        `json:"bookingDate" db:"booking_date" bson:"bookingDate"`
	TimeSlot       string        `json:"timeSlot" db:"time_slot" bson:"timeSlot"`
	BookingStatus  BookingStatus `json:"bookingStatus" db:"booking_status" bson:"bookingStatus"`
	PaymentMethod  string        `json:"paymentMethod" db:"payment_method" bson:"paymentMethod"`
	PaymentStatus  PaymentStatus `json:"paymentStatus" db:"payment_status" bson:"paymentStatus"`
	InvoiceURL     string        `json:"invoiceUrl" db:"invoice_url" bson:"invoiceUrl"`
	IHCCode        string        `json:"ihcCode" db:"ihc_code" bson:"ihcCode"`
	Version        int           `json:"version" db:"version" bson:"version"`
	CreatedAt      time.Time     `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// IsApproved reports whether staff approved the booking
func (b *Booking) IsApproved() bool {
	return b.BookingStatus == BookingStatusApproved
}

// FullName joins the applicant name parts
func (b *Booking) FullName() string {
	parts := []string{b.FirstName, b.MiddleName, b.LastName}
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// InvoiceView is what the owner sees once the invoice is available
type InvoiceView struct {
	BookingID     string        `json:"bookingId"`
	InvoiceURL    string        `json:"invoiceUrl"`
	BookingStatus BookingStatus `json:"bookingStatus"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	IHCCode       string        `json:"ihcCode,omitempty"`
}

// ============================================================================
// REQUEST DTOs
// ============================================================================

// CreateBookingRequest carries the applicant and appointment fields.
// Email is intentionally absent: it is resolved from the owner's account.
type CreateBookingRequest struct {
	FirstName      string `json:"firstName" binding:"required,notblank"`
	MiddleName     string `json:"middleName"`
	LastName       string `json:"lastName" binding:"required,notblank"`
	PassportNumber string `json:"passportNumber" binding:"required,notblank"`
	Nationality    string `json:"nationality" binding:"required,notblank"`
	DOB            string `json:"dob" binding:"required,notblank"`
	Address        string `json:"address" binding:"required,notblank"`
	SponsorCompany string `json:"sponsorCompany" binding:"required,notblank"`
	SponsorAirline string `json:"sponsorAirline" binding:"required,notblank"`
	BookingDate    string `json:"bookingDate" binding:"required,notblank"`
	TimeSlot       string `json:"timeSlot" binding:"required,notblank"`
}

// PaymentMethodRequest is sent by the candidate from wizard step 2
type PaymentMethodRequest struct {
	BookingID     string `json:"bookingId" binding:"required,notblank"`
	PaymentMethod string `json:"paymentMethod" binding:"required,notblank"`
}

// ApproveBookingRequest is sent by staff when attaching an invoice
type ApproveBookingRequest struct {
	InvoiceURL string `json:"invoiceUrl" binding:"required,notblank"`
}
