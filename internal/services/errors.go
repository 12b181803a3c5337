package services

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a failure the caller can act on
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindAuth:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal_error"
	}
}

// Machine-readable error codes returned to clients
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeMissingField         = "MISSING_FIELD"
	CodeInvalidEmail         = "INVALID_EMAIL"
	CodeWeakPassword         = "WEAK_PASSWORD"
	CodeInvalidDate          = "INVALID_DATE"
	CodeEmailExists          = "EMAIL_EXISTS"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeInvalidResetToken    = "INVALID_RESET_TOKEN"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeBookingNotFound      = "BOOKING_NOT_FOUND"
	CodeNotOwner             = "NOT_OWNER"
	CodeInvalidPaymentMethod = "INVALID_PAYMENT_METHOD"
	CodePaymentMethodSet     = "PAYMENT_METHOD_ALREADY_SET"
	CodeAlreadyApproved      = "BOOKING_ALREADY_APPROVED"
	CodeInvalidInvoiceURL    = "INVALID_INVOICE_URL"
	CodeNotApproved          = "BOOKING_NOT_APPROVED"
	CodeInvoiceNotAvailable  = "INVOICE_NOT_AVAILABLE"
	CodeApprovedDelete       = "APPROVED_BOOKING_DELETE"
	CodeConcurrentUpdate     = "CONCURRENT_UPDATE"
	CodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	CodeBookingIDExhausted   = "BOOKING_ID_EXHAUSTED"
)

// Error is a business failure with a kind the HTTP layer maps to a status
type Error struct {
	Kind       ErrorKind
	Code       string
	Message    string
	RetryAfter time.Duration // set for KindRateLimited
}

func (e *Error) Error() string {
	return e.Message
}

// AsError extracts a *Error from err
func AsError(err error) (*Error, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

// IsKind reports whether err is a service error of kind k
func IsKind(err error, k ErrorKind) bool {
	svcErr, ok := AsError(err)
	return ok && svcErr.Kind == k
}

func validationError(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func forbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Code: CodeNotOwner, Message: message}
}

func notFoundError(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func conflictError(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}
