package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/ihcportal/booking-backend/internal/models"
	"github.com/ihcportal/booking-backend/pkg/mailer"
)

// SiteName is shown in every email header and signature
const SiteName = "IHC Portal"

// Templates builds the transactional emails sent at each booking transition.
// Applicant input is escaped by html/template.
type Templates struct {
	baseURL    string
	staffEmail string
}

// NewTemplates creates the email builder. baseURL is the public origin of the
// candidate pages and staffEmail is the inbox that receives staff notices.
func NewTemplates(baseURL, staffEmail string) *Templates {
	return &Templates{baseURL: baseURL, staffEmail: staffEmail}
}

// StaffEmail returns the staff inbox address
func (t *Templates) StaffEmail() string {
	return t.staffEmail
}

type bookingEmailData struct {
	SiteName  string
	Greeting  string
	Booking   *models.Booking
	FullName  string
	Link      string
	LinkLabel string
	IHCCode   string
	ValidFor  string
}

// StaffNewBooking notifies staff that an applicant submitted a booking
func (t *Templates) StaffNewBooking(b *models.Booking) mailer.Message {
	return mailer.Message{
		To:      t.staffEmail,
		Subject: fmt.Sprintf("New IHC Booking: %s", b.BookingID),
		HTML: render("staff_booking", bookingEmailData{
			SiteName: SiteName,
			Booking:  b,
			FullName: b.FullName(),
			Greeting: "A new IHC booking has been submitted.",
		}),
	}
}

// StaffPaymentMethod notifies staff that the candidate picked a payment method
func (t *Templates) StaffPaymentMethod(b *models.Booking) mailer.Message {
	return mailer.Message{
		To:      t.staffEmail,
		Subject: fmt.Sprintf("Payment Method Submitted: %s", b.BookingID),
		HTML: render("staff_booking", bookingEmailData{
			SiteName: SiteName,
			Booking:  b,
			FullName: b.FullName(),
			Greeting: "A candidate has submitted payment details. Please review and approve this booking to generate the invoice.",
		}),
	}
}

// CandidatePaymentMethod confirms to the candidate that the request is queued for approval
func (t *Templates) CandidatePaymentMethod(b *models.Booking, to string) mailer.Message {
	return mailer.Message{
		To:      to,
		Subject: "IHC Booking Request Received",
		HTML: render("candidate_received", bookingEmailData{
			SiteName:  SiteName,
			Booking:   b,
			Link:      t.link("/step2.html", nil),
			LinkLabel: "Go to Your Portal",
		}),
	}
}

// BookingApproved tells the owner the invoice is ready
func (t *Templates) BookingApproved(b *models.Booking, to string) mailer.Message {
	return mailer.Message{
		To:      to,
		Subject: "Booking Approved - IHC",
		HTML: render("candidate_approved", bookingEmailData{
			SiteName:  SiteName,
			Booking:   b,
			FullName:  b.FullName(),
			Link:      t.link("/invoice.html", url.Values{"bookingId": {b.BookingID}}),
			LinkLabel: "View Your Invoice",
		}),
	}
}

// PaymentConfirmed sends the candidate their IHC code
func (t *Templates) PaymentConfirmed(b *models.Booking, to, ihcCode string) mailer.Message {
	return mailer.Message{
		To:      to,
		Subject: "Payment Confirmed - Your IHC Code",
		HTML: render("candidate_confirmed", bookingEmailData{
			SiteName:  SiteName,
			Booking:   b,
			FullName:  b.FullName(),
			IHCCode:   ihcCode,
			Link:      t.link("/step2.html", nil),
			LinkLabel: "Go to Your Portal",
		}),
	}
}

// PasswordReset carries the one-time reset link
func (t *Templates) PasswordReset(fullName, to, token string, validFor time.Duration) mailer.Message {
	return mailer.Message{
		To:      to,
		Subject: "IHC Password Reset",
		HTML: render("password_reset", bookingEmailData{
			SiteName:  SiteName,
			FullName:  fullName,
			Link:      t.ResetLink(token),
			LinkLabel: "Reset Password",
			ValidFor:  formatDuration(validFor),
		}),
	}
}

// ResetLink is the page the reset token is redeemed on
func (t *Templates) ResetLink(token string) string {
	return t.link("/reset-password.html", url.Values{"token": {token}})
}

func (t *Templates) link(path string, query url.Values) string {
	link := t.baseURL + path
	if len(query) > 0 {
		link += "?" + query.Encode()
	}
	return link
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}

var emailTemplates = template.Must(template.New("emails").Parse(emailTemplateSource))

func render(name string, data bookingEmailData) string {
	var buf bytes.Buffer
	_ = emailTemplates.ExecuteTemplate(&buf, name, data)
	return buf.String()
}

const emailTemplateSource = `
{{define "header"}}<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 32px 16px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 560px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 24px 32px; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 20px; color: #1e3a8a;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; font-size: 15px; color: #374151; line-height: 1.5;">
{{end}}

{{define "footer"}}
              <p style="margin: 24px 0 0;">Thank you,<br>IHC Team</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>{{end}}

{{define "button"}}{{if .Link}}
              <p style="margin: 24px 0;">
                <a href="{{.Link}}" style="display: inline-block; padding: 12px 24px; background-color: #007bff; color: #ffffff; text-decoration: none; border-radius: 6px; font-weight: bold;">{{.LinkLabel}}</a>
              </p>{{end}}{{end}}

{{define "staff_booking"}}{{template "header" .}}
              <p>{{.Greeting}}</p>
              <ul>
                <li><strong>Name:</strong> {{.FullName}}</li>
                <li><strong>Email:</strong> {{.Booking.Email}}</li>
                <li><strong>Passport:</strong> {{.Booking.PassportNumber}}</li>
                <li><strong>Nationality:</strong> {{.Booking.Nationality}}</li>
                <li><strong>DOB:</strong> {{.Booking.DOB}}</li>
                <li><strong>Address:</strong> {{.Booking.Address}}</li>
                <li><strong>Sponsor Company:</strong> {{.Booking.SponsorCompany}}</li>
                <li><strong>Sponsor Airline:</strong> {{.Booking.SponsorAirline}}</li>
                <li><strong>Appointment:</strong> {{.Booking.BookingDate}} at {{.Booking.TimeSlot}}</li>
                <li><strong>Booking ID:</strong> {{.Booking.BookingID}}</li>
                <li><strong>User ID:</strong> {{.Booking.UserID}}</li>{{if .Booking.PaymentMethod}}
                <li><strong>Payment Method:</strong> {{.Booking.PaymentMethod}}</li>{{end}}
              </ul>
{{template "footer" .}}{{end}}

{{define "candidate_received"}}{{template "header" .}}
              <p>Dear {{.Booking.FirstName}},</p>
              <p>Your booking request has been received by IHC staff. Please wait for approval before proceeding with payment.</p>
              <ul>
                <li><strong>Appointment:</strong> {{.Booking.BookingDate}} at {{.Booking.TimeSlot}}</li>
                <li><strong>Booking ID:</strong> {{.Booking.BookingID}}</li>
                <li><strong>Payment Method:</strong> {{.Booking.PaymentMethod}}</li>
              </ul>
              <p>Once your booking is approved, you will be able to download your invoice.</p>
{{template "button" .}}
{{template "footer" .}}{{end}}

{{define "candidate_approved"}}{{template "header" .}}
              <p>Dear {{.FullName}},</p>
              <p>Your booking <strong>{{.Booking.BookingID}}</strong> has been <strong>approved</strong>.</p>
              <p>You may now download your invoice from your portal.</p>
{{template "button" .}}
{{template "footer" .}}{{end}}

{{define "candidate_confirmed"}}{{template "header" .}}
              <p>Dear {{.FullName}},</p>
              <p>Your payment for booking <strong>{{.Booking.BookingID}}</strong> has been confirmed.</p>
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 20px; text-align: center; margin: 16px 0;">
                <span style="font-size: 26px; font-weight: 700; letter-spacing: 4px; font-family: 'Courier New', monospace;">{{.IHCCode}}</span>
              </div>
              <p>Please keep this code for your appointment on {{.Booking.BookingDate}} at {{.Booking.TimeSlot}}.</p>
{{template "button" .}}
{{template "footer" .}}{{end}}

{{define "password_reset"}}{{template "header" .}}
              <p>Hello {{.FullName}},</p>
              <p>Click the link below to reset your password (valid for {{.ValidFor}}):</p>
{{template "button" .}}
              <p style="font-size: 13px; color: #6b7280;">If you did not request a password reset, you can safely ignore this email.</p>
{{template "footer" .}}{{end}}
`
