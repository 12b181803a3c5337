package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ihcportal/booking-backend/internal/config"
	"github.com/ihcportal/booking-backend/internal/middleware"
	"github.com/ihcportal/booking-backend/internal/models"
	"github.com/ihcportal/booking-backend/internal/services"
	"github.com/ihcportal/booking-backend/pkg/jwt"
)

const (
	testStaffKey = "staff-key-for-tests"
	testUserID   = "6f1c2a1e-8d7f-4d7e-9d55-3b2a1c0e9f10"
	testEmail    = "ana@example.com"
)

type MockAuthAPI struct {
	mock.Mock
}

func (m *MockAuthAPI) Register(ctx context.Context, req models.RegisterRequest, meta services.RequestMeta) (*models.AuthResult, error) {
	args := m.Called(ctx, req, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResult), args.Error(1)
}

func (m *MockAuthAPI) Login(ctx context.Context, req models.LoginRequest, meta services.RequestMeta) (*models.AuthResult, error) {
	args := m.Called(ctx, req, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResult), args.Error(1)
}

func (m *MockAuthAPI) CurrentUser(ctx context.Context, userID string) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockAuthAPI) GetStatus(ctx context.Context, callerID, userID string) (*models.UserStatus, error) {
	args := m.Called(ctx, callerID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserStatus), args.Error(1)
}

func (m *MockAuthAPI) RequestPasswordReset(ctx context.Context, req models.ForgotPasswordRequest, meta services.RequestMeta) error {
	return m.Called(ctx, req, meta).Error(0)
}

func (m *MockAuthAPI) ResetPassword(ctx context.Context, req models.ResetPasswordRequest, meta services.RequestMeta) error {
	return m.Called(ctx, req, meta).Error(0)
}

type MockBookingAPI struct {
	mock.Mock
}

func (m *MockBookingAPI) booking(args mock.Arguments) (*models.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingAPI) bookings(args mock.Arguments) ([]models.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockBookingAPI) CreateBooking(ctx context.Context, callerID, ownerID string, req models.CreateBookingRequest, meta services.RequestMeta) (*models.Booking, error) {
	return m.booking(m.Called(ctx, callerID, ownerID, req, meta))
}

func (m *MockBookingAPI) SetPaymentMethod(ctx context.Context, callerID, ownerID string, req models.PaymentMethodRequest, meta services.RequestMeta) (*models.Booking, error) {
	return m.booking(m.Called(ctx, callerID, ownerID, req, meta))
}

func (m *MockBookingAPI) ListForUser(ctx context.Context, callerID, ownerID string) ([]models.Booking, error) {
	return m.bookings(m.Called(ctx, callerID, ownerID))
}

func (m *MockBookingAPI) GetForOwner(ctx context.Context, callerID, ownerID, bookingID string) (*models.Booking, error) {
	return m.booking(m.Called(ctx, callerID, ownerID, bookingID))
}

func (m *MockBookingAPI) GetInvoice(ctx context.Context, callerID, ownerID, bookingID string) (*models.InvoiceView, error) {
	args := m.Called(ctx, callerID, ownerID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceView), args.Error(1)
}

func (m *MockBookingAPI) DeleteBooking(ctx context.Context, callerID, bookingID string, meta services.RequestMeta) error {
	return m.Called(ctx, callerID, bookingID, meta).Error(0)
}

func (m *MockBookingAPI) ApproveBooking(ctx context.Context, bookingID string, req models.ApproveBookingRequest, meta services.RequestMeta) (*models.Booking, error) {
	return m.booking(m.Called(ctx, bookingID, req, meta))
}

func (m *MockBookingAPI) ConfirmPayment(ctx context.Context, bookingID string, meta services.RequestMeta) (*models.Booking, error) {
	return m.booking(m.Called(ctx, bookingID, meta))
}

func (m *MockBookingAPI) GetForStaff(ctx context.Context, bookingID string) (*models.Booking, error) {
	return m.booking(m.Called(ctx, bookingID))
}

func (m *MockBookingAPI) ListAll(ctx context.Context) ([]models.Booking, error) {
	return m.bookings(m.Called(ctx))
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error { return p.err }

type testServer struct {
	router   *gin.Engine
	auth     *MockAuthAPI
	bookings *MockBookingAPI
	hook     *logtest.Hook
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, hook := logtest.NewNullLogger()
	jwtService := jwt.NewService("test-access-secret-key-123456789", time.Hour)
	token, err := jwtService.GenerateAccessToken(testUserID, testEmail)
	require.NoError(t, err)

	s := &testServer{
		auth:     &MockAuthAPI{},
		bookings: &MockBookingAPI{},
		hook:     hook,
		token:    token,
	}
	s.router = NewRouter(RouterDeps{
		Auth:     s.auth,
		Bookings: s.bookings,
		Store:    fakePinger{},
		Backend:  "postgres",
		Version:  "test",
		JWT:      jwtService,
		StaffKey: testStaffKey,
		CORS:     config.CORSConfig{},
		Logger:   logger,
	})
	t.Cleanup(func() {
		s.auth.AssertExpectations(t)
		s.bookings.AssertExpectations(t)
	})
	return s
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withStaffKey(key string) requestOption {
	return func(r *http.Request) { r.Header.Set(middleware.StaffKeyHeader, key) }
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
