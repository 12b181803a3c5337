package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ihcportal/booking-backend/internal/database"
	"github.com/ihcportal/booking-backend/internal/models"
	"github.com/ihcportal/booking-backend/internal/notify"
	"github.com/ihcportal/booking-backend/internal/utils"
	"github.com/ihcportal/booking-backend/pkg/jwt"
	"github.com/ihcportal/booking-backend/pkg/validator"
)

// ResetTokenTTL is how long a password reset link stays valid
const ResetTokenTTL = time.Hour

// ResetRequestedMessage is returned for every forgot-password request
const ResetRequestedMessage = "If an account exists for that email, a password reset link has been sent"

var errInvalidCredentials = &Error{
	Kind:    KindAuth,
	Code:    CodeInvalidCredentials,
	Message: "Invalid email or password",
}

// AuthService handles candidate registration, login and password reset
type AuthService struct {
	users      database.UserStore
	jwtService *jwt.Service
	notifier   notify.Notifier
	templates  *notify.Templates
	audit      *AuditService
	limiter    *RateLimitService
	bcryptCost int
	logger     *logrus.Logger
	now        func() time.Time

	// compared against on unknown emails so both login failures cost one bcrypt
	dummyHash []byte
}

// NewAuthService creates a new auth service
func NewAuthService(
	users database.UserStore,
	jwtService *jwt.Service,
	notifier notify.Notifier,
	templates *notify.Templates,
	audit *AuditService,
	limiter *RateLimitService,
	bcryptCost int,
	logger *logrus.Logger,
) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	dummyHash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcryptCost)
	if err != nil {
		logger.WithError(err).Warn("Failed to prepare dummy password hash")
	}
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		notifier:   notifier,
		templates:  templates,
		audit:      audit,
		limiter:    limiter,
		bcryptCost: bcryptCost,
		dummyHash:  dummyHash,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates an account and returns a token for it. Field presence,
// email syntax and password length are checked by the request bindings.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, meta RequestMeta) (*models.AuthResult, error) {
	fullName := utils.SanitizeText(req.FullName)
	if fullName == "" {
		return nil, validationError(CodeMissingField, "Missing required field: fullName")
	}
	email := validator.NormalizeEmail(req.Email)
	if err := validator.CheckPasswordBytes(req.Password); err != nil {
		return nil, validationError(CodeWeakPassword, "%s", capitalize(err.Error()))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:            uuid.New().String(),
		FullName:      fullName,
		Email:         email,
		PasswordHash:  string(hash),
		PaymentStatus: models.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, conflictError(CodeEmailExists, "Email already registered")
		}
		return nil, err
	}

	token, err := s.jwtService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.audit.LogAuthEvent(ctx, user.ID, ActionRegister, user.Email, meta, nil)
	s.logger.WithField("user_id", user.ID).Info("User registered")

	return &models.AuthResult{UserID: user.ID, Token: token, FullName: user.FullName}, nil
}

// Login verifies credentials. Unknown email and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, meta RequestMeta) (*models.AuthResult, error) {
	email := validator.NormalizeEmail(req.Email)

	if err := s.limiter.Check(ctx, ScopeLogin, meta.IPAddress, email); err != nil {
		s.auditRateLimit(ctx, ScopeLogin, email, err, meta)
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
			s.audit.LogAuthEvent(ctx, "", ActionLoginFailed, email, meta, map[string]interface{}{"reason": "unknown_email"})
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.audit.LogAuthEvent(ctx, user.ID, ActionLoginFailed, email, meta, map[string]interface{}{"reason": "wrong_password"})
		return nil, errInvalidCredentials
	}

	token, err := s.jwtService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.limiter.Reset(ctx, ScopeLogin, meta.IPAddress, email)
	s.audit.LogAuthEvent(ctx, user.ID, ActionLoginSuccess, email, meta, nil)

	return &models.AuthResult{UserID: user.ID, Token: token, FullName: user.FullName}, nil
}

// CurrentUser returns the profile of the authenticated user
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFoundError(CodeUserNotFound, "User not found")
		}
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// GetStatus returns the payment summary of userID to its owner
func (s *AuthService) GetStatus(ctx context.Context, callerID, userID string) (*models.UserStatus, error) {
	if callerID != userID {
		return nil, forbiddenError("You can only view your own status")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFoundError(CodeUserNotFound, "User not found")
		}
		return nil, err
	}
	return &models.UserStatus{
		FullName:      user.FullName,
		PaymentStatus: user.PaymentStatus,
		IHCCode:       user.IHCCode,
	}, nil
}

// RequestPasswordReset emails a reset link when the account exists.
// The outcome is not revealed to the caller.
func (s *AuthService) RequestPasswordReset(ctx context.Context, req models.ForgotPasswordRequest, meta RequestMeta) error {
	email := validator.NormalizeEmail(req.Email)

	if err := s.limiter.Check(ctx, ScopePasswordReset, meta.IPAddress, email); err != nil {
		s.auditRateLimit(ctx, ScopePasswordReset, email, err, meta)
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.logger.WithField("email", email).Debug("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := utils.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	if err := s.users.SetResetToken(ctx, user.ID, token, s.now().Add(ResetTokenTTL).UTC()); err != nil {
		return err
	}

	s.audit.LogAuthEvent(ctx, user.ID, ActionPasswordResetRequest, email, meta, nil)

	msg := s.templates.PasswordReset(user.FullName, user.Email, token, ResetTokenTTL)
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.WithField("user_id", user.ID).WithError(err).Error("Failed to queue password reset email")
	}
	return nil
}

// ResetPassword redeems a reset token
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest, meta RequestMeta) error {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return validationError(CodeInvalidResetToken, "Invalid or expired reset token")
	}
	if err := validator.CheckPasswordBytes(req.NewPassword); err != nil {
		return validationError(CodeWeakPassword, "%s", capitalize(err.Error()))
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return validationError(CodeInvalidResetToken, "Invalid or expired reset token")
		}
		return err
	}
	if !user.ResetTokenValid(token, s.now()) {
		return validationError(CodeInvalidResetToken, "Invalid or expired reset token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	s.audit.LogAuthEvent(ctx, user.ID, ActionPasswordReset, user.Email, meta, nil)
	return nil
}

func (s *AuthService) auditRateLimit(ctx context.Context, scope, email string, err error, meta RequestMeta) {
	if svcErr, ok := AsError(err); ok {
		s.audit.LogRateLimitViolation(ctx, scope, email, svcErr.RetryAfter, meta)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
