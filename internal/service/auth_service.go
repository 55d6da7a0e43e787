package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"complaint-service/internal/apperr"
	"complaint-service/internal/logger"
	"complaint-service/internal/mailer"
	"complaint-service/internal/model"
	"complaint-service/internal/validate"
)

type AuthService struct {
	users     UserStore
	tokens    *TokenService
	mail      mailer.Mailer
	otpLength int
	otpTTL    time.Duration
	now       func() time.Time
}

func NewAuthService(users UserStore, tokens *TokenService, mail mailer.Mailer, otpLength int, otpTTL time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		mail:      mail,
		otpLength: otpLength,
		otpTTL:    otpTTL,
		now:       time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Unexpected("failed to hash password", err)
	}
	return string(hashed), nil
}

// generateOTP returns a uniformly random numeric code of the given length.
func generateOTP(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// ensureUnique fails with Conflict when username or email belongs to a user other than self.
func ensureUnique(ctx context.Context, users UserStore, username, email string, self uuid.UUID) error {
	if username != "" {
		existing, err := users.FindByUsername(ctx, username)
		if err != nil && !isNotFound(err) {
			return apperr.Unexpected("database error", err)
		}
		if existing != nil && existing.ID != self {
			return apperr.Conflict("username already taken")
		}
	}
	if email != "" {
		existing, err := users.FindByEmail(ctx, email)
		if err != nil && !isNotFound(err) {
			return apperr.Unexpected("database error", err)
		}
		if existing != nil && existing.ID != self {
			return apperr.Conflict("email already registered")
		}
	}
	return nil
}

// Register creates an unverified user account and emails the verification code.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	if err := ensureUnique(ctx, s.users, req.Username, req.Email, uuid.Nil); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	code, err := s.issueOTP(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, userConflict(err)
		}
		return nil, apperr.Unexpected("failed to create user", err)
	}

	s.sendOTP(ctx, user, "email verification", code)
	return user, nil
}

func (s *AuthService) issueOTP(user *model.User) (string, error) {
	code, err := generateOTP(s.otpLength)
	if err != nil {
		return "", apperr.Unexpected("failed to generate code", err)
	}
	expiry := s.now().Add(s.otpTTL)
	user.OTP = &code
	user.OTPExpiry = &expiry
	return code, nil
}

func clearOTP(user *model.User) {
	user.OTP = nil
	user.OTPExpiry = nil
}

// sendOTP is best-effort; the caller can always request a new code.
func (s *AuthService) sendOTP(ctx context.Context, user *model.User, purpose, code string) {
	msg, err := mailer.OTP(user.Email, mailer.OTPData{
		Name:    user.Username,
		Purpose: purpose,
		Code:    code,
		Minutes: int(s.otpTTL / time.Minute),
	})
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		logger.Warn("Failed to send OTP email",
			zap.String("user_id", user.ID.String()),
			zap.String("purpose", purpose),
			zap.Error(err),
		)
	}
}

func (s *AuthService) checkOTP(user *model.User, code string) error {
	if user.OTP == nil || user.OTPExpiry == nil {
		return apperr.Validation("no pending code, request a new one")
	}
	if subtle.ConstantTimeCompare([]byte(*user.OTP), []byte(strings.TrimSpace(code))) != 1 {
		return apperr.Validation("invalid code")
	}
	if s.now().After(*user.OTPExpiry) {
		return apperr.Validation("code has expired, request a new one")
	}
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, req *model.VerifyEmailRequest) (*model.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	if user.IsVerified {
		return user, nil
	}
	if err := s.checkOTP(user, req.OTP); err != nil {
		return nil, err
	}

	user.IsVerified = true
	clearOTP(user)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperr.Unexpected("failed to verify user", err)
	}
	return user, nil
}

func (s *AuthService) ResendOTP(ctx context.Context, req *model.EmailRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return notFoundOr(err, "user not found")
	}
	if user.IsVerified {
		return apperr.Validation("email already verified")
	}

	code, err := s.issueOTP(user)
	if err != nil {
		return err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Unexpected("failed to store code", err)
	}

	s.sendOTP(ctx, user, "email verification", code)
	return nil
}

// Login accepts an email address or a username as identifier.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var user *model.User
	var err error
	if strings.Contains(req.Identifier, "@") {
		user, err = s.users.FindByEmail(ctx, normalizeEmail(req.Identifier))
	} else {
		user, err = s.users.FindByUsername(ctx, req.Identifier)
	}
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.Unauthenticated("invalid credentials")
		}
		return nil, apperr.Unexpected("database error", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthenticated("invalid credentials")
	}
	if !user.IsVerified {
		return nil, apperr.Authorization("please verify your email before logging in")
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperr.Unexpected("failed to issue token", err)
	}

	return &model.AuthResponse{Token: token, User: user}, nil
}

// ForgotPassword answers success for unknown addresses so account existence does not leak.
func (s *AuthService) ForgotPassword(ctx context.Context, req *model.EmailRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return apperr.Unexpected("database error", err)
	}

	code, err := s.issueOTP(user)
	if err != nil {
		return err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Unexpected("failed to store code", err)
	}

	s.sendOTP(ctx, user, "password reset", code)
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if isNotFound(err) {
			return apperr.Validation("invalid code")
		}
		return apperr.Unexpected("database error", err)
	}
	if err := s.checkOTP(user, req.OTP); err != nil {
		return err
	}

	hashed, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	clearOTP(user)
	// A successful reset proves ownership of the mailbox.
	user.IsVerified = true

	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Unexpected("failed to reset password", err)
	}
	return nil
}

// Authenticate resolves a bearer token to the current user record.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, _, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperr.Unauthenticated("invalid or expired token")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.Unauthenticated("user no longer exists")
		}
		return nil, apperr.Unexpected("database error", err)
	}
	return user, nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	return user, nil
}
