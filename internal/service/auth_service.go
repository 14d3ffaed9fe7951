package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// AuthService coordinates signup and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	validate   *validator.Validate
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository, dispatcher events.Dispatcher) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL()),
		dispatcher: dispatcher,
		validate:   validator.New(),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

type signupInput struct {
	FullName string `validate:"required"`
	Email    string `validate:"required,email"`
	// bcrypt rejects inputs over 72 bytes, so the cap is a validation rule,
	// not a hashing failure
	Password string `validate:"required,min=6,max=72"`
	Role     string `validate:"required,oneof=Admin Regular"`
}

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Signup registers a new account and returns its id. Validation failures are
// collected per field before any hashing or storage work happens; duplicate
// emails surface as a conflict from the storage constraint.
func (s *AuthService) Signup(ctx context.Context, fullName, email, password, role string) (int64, error) {
	email = normalizeEmail(email)

	input := signupInput{FullName: strings.TrimSpace(fullName), Email: email, Password: password, Role: role}
	if err := s.validate.Struct(input); err != nil {
		return 0, validationError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return 0, err
	}

	account := &domain.Account{
		FullName:     input.FullName,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.Role(role),
	}
	if err := s.users.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return 0, apperrors.NewConflict("email already exists", map[string]any{"email": email})
		}
		return 0, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventAccountRegistered,
		AccountID: account.ID,
		Email:     account.Email,
		Payload:   events.AccountRegisteredPayload{Role: account.Role},
	})

	return account.ID, nil
}

// Login authenticates credentials and issues a session token. Unknown email
// and wrong password return the identical invalid-credentials outcome.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, time.Time, *domain.Account, error) {
	email = normalizeEmail(email)

	input := loginInput{Email: email, Password: password}
	if err := s.validate.Struct(input); err != nil {
		return "", time.Time{}, nil, validationError(err)
	}

	account, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.publishLoginFailed(ctx, email, events.LoginFailureUnknownEmail)
			return "", time.Time{}, nil, apperrors.NewInvalidCredentials()
		}
		return "", time.Time{}, nil, err
	}

	if !auth.VerifyPassword(account.PasswordHash, password) {
		s.publishLoginFailed(ctx, email, events.LoginFailureBadPassword)
		return "", time.Time{}, nil, apperrors.NewInvalidCredentials()
	}

	token, expiresAt, err := s.tokenMgr.Issue(account)
	if err != nil {
		return "", time.Time{}, nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventLoginSucceeded,
		AccountID: account.ID,
		Email:     account.Email,
	})

	return token, expiresAt, account, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *AuthService) publishLoginFailed(ctx context.Context, email, reason string) {
	s.publish(ctx, events.Event{
		Type:    events.EventLoginFailed,
		Email:   email,
		Payload: events.LoginFailedPayload{Reason: reason},
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validationError converts validator output into a single 400 response with
// one message per failed field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("invalid input", nil)
	}

	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fieldName(fe.StructField())] = fieldMessage(fe)
	}
	return apperrors.NewValidationError("validation failed", details)
}

func fieldName(structField string) string {
	switch structField {
	case "FullName":
		return "fullName"
	default:
		return strings.ToLower(structField)
	}
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldName(fe.StructField())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
