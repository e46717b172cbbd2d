package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/validation"
	"github.com/fastygo/planner/repository"
)

const (
	mockAdminName   = "Dr. Roberto Martínez"
	mockStudentName = "María González"
	adminAvatar     = "/admin-avatar.png"
	studentAvatar   = "/student-maria.png"
)

// RegisterInput is the sign-up form. Identity stays simulated: passwords are
// checked for presence and confirmation, never stored.
type RegisterInput struct {
	FullName          string          `json:"fullName" validate:"notblank"`
	Email             string          `json:"email" validate:"required,email"`
	Password          string          `json:"password" validate:"required"`
	ConfirmPassword   string          `json:"confirmPassword" validate:"eqfield=Password"`
	UserType          domain.UserType `json:"userType" validate:"oneof=student admin"`
	Institution       string          `json:"institution"`
	StudentID         string          `json:"studentId" validate:"required_if=UserType student"`
	AcademicProgram   string          `json:"academicProgram" validate:"required_if=UserType student"`
	AcademicInterests []string        `json:"academicInterests"`
}

type LoginInput struct {
	Email    string          `json:"email" validate:"required,containsany=abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"`
	Password string          `json:"password" validate:"required"`
	UserType domain.UserType `json:"userType" validate:"oneof=student admin"`
}

// Result is returned by every operation that issues a token.
type Result struct {
	User        *domain.User    `json:"user"`
	Session     *domain.Session `json:"session"`
	AccessToken string          `json:"accessToken"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

// Onboarder prepares a first-time user's planner.
type Onboarder interface {
	SeedDemo(ctx context.Context, ownerID string) (int, error)
}

type UseCase struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	tokens    *Tokens
	validator *validation.Validator
	onboarder Onboarder
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, tokens *Tokens, ttl time.Duration, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &UseCase{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		validator: validation.New(),
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
	}
}

// WithOnboarder seeds demo tasks for users created through register or first login.
func (uc *UseCase) WithOnboarder(o Onboarder) *UseCase {
	uc.onboarder = o
	return uc
}

func (uc *UseCase) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.UserType == "" {
		in.UserType = domain.UserTypeStudent
	}
	if err := uc.validator.Struct(&in); err != nil {
		return nil, err
	}

	if _, err := uc.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	user := &domain.User{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.FullName),
		Email:       in.Email,
		UserType:    in.UserType,
		Avatar:      studentAvatar,
		Institution: in.Institution,
		Program:     in.AcademicProgram,
		Interests:   in.AcademicInterests,
	}
	if in.StudentID != "" {
		user.Metadata = map[string]string{"studentId": in.StudentID}
	}
	if err := uc.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	uc.onboard(ctx, user.ID)
	uc.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("user_type", string(user.UserType)))
	return uc.issue(ctx, user)
}

// Login accepts any credentials. Unknown emails get the platform's sample
// profile for the chosen role.
func (uc *UseCase) Login(ctx context.Context, in LoginInput) (*Result, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.UserType == "" {
		in.UserType = domain.UserTypeStudent
	}
	if err := uc.validator.Struct(&in); err != nil {
		return nil, err
	}

	user, err := uc.users.GetByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		user = mockUser(in)
		if err := uc.users.Upsert(ctx, user); err != nil {
			return nil, err
		}
		uc.onboard(ctx, user.ID)
	case err != nil:
		return nil, err
	}
	return uc.issue(ctx, user)
}

// Refresh extends the session and issues a fresh token for it.
func (uc *UseCase) Refresh(ctx context.Context, sessionID string) (*Result, error) {
	session, err := uc.activeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, sessionID, int(uc.ttl.Seconds())); err != nil {
		return nil, err
	}
	user, err := uc.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	session.ExpiresAt = now.Add(uc.ttl)
	token, err := uc.tokens.Issue(user.ID, session.ID, now, session.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &Result{User: user, Session: session, AccessToken: token, ExpiresAt: session.ExpiresAt}, nil
}

func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

// Authenticate verifies a bearer token and that its session is still live.
func (uc *UseCase) Authenticate(ctx context.Context, rawToken string) (userID, sessionID string, err error) {
	claims, err := uc.tokens.Parse(rawToken)
	if err != nil {
		return "", "", err
	}
	session, err := uc.activeSession(ctx, claims.SessionID)
	if err != nil {
		return "", "", err
	}
	if session.UserID != claims.UserID {
		return "", "", domain.ErrUnauthorized
	}
	return claims.UserID, claims.SessionID, nil
}

func (uc *UseCase) activeSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "session revoked or expired", err)
	}
	if err != nil {
		return nil, err
	}
	if session.IsExpired(uc.now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "session revoked or expired", domain.ErrSessionNotFound)
	}
	return session, nil
}

func (uc *UseCase) issue(ctx context.Context, user *domain.User) (*Result, error) {
	now := uc.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.ttl),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	token, err := uc.tokens.Issue(user.ID, session.ID, now, session.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &Result{User: user, Session: session, AccessToken: token, ExpiresAt: session.ExpiresAt}, nil
}

func (uc *UseCase) onboard(ctx context.Context, userID string) {
	if uc.onboarder == nil {
		return
	}
	if n, err := uc.onboarder.SeedDemo(ctx, userID); err != nil {
		uc.logger.Warn("demo seed failed", zap.String("user_id", userID), zap.Error(err))
	} else if n > 0 {
		uc.logger.Info("demo tasks seeded", zap.String("user_id", userID), zap.Int("count", n))
	}
}

func mockUser(in LoginInput) *domain.User {
	user := &domain.User{
		ID:       uuid.NewString(),
		Name:     mockStudentName,
		Email:    in.Email,
		UserType: in.UserType,
		Avatar:   studentAvatar,
	}
	if in.UserType == domain.UserTypeAdmin {
		user.Name = mockAdminName
		user.Avatar = adminAvatar
	}
	return user
}
