package profile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/validation"
	"github.com/fastygo/planner/repository"
	"github.com/fastygo/planner/usecase"
)

// UpdateInput holds the editable profile fields; nil pointers leave a field unchanged.
type UpdateInput struct {
	Name        *string           `json:"name" validate:"omitempty,notblank"`
	Avatar      *string           `json:"avatar"`
	Institution *string           `json:"institution"`
	Program     *string           `json:"academicProgram"`
	Interests   []string          `json:"academicInterests"`
	Metadata    map[string]string `json:"metadata"`
}

type UseCase struct {
	users     repository.UserRepository
	buffer    usecase.OperationBuffer
	validator *validation.Validator
	logger    *zap.Logger
}

func New(users repository.UserRepository, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:     users,
		buffer:    buffer,
		validator: validation.New(),
		logger:    logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

// UpdateProfile merges in into the stored user. Email and role are not editable here.
func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, in UpdateInput) (*domain.User, error) {
	if err := uc.validator.Struct(&in); err != nil {
		return nil, err
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}
	if in.Institution != nil {
		user.Institution = *in.Institution
	}
	if in.Program != nil {
		user.Program = *in.Program
	}
	if in.Interests != nil {
		user.Interests = in.Interests
	}
	if in.Metadata != nil {
		if user.Metadata == nil {
			user.Metadata = make(map[string]string, len(in.Metadata))
		}
		for k, v := range in.Metadata {
			user.Metadata[k] = v
		}
	}

	if err := uc.users.Upsert(ctx, user); err != nil {
		if uc.buffer != nil && !isDomain(err) {
			if bufErr := uc.buffer.BufferProfile(ctx, usecase.OperationUpdate, user); bufErr != nil {
				uc.logger.Error("failed to buffer profile update", zap.Error(bufErr))
				return nil, err
			}
			uc.logger.Warn("profile update buffered due to repository error", zap.Error(err))
			return user, nil
		}
		return nil, err
	}
	return user, nil
}

func isDomain(err error) bool {
	for _, code := range []domain.ErrorCode{domain.ErrCodeInvalid, domain.ErrCodeConflict, domain.ErrCodeNotFound} {
		if domain.IsDomainError(err, code) {
			return true
		}
	}
	return false
}
