package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

const userColumns = `id, name, email, user_type, avatar, institution, program, interests, metadata, created_at, updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO users (id, name, email, user_type, avatar, institution, program, interests, metadata, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, NOW()), NOW())
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		email = EXCLUDED.email,
		user_type = EXCLUDED.user_type,
		avatar = EXCLUDED.avatar,
		institution = EXCLUDED.institution,
		program = EXCLUDED.program,
		interests = EXCLUDED.interests,
		metadata = EXCLUDED.metadata,
		updated_at = NOW()
	RETURNING created_at, updated_at;
	`

	var createdAt, updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		string(user.UserType),
		user.Avatar,
		user.Institution,
		user.Program,
		marshalJSON(user.Interests),
		marshalJSON(user.Metadata),
		nullTime(user.CreatedAt),
	).Scan(&createdAt, &updatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return err
	}

	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user      domain.User
		userType  string
		interests []byte
		metadata  []byte
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&userType,
		&user.Avatar,
		&user.Institution,
		&user.Program,
		&interests,
		&metadata,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	user.UserType = domain.UserType(userType)
	if len(interests) > 0 {
		_ = json.Unmarshal(interests, &user.Interests)
	}
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &user.Metadata)
	}
	return &user, nil
}
