package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chat-backend/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already exists")
	ErrPhoneTaken   = errors.New("phone number already exists")
)

// UserRepository abstracts account persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, userID int) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUsersByIDs(ctx context.Context, ids []int) ([]models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SearchUsers(ctx context.Context, query string, excludeID int) ([]models.User, error)
	UpdateProfile(ctx context.Context, userID int, update models.ProfileUpdate) (models.User, error)
	UpdateProfilePicture(ctx context.Context, userID int, url string) (models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `user_id, first_name, last_name, email, phone, password, profile_pic_url, theme, created_at`

// CreateUser inserts a user. Duplicate email or phone yields ErrEmailTaken or
// ErrPhoneTaken.
func (r *UserRepo) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	var created models.User
	err := r.db.QueryRowxContext(ctx, `INSERT INTO users (first_name, last_name, email, phone, password, profile_pic_url)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+userColumns,
		user.FirstName, user.LastName, user.Email, user.Phone, user.PasswordHash, user.ProfilePicURL).StructScan(&created)
	if err != nil {
		return models.User{}, mapUniqueViolation(err)
	}
	return created, nil
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetUserByEmail fetches a user by email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetUsersByIDs fetches the users that exist among ids.
func (r *UserRepo) GetUsersByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE user_id = ANY($1::int[]) ORDER BY user_id`, pq.Array(ids))
	return users, err
}

// ListUsers returns every user.
func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY user_id`)
	return users, err
}

// SearchUsers matches name or email substrings, excluding one user.
func (r *UserRepo) SearchUsers(ctx context.Context, query string, excludeID int) ([]models.User, error) {
	users := []models.User{}
	pattern := "%" + escapeLike(query) + "%"
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users
        WHERE user_id <> $2
          AND (first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1 OR (first_name || ' ' || last_name) ILIKE $1)
        ORDER BY first_name, last_name
        LIMIT 50`, pattern, excludeID)
	return users, err
}

// UpdateProfile applies the non-nil fields of update.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID int, update models.ProfileUpdate) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `UPDATE users SET
            first_name = COALESCE($2, first_name),
            last_name = COALESCE($3, last_name),
            phone = COALESCE($4, phone),
            theme = COALESCE($5, theme)
        WHERE user_id = $1
        RETURNING `+userColumns, userID, update.FirstName, update.LastName, update.Phone, update.Theme).StructScan(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, mapUniqueViolation(err)
	}
	return user, nil
}

// UpdateProfilePicture stores a new avatar reference.
func (r *UserRepo) UpdateProfilePicture(ctx context.Context, userID int, url string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `UPDATE users SET profile_pic_url = $2 WHERE user_id = $1 RETURNING `+userColumns, userID, url).StructScan(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	switch {
	case strings.Contains(pqErr.Constraint, "email"):
		return ErrEmailTaken
	case strings.Contains(pqErr.Constraint, "phone"):
		return ErrPhoneTaken
	}
	return err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(s))
}
