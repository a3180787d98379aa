package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"accounts-api/internal/entities"
)

var (
	// ErrNotFound is returned when no user matches the given id/email/token.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when the unique email index rejects a write.
	ErrDuplicateEmail = errors.New("email already in use")
)

// UserChanges describes a partial update. Nil fields are left untouched.
// PasswordHash, when set, must already be hashed by the caller.
type UserChanges struct {
	Name         *string
	Email        *string
	PasswordHash *string
	BirthAt      *time.Time
	Role         *entities.Role
}

// UserRepository defines the interface for user database operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) (*entities.User, error)
	FindByID(ctx context.Context, id int64) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	FindAll(ctx context.Context) ([]*entities.User, error)
	Update(ctx context.Context, id int64, user *entities.User) (*entities.User, error)
	UpdatePartial(ctx context.Context, id int64, changes UserChanges) (*entities.User, error)
	Delete(ctx context.Context, id int64) error
	ExistsByID(ctx context.Context, id int64) (bool, error)
	SetResetToken(ctx context.Context, id int64, token string, expiresAt time.Time) error
	FindByResetToken(ctx context.Context, token string) (*entities.User, error)
	ClearResetToken(ctx context.Context, id int64) error
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = "id, name, email, password, birth_at, role, created_at, updated_at"

func scanUser(row *sql.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.BirthAt,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// translateError maps unique-violation errors from the email index to
// ErrDuplicateEmail; everything else propagates unchanged.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *entities.User) (*entities.User, error) {
	query := `
		INSERT INTO users (name, email, password, birth_at, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.BirthAt, user.Role)

	created, err := scanUser(row)
	if err != nil {
		return nil, translateError(err)
	}
	return created, nil
}

// FindByID finds a user by ID
func (r *userRepository) FindByID(ctx context.Context, id int64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// FindByEmail finds a user by email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// FindAll returns all users ordered by id
func (r *userRepository) FindAll(ctx context.Context) ([]*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		var user entities.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.BirthAt,
			&user.Role,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// Update replaces every mutable field of a user
func (r *userRepository) Update(ctx context.Context, id int64, user *entities.User) (*entities.User, error) {
	query := `
		UPDATE users
		SET name = $1, email = $2, password = $3, birth_at = $4, role = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.BirthAt, user.Role, id)

	updated, err := scanUser(row)
	if err != nil {
		return nil, translateError(err)
	}
	return updated, nil
}

// UpdatePartial updates only the supplied fields, building the SET list
// from non-nil changes.
func (r *userRepository) UpdatePartial(ctx context.Context, id int64, changes UserChanges) (*entities.User, error) {
	set := []string{}
	args := []interface{}{}

	addSet := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if changes.Name != nil {
		addSet("name", *changes.Name)
	}
	if changes.Email != nil {
		addSet("email", *changes.Email)
	}
	if changes.PasswordHash != nil {
		addSet("password", *changes.PasswordHash)
	}
	if changes.BirthAt != nil {
		addSet("birth_at", *changes.BirthAt)
	}
	if changes.Role != nil {
		addSet("role", *changes.Role)
	}

	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	set = append(set, "updated_at = NOW()")
	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args), userColumns,
	)

	updated, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, translateError(err)
	}
	return updated, nil
}

// Delete removes a user by id
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByID reports whether a user with the given id exists
func (r *userRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE id = $1`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

// SetResetToken stores a single-use password-reset token against a user
func (r *userRepository) SetResetToken(ctx context.Context, id int64, token string, expiresAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET reset_token = $1, reset_token_expires_at = $2, updated_at = NOW()
		WHERE id = $3
	`, token, expiresAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByResetToken resolves an unexpired reset token to its user. Expiry is
// enforced in SQL so an expired token behaves exactly like an unknown one.
func (r *userRepository) FindByResetToken(ctx context.Context, token string) (*entities.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE reset_token = $1
		AND reset_token_expires_at > NOW()
	`
	return scanUser(r.db.QueryRowContext(ctx, query, token))
}

// ClearResetToken consumes a reset token so it cannot be used twice
func (r *userRepository) ClearResetToken(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET reset_token = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to clear reset token: %w", err)
	}
	return nil
}
