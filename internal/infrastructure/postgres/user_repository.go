package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"horizon/internal/domain/user"
)

const userColumns = `id, email, first_name, last_name, password_hash, address1, city, state,
		postal_code, date_of_birth, dwolla_customer_id, dwolla_customer_url, device_token,
		created_at, updated_at`

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, params user.CreateUserParams) (*user.User, error) {
	query := `
		INSERT INTO users (id, email, first_name, last_name, password_hash, address1, city, state,
			postal_code, date_of_birth, dwolla_customer_id, dwolla_customer_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), params.Email, params.FirstName, params.LastName, params.PasswordHash,
		params.Address1, params.City, params.State, params.PostalCode, params.DateOfBirth,
		params.DwollaCustomerID, params.DwollaCustomerURL,
	)

	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (r *UserRepository) UpdateDeviceToken(ctx context.Context, userID string, token *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET device_token = $1, updated_at = NOW() WHERE id = $2`, token, userID)
	if err != nil {
		return fmt.Errorf("failed to update device token: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// ClearDeviceToken drops a token wherever it is stored. Used when FCM
// reports the token as unregistered.
func (r *UserRepository) ClearDeviceToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET device_token = NULL, updated_at = NOW() WHERE device_token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to clear device token: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*user.User, error) {
	var u user.User
	var deviceToken sql.NullString
	err := row.Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.Address1, &u.City, &u.State, &u.PostalCode, &u.DateOfBirth,
		&u.DwollaCustomerID, &u.DwollaCustomerURL, &deviceToken,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if deviceToken.Valid {
		u.DeviceToken = &deviceToken.String
	}
	return &u, nil
}
