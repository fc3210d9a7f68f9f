package user

import (
	"context"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	PasswordHash      string    `json:"-"`
	Address1          string    `json:"address1"`
	City              string    `json:"city"`
	State             string    `json:"state"`
	PostalCode        string    `json:"postalCode"`
	DateOfBirth       string    `json:"dateOfBirth"`
	DwollaCustomerID  string    `json:"-"`
	DwollaCustomerURL string    `json:"-"`
	DeviceToken       *string   `json:"-"` // push notification token, nullable
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Name returns the user's display name.
func (u *User) Name() string {
	return u.FirstName + " " + u.LastName
}

type CreateUserParams struct {
	Email             string
	FirstName         string
	LastName          string
	PasswordHash      string
	Address1          string
	City              string
	State             string
	PostalCode        string
	DateOfBirth       string
	DwollaCustomerID  string
	DwollaCustomerURL string
}

// Repository defines the interface for user data access
type Repository interface {
	Create(ctx context.Context, params CreateUserParams) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UpdateDeviceToken(ctx context.Context, userID string, token *string) error
	ClearDeviceToken(ctx context.Context, token string) error
}
