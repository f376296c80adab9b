package user

import "github.com/shopspring/decimal"

// CreateUserRequest represents the request payload for creating a new user.
// Values are stored as received.
type CreateUserRequest struct {
	Nombre  string
	Balance decimal.Decimal
}

// CreateUserResponse represents the response payload after creating a user.
type CreateUserResponse struct {
	ID int64
}

// UpdateUserRequest represents the request payload for updating an existing user.
// Balance is a pointer so a missing value can be told apart from zero.
type UpdateUserRequest struct {
	ID      int64            `validate:"required"`
	Nombre  string           `validate:"required"`
	Balance *decimal.Decimal `validate:"required"`
}

// UpdateUserResponse represents the response payload after updating a user.
type UpdateUserResponse struct {
	ID int64
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64
}

// DeleteUserResponse represents the response payload after deleting a user.
// Deleted is the number of rows removed, which may be zero.
type DeleteUserResponse struct {
	ID      int64
	Deleted int64
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID int64
}

// GetUserResponse represents the response payload for user details.
type GetUserResponse struct {
	ID      int64
	Nombre  string
	Balance decimal.Decimal
}

// ListUsersResponse represents the response payload for user listing.
type ListUsersResponse struct {
	Users []User
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID      int64
	Nombre  string
	Balance decimal.Decimal
}
