package domain

import "github.com/google/uuid"

// User is the identity projection of an authenticated account.
// It is replaced wholesale on login/logout and never partially mutated.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"name"`
}
