package models

import (
	"time"

	"github.com/google/uuid"
)

// Category represents a transaction category. Names are unique per user under
// case-insensitive comparison; categories are created explicitly by the user
// or implicitly by the suggestion generator.
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
