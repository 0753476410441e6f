package models

import (
	"time"

	"github.com/google/uuid"
)

// Account kinds supported by the tracker.
const (
	AccountKindChecking   = "checking"
	AccountKindSavings    = "savings"
	AccountKindCredit     = "credit"
	AccountKindCash       = "cash"
	AccountKindInvestment = "investment"
)

// Account represents a bank account owned by a user. Accounts are never
// hard-deleted; a soft-deleted account disappears from active listings but
// transactions referencing it stay valid.
type Account struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"userId" db:"user_id"`
	Name      string     `json:"name" db:"name"`
	Kind      string     `json:"kind" db:"kind"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}
