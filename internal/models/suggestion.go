package models

import (
	"time"

	"github.com/google/uuid"
)

// Suggestion approval states.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Suggestion is a confidence-scored AI categorization recommendation for a
// single transaction. At most one suggestion exists per transaction, enforced
// by a unique constraint on transaction_id. The suggestion carries no user id
// of its own; ownership is resolved through the transaction.
type Suggestion struct {
	ID            uuid.UUID `json:"id" db:"id"`
	TransactionID uuid.UUID `json:"transactionId" db:"transaction_id"`
	CategoryID    uuid.UUID `json:"categoryId" db:"category_id"`
	Confidence    float64   `json:"confidence" db:"confidence"`
	Approval      string    `json:"approval" db:"approval"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}
