package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction kinds.
const (
	TransactionKindExpense = "expense"
	TransactionKindIncome  = "income"
)

// MaxTransactionAmount bounds the amount field, in minor currency units.
const MaxTransactionAmount = 100_000_000

// Transaction represents an income or expense movement on an account.
// Amount is a non-negative count of minor currency units.
type Transaction struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"userId" db:"user_id"`
	AccountID   uuid.UUID  `json:"accountId" db:"account_id"`
	CategoryID  *uuid.UUID `json:"categoryId,omitempty" db:"category_id"`
	Amount      int64      `json:"amount" db:"amount"`
	Kind        string     `json:"kind" db:"kind"`
	Description string     `json:"description" db:"description"`
	OccurredAt  time.Time  `json:"occurredAt" db:"occurred_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// TransactionView is a transaction joined with its category and pending
// suggestion state. This is the shape the single-transaction endpoint returns
// and what the suggestion poller inspects.
type TransactionView struct {
	Transaction
	CategoryName          *string  `json:"categoryName,omitempty"`
	SuggestedCategoryName *string  `json:"suggestedCategoryName,omitempty"`
	SuggestionConfidence  *float64 `json:"suggestionConfidence,omitempty"`
	SuggestionApproval    *string  `json:"suggestionApproval,omitempty"`
}
