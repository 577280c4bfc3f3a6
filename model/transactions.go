package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// Transaction is the immutable record of a money movement. Rows are only
// ever changed or removed through the explicit admin endpoints.
type Transaction struct {
	ID            int             `json:"id"`
	Reference     string          `json:"reference"`
	Amount        decimal.Decimal `json:"amount"`
	Type          TransactionType `json:"type"`
	UserID        int             `json:"user_id"`
	FromAccountID *int            `json:"from_account_id,omitempty"`
	ToAccountID   *int            `json:"to_account_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
