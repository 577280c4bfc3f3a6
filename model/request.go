// file: model/request.go

package model

import "github.com/shopspring/decimal"

// RegisterRequest defines the payload for creating a new user.
// It includes validation tags to ensure data integrity at the entry point.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateUserRoleRequest defines the payload for updating a user's role.
type UpdateUserRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=admin user"`
}

// CreateAccountRequest defines the payload for opening a bank account.
// The PIN is hashed before it is stored; it never leaves the service layer.
type CreateAccountRequest struct {
	AccountName string `json:"account_name" validate:"required,min=2,max=100"`
	PIN         string `json:"pin" validate:"required,numeric,len=4"`
}

// UpdateAccountRequest defines the admin payload for renaming an account.
type UpdateAccountRequest struct {
	AccountName string `json:"account_name" validate:"required,min=2,max=100"`
}

// DepositRequest defines the payload for crediting an account.
type DepositRequest struct {
	AccountNumber int64           `json:"account_number" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
}

// WithdrawRequest defines the payload for debiting an account. The PIN is
// verified against the stored hash before any balance change.
type WithdrawRequest struct {
	AccountNumber int64           `json:"account_number" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	PIN           string          `json:"pin" validate:"required,numeric,len=4"`
}

// ForgotPinRequest starts the OTP-based PIN reset flow.
type ForgotPinRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPinRequest completes the OTP-based PIN reset flow.
type ResetPinRequest struct {
	Email  string `json:"email" validate:"required,email"`
	OTP    string `json:"otp" validate:"required,numeric,len=6"`
	NewPIN string `json:"new_pin" validate:"required,numeric,len=4"`
}

// CreateTransactionRequest is the admin payload for recording a manual
// transaction. It does not touch any balance.
type CreateTransactionRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Type          TransactionType `json:"type" validate:"required,oneof=deposit withdrawal"`
	UserID        int             `json:"user_id" validate:"required"`
	FromAccountID *int            `json:"from_account_id,omitempty"`
	ToAccountID   *int            `json:"to_account_id,omitempty"`
}

// UpdateTransactionRequest is the admin payload for correcting a transaction.
type UpdateTransactionRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Type   TransactionType `json:"type" validate:"required,oneof=deposit withdrawal"`
}
