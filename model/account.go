package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID                       int             `json:"id"`
	UserID                   int             `json:"user_id"`
	AccountName              string          `json:"account_name"`
	AccountNumber            int64           `json:"account_number"`
	Balance                  decimal.Decimal `json:"balance"`
	PIN                      string          `json:"-"`
	FailedWithdrawalAttempts int             `json:"-"`
	WithdrawalLockedUntil    *time.Time      `json:"withdrawal_locked_until,omitempty"`
	ResetPinOTP              *string         `json:"-"`
	PinOTPExpiresAt          *time.Time      `json:"-"`
	Version                  int             `json:"-"`
	CreatedAt                time.Time       `json:"created_at"`
}
