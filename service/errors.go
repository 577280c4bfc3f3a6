package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidCredentials  = errors.New("email or password is not correct")
	ErrIncorrectPIN        = errors.New("incorrect PIN")
	ErrInvalidOTP          = errors.New("invalid OTP")
	ErrOTPExpired          = errors.New("OTP has expired")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrEmailTaken          = errors.New("email already taken")
	ErrAccountExists       = errors.New("account already exists for this user")
	ErrPermissionDenied    = errors.New("you can only view your own account")
	ErrConflict            = errors.New("concurrent update, please retry")
)

// LockedError reports a temporary lockout and carries the time at which the
// operation becomes available again.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	minutes := int(time.Until(e.Until).Minutes()) + 1
	return fmt.Sprintf("temporarily locked, try again in %d minute(s)", minutes)
}
