package handler

import (
	"errors"
	"fmt"
	"net/http"
	"optimal-bank-api/common"
	"optimal-bank-api/service"
	"time"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// mapServiceError translates the service layer's business errors into HTTP
// responses. Anything unrecognized becomes a 500 with the fallback message.
func mapServiceError(err error, fallback string) *common.AppError {
	var locked *service.LockedError
	if errors.As(err, &locked) {
		return common.NewAppError(http.StatusForbidden,
			fmt.Sprintf("%s (locked until %s)", locked.Error(), locked.Until.Format(time.RFC3339)), err)
	}

	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrTransactionNotFound):
		return common.NewAppError(http.StatusNotFound, err.Error(), err)
	case errors.Is(err, service.ErrInvalidCredentials):
		return common.NewAppError(http.StatusUnauthorized, err.Error(), err)
	case errors.Is(err, service.ErrPermissionDenied):
		return common.NewAppError(http.StatusForbidden, err.Error(), err)
	case errors.Is(err, service.ErrConflict):
		return common.NewAppError(http.StatusConflict, err.Error(), err)
	case errors.Is(err, service.ErrIncorrectPIN),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, service.ErrOTPExpired),
		errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrAccountExists):
		return common.NewAppError(http.StatusBadRequest, err.Error(), err)
	default:
		return common.NewAppError(http.StatusInternalServerError, fallback, err)
	}
}
