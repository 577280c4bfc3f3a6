package handler

import (
	"net/http"
	"optimal-bank-api/service"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMapServiceError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"user not found", service.ErrUserNotFound, http.StatusNotFound},
		{"account not found", service.ErrAccountNotFound, http.StatusNotFound},
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"permission denied", service.ErrPermissionDenied, http.StatusForbidden},
		{"version conflict", service.ErrConflict, http.StatusConflict},
		{"incorrect pin", service.ErrIncorrectPIN, http.StatusBadRequest},
		{"invalid otp", service.ErrInvalidOTP, http.StatusBadRequest},
		{"expired otp", service.ErrOTPExpired, http.StatusBadRequest},
		{"insufficient funds", service.ErrInsufficientFunds, http.StatusBadRequest},
		{"username taken", service.ErrUsernameTaken, http.StatusBadRequest},
		{"locked account", &service.LockedError{Until: time.Now().Add(time.Minute)}, http.StatusForbidden},
		{"unexpected error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			appErr := mapServiceError(tc.err, "something went wrong")
			assert.Equal(t, tc.wantCode, appErr.Code)
		})
	}
}
