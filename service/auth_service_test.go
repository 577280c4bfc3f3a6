// file: service/auth_service_test.go

package service

import (
	"testing"
)

// TestAuthService_HashAndVerifyCredential ensures that credential hashing and
// verification work for both passwords and PINs, which share the same scheme.
func TestAuthService_HashAndVerifyCredential(t *testing.T) {
	authService := NewAuthService()
	secret := "mySecretPassword123"

	hashed, err := authService.HashCredential(secret)
	if err != nil {
		t.Fatalf("authService.HashCredential() returned an unexpected error: %v", err)
	}

	if hashed == secret {
		t.Errorf("Hashed credential should not be the same as the original secret.")
	}

	if !authService.VerifyCredential(secret, hashed) {
		t.Errorf("authService.VerifyCredential() should have returned true for a matching secret, but got false.")
	}

	if authService.VerifyCredential("notMySecret", hashed) {
		t.Errorf("authService.VerifyCredential() should have returned false for a non-matching secret, but got true.")
	}
}
