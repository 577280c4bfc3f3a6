// repository/account_repository_test.go
package repository

import (
	"database/sql"
	"optimal-bank-api/model"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var accountRows = []string{"id", "user_id", "account_name", "account_number", "balance", "pin",
	"failed_withdrawal_attempts", "withdrawal_locked_until", "reset_pin_otp", "pin_otp_expires_at",
	"version", "created_at"}

func TestAccountRepository_GetLastAccountNumber(t *testing.T) {
	db, dbMock := newRepoTestDB(t)
	repo := NewAccountRepository(db)

	dbMock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(1000000041)))

	lastNumber, err := repo.GetLastAccountNumber()

	assert.NoError(t, err)
	assert.Equal(t, int64(1000000041), lastNumber)
}

func TestAccountRepository_GetAccountByEmail(t *testing.T) {
	db, dbMock := newRepoTestDB(t)
	repo := NewAccountRepository(db)

	otpExpiry := time.Now().Add(10 * time.Minute)
	dbMock.ExpectQuery("SELECT (.+) FROM accounts a JOIN users u").
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(accountRows).
			AddRow(7, 1, "Alice Savings", int64(1000000042), "500.00", "hashed-pin",
				0, nil, "123456", otpExpiry,
				3, time.Now()))

	account, err := repo.GetAccountByEmail("alice@example.com")

	assert.NoError(t, err)
	assert.Equal(t, int64(1000000042), account.AccountNumber)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(500)))
	assert.NotNil(t, account.ResetPinOTP)
	assert.Equal(t, "123456", *account.ResetPinOTP)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestAccountRepository_UpdateBalance(t *testing.T) {
	t.Run("versioned update inside the caller's transaction", func(t *testing.T) {
		db, dbMock := newRepoTestDB(t)
		repo := NewAccountRepository(db)

		dbMock.ExpectBegin()
		dbMock.ExpectExec("UPDATE accounts SET balance").
			WithArgs(decimal.NewFromInt(400), 7, 3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectCommit()

		tx, err := db.Begin()
		assert.NoError(t, err)

		err = repo.UpdateBalance(tx, 7, decimal.NewFromInt(400), 3)
		assert.NoError(t, err)
		assert.NoError(t, tx.Commit())
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		db, dbMock := newRepoTestDB(t)
		repo := NewAccountRepository(db)

		dbMock.ExpectBegin()
		dbMock.ExpectExec("UPDATE accounts SET balance").
			WillReturnResult(sqlmock.NewResult(0, 0))
		dbMock.ExpectRollback()

		tx, err := db.Begin()
		assert.NoError(t, err)

		err = repo.UpdateBalance(tx, 7, decimal.NewFromInt(400), 2)
		assert.ErrorIs(t, err, ErrVersionConflict)
		assert.NoError(t, tx.Rollback())
	})
}

func TestAccountRepository_ResetPIN(t *testing.T) {
	t.Run("clears the otp slot on success", func(t *testing.T) {
		db, dbMock := newRepoTestDB(t)
		repo := NewAccountRepository(db)

		otp := "123456"
		expiry := time.Now().Add(time.Minute)
		account := &model.Account{ID: 7, Version: 3, ResetPinOTP: &otp, PinOTPExpiresAt: &expiry}

		dbMock.ExpectExec("UPDATE accounts").
			WithArgs("new-hash", 7, 3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ResetPIN(account, "new-hash")

		assert.NoError(t, err)
		assert.Equal(t, "new-hash", account.PIN)
		assert.Nil(t, account.ResetPinOTP)
		assert.Nil(t, account.PinOTPExpiresAt)
		assert.Equal(t, 4, account.Version)
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		db, dbMock := newRepoTestDB(t)
		repo := NewAccountRepository(db)

		otp := "123456"
		account := &model.Account{ID: 7, Version: 2, ResetPinOTP: &otp}

		dbMock.ExpectExec("UPDATE accounts").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.ResetPIN(account, "new-hash")

		assert.ErrorIs(t, err, ErrVersionConflict)
		assert.NotNil(t, account.ResetPinOTP)
	})
}

func TestAccountRepository_DeleteAccount(t *testing.T) {
	db, dbMock := newRepoTestDB(t)
	repo := NewAccountRepository(db)

	t.Run("missing account maps to no rows", func(t *testing.T) {
		dbMock.ExpectExec("DELETE FROM accounts").
			WithArgs(int64(4040404040)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteAccount(4040404040)

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}
