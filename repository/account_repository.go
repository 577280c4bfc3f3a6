package repository

import (
	"database/sql"
	"optimal-bank-api/logger"
	"optimal-bank-api/model"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// IAccountRepository defines the contract for account database operations.
type IAccountRepository interface {
	CreateAccount(account *model.Account) error
	GetLastAccountNumber() (int64, error)
	GetAccountByID(id int) (*model.Account, error)
	GetAccountByUserID(userID int) (*model.Account, error)
	GetAccountByNumber(accountNumber int64) (*model.Account, error)
	GetAccountByEmail(email string) (*model.Account, error)
	GetAllAccounts() ([]*model.Account, error)
	UpdateAccountName(accountNumber int64, accountName string) (*model.Account, error)
	DeleteAccount(accountNumber int64) error
	UpdateWithdrawalSecurity(account *model.Account) error
	UpdateBalance(tx *sql.Tx, accountID int, newBalance decimal.Decimal, version int) error
	SetResetOTP(account *model.Account, code string, expiresAt time.Time) error
	ResetPIN(account *model.Account, hashedPIN string) error
}

type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

const accountColumns = `id, user_id, account_name, account_number, balance, pin,
	failed_withdrawal_attempts, withdrawal_locked_until, reset_pin_otp, pin_otp_expires_at,
	version, created_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*model.Account, error) {
	acc := &model.Account{}
	var (
		lockedUntil sql.NullTime
		otp         sql.NullString
		otpExpires  sql.NullTime
	)

	err := row.Scan(&acc.ID, &acc.UserID, &acc.AccountName, &acc.AccountNumber, &acc.Balance, &acc.PIN,
		&acc.FailedWithdrawalAttempts, &lockedUntil, &otp, &otpExpires,
		&acc.Version, &acc.CreatedAt)
	if err != nil {
		return nil, err
	}

	if lockedUntil.Valid {
		acc.WithdrawalLockedUntil = &lockedUntil.Time
	}
	if otp.Valid {
		acc.ResetPinOTP = &otp.String
	}
	if otpExpires.Valid {
		acc.PinOTPExpiresAt = &otpExpires.Time
	}
	return acc, nil
}

// CreateAccount adds a new account to the database.
func (r *AccountRepository) CreateAccount(account *model.Account) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":        account.UserID,
		"account_number": account.AccountNumber,
	})
	log.Info("Executing query to create a new account")

	query := `INSERT INTO accounts (user_id, account_name, account_number, pin)
		VALUES ($1, $2, $3, $4)
		RETURNING id, balance, version, created_at`
	err := r.DB.QueryRow(query, account.UserID, account.AccountName, account.AccountNumber, account.PIN).
		Scan(&account.ID, &account.Balance, &account.Version, &account.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create account query")
		return err
	}
	return nil
}

// GetLastAccountNumber returns the highest issued account number, or zero
// when no account exists yet.
func (r *AccountRepository) GetLastAccountNumber() (int64, error) {
	var lastNumber int64
	query := `SELECT COALESCE(MAX(account_number), 1000000000) FROM accounts`
	if err := r.DB.QueryRow(query).Scan(&lastNumber); err != nil {
		logger.Log.WithError(err).Error("Failed to execute query for last account number")
		return 0, err
	}
	return lastNumber, nil
}

func (r *AccountRepository) GetAccountByID(id int) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.DB.QueryRow(query, id))
}

func (r *AccountRepository) GetAccountByUserID(userID int) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`
	return scanAccount(r.DB.QueryRow(query, userID))
}

func (r *AccountRepository) GetAccountByNumber(accountNumber int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return scanAccount(r.DB.QueryRow(query, accountNumber))
}

// GetAccountByEmail resolves an account through its owner's email address.
// Used by the PIN reset flow, which is initiated before authentication.
func (r *AccountRepository) GetAccountByEmail(email string) (*model.Account, error) {
	query := `SELECT a.id, a.user_id, a.account_name, a.account_number, a.balance, a.pin,
			a.failed_withdrawal_attempts, a.withdrawal_locked_until, a.reset_pin_otp, a.pin_otp_expires_at,
			a.version, a.created_at
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE u.email = $1`
	return scanAccount(r.DB.QueryRow(query, email))
}

// GetAllAccounts retrieves all accounts from the database. For admin use only.
func (r *AccountRepository) GetAllAccounts() ([]*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY id`
	rows, err := r.DB.Query(query)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute query for all accounts")
		return nil, err
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			logger.Log.WithError(err).Error("Failed to scan account row")
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// UpdateAccountName renames an account. For admin use only.
func (r *AccountRepository) UpdateAccountName(accountNumber int64, accountName string) (*model.Account, error) {
	log := logger.Log.WithField("account_number", accountNumber)
	log.Info("Executing query to update account name")

	query := `UPDATE accounts SET account_name = $1, version = version + 1 WHERE account_number = $2
		RETURNING ` + accountColumns
	return scanAccount(r.DB.QueryRow(query, accountName, accountNumber))
}

// DeleteAccount removes an account. For admin use only.
func (r *AccountRepository) DeleteAccount(accountNumber int64) error {
	log := logger.Log.WithField("account_number", accountNumber)
	log.Info("Executing query to delete account")

	res, err := r.DB.Exec(`DELETE FROM accounts WHERE account_number = $1`, accountNumber)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete account query")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateWithdrawalSecurity persists the account's failed-attempt counter and
// lock timestamp in a single versioned write. Returns ErrVersionConflict when
// a concurrent request modified the account first.
func (r *AccountRepository) UpdateWithdrawalSecurity(account *model.Account) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":      account.ID,
		"failed_attempts": account.FailedWithdrawalAttempts,
	})
	log.Info("Executing versioned update of withdrawal security state")

	query := `UPDATE accounts
		SET failed_withdrawal_attempts = $1, withdrawal_locked_until = $2, version = version + 1
		WHERE id = $3 AND version = $4`

	res, err := r.DB.Exec(query, account.FailedWithdrawalAttempts, account.WithdrawalLockedUntil,
		account.ID, account.Version)
	if err != nil {
		log.WithError(err).Error("Failed to execute withdrawal security update query")
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		log.Warn("Withdrawal security update lost a concurrent write race")
		return ErrVersionConflict
	}

	account.Version++
	return nil
}

// UpdateBalance applies a new balance inside the caller's transaction,
// guarded by the version the caller read. A stale version means another
// money movement landed first and the caller must surface a conflict.
func (r *AccountRepository) UpdateBalance(tx *sql.Tx, accountID int, newBalance decimal.Decimal, version int) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":  accountID,
		"new_balance": newBalance.String(),
	})
	log.Info("Executing versioned balance update")

	query := `UPDATE accounts SET balance = $1, version = version + 1 WHERE id = $2 AND version = $3`
	res, err := tx.Exec(query, newBalance, accountID, version)
	if err != nil {
		log.WithError(err).Error("Failed to execute balance update query")
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		log.Warn("Balance update lost a concurrent write race")
		return ErrVersionConflict
	}
	return nil
}

// SetResetOTP stores a fresh one-time code and its expiry on the account.
// The slot is single-valued: issuing a new code overwrites any pending one.
func (r *AccountRepository) SetResetOTP(account *model.Account, code string, expiresAt time.Time) error {
	log := logger.Log.WithField("account_id", account.ID)
	log.Info("Executing query to store PIN reset OTP")

	query := `UPDATE accounts SET reset_pin_otp = $1, pin_otp_expires_at = $2, version = version + 1 WHERE id = $3`
	if _, err := r.DB.Exec(query, code, expiresAt, account.ID); err != nil {
		log.WithError(err).Error("Failed to execute store OTP query")
		return err
	}

	account.ResetPinOTP = &code
	account.PinOTPExpiresAt = &expiresAt
	return nil
}

// ResetPIN replaces the stored PIN hash and clears the OTP slot in one
// versioned write, so a concurrent re-issue cannot interleave with a reset.
func (r *AccountRepository) ResetPIN(account *model.Account, hashedPIN string) error {
	log := logger.Log.WithField("account_id", account.ID)
	log.Info("Executing versioned PIN reset")

	query := `UPDATE accounts
		SET pin = $1, reset_pin_otp = NULL, pin_otp_expires_at = NULL, version = version + 1
		WHERE id = $2 AND version = $3`

	res, err := r.DB.Exec(query, hashedPIN, account.ID, account.Version)
	if err != nil {
		log.WithError(err).Error("Failed to execute PIN reset query")
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		log.Warn("PIN reset lost a concurrent write race")
		return ErrVersionConflict
	}

	account.PIN = hashedPIN
	account.ResetPinOTP = nil
	account.PinOTPExpiresAt = nil
	account.Version++
	return nil
}
