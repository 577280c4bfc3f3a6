package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"optimal-bank-api/logger"
	"optimal-bank-api/metrics"
	"optimal-bank-api/model"
	"optimal-bank-api/notification"
	"optimal-bank-api/repository"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	withdrawalAttemptLimit = 5
	withdrawalLockDuration = 60 * time.Second
)

// TransactionService handles deposits, withdrawals and the withdrawal
// security state machine, plus the admin surface over transaction records.
type TransactionService struct {
	db              *sql.DB
	accountRepo     repository.IAccountRepository
	transactionRepo repository.ITransactionRepository
	userRepo        repository.IUserRepository
	auth            *AuthService
	notifier        notification.Notifier
	cache           ICacheClient
}

func NewTransactionService(db *sql.DB, accountRepo repository.IAccountRepository,
	transactionRepo repository.ITransactionRepository, userRepo repository.IUserRepository,
	auth *AuthService, notifier notification.Notifier, cache ICacheClient) *TransactionService {
	return &TransactionService{
		db:              db,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		auth:            auth,
		notifier:        notifier,
		cache:           cache,
	}
}

func (s *TransactionService) invalidateCache(ctx context.Context, userID int) {
	if s.cache != nil {
		s.cache.Del(ctx, accountCacheKey(userID))
	}
}

// Deposit credits an account and records the matching transaction in the
// same database transaction, so neither can exist without the other.
func (s *TransactionService) Deposit(ctx context.Context, req model.DepositRequest) (*model.Account, *model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"account_number": req.AccountNumber,
		"amount":         req.Amount.String(),
	})
	log.Info("Starting deposit")

	if !req.Amount.IsPositive() {
		return nil, nil, ErrInvalidAmount
	}

	account, err := s.accountRepo.GetAccountByNumber(req.AccountNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, err
	}

	newBalance := account.Balance.Add(req.Amount)
	transaction := &model.Transaction{
		Reference:   uuid.NewString(),
		Amount:      req.Amount,
		Type:        model.TransactionDeposit,
		UserID:      account.UserID,
		ToAccountID: &account.ID,
	}

	if err := s.applyMoneyMovement(ctx, account, newBalance, transaction); err != nil {
		return nil, nil, err
	}

	metrics.Transactions.WithLabelValues(string(model.TransactionDeposit)).Inc()
	log.Info("Deposit completed successfully")

	if user, err := s.userRepo.GetUserByID(account.UserID); err == nil {
		notify(ctx, s.notifier, notification.Recipient{Email: user.Email, Name: user.Username},
			"New transaction",
			fmt.Sprintf("<p>A payment of £%s has been successfully credited to your Optimal Bank account. Your updated balance is £%s.</p>",
				req.Amount.StringFixed(2), newBalance.StringFixed(2)))
	}

	return account, transaction, nil
}

// Withdraw debits an account after it passes the withdrawal security gate.
//
// Gate rules: while a lock is active every attempt is rejected untouched. A
// wrong PIN increments the failed-attempt counter; the fifth consecutive
// failure locks withdrawals for sixty seconds, resets the counter and emails
// the owner. A correct PIN resets the counter before any money moves. The
// balance may never go negative; insufficient funds is its own rejection.
func (s *TransactionService) Withdraw(ctx context.Context, req model.WithdrawRequest) (*model.Account, *model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"account_number": req.AccountNumber,
		"amount":         req.Amount.String(),
	})
	log.Info("Starting withdrawal")

	account, err := s.accountRepo.GetAccountByNumber(req.AccountNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, err
	}

	user, err := s.userRepo.GetUserByID(account.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	now := time.Now()
	if account.WithdrawalLockedUntil != nil && now.Before(*account.WithdrawalLockedUntil) {
		log.WithField("locked_until", account.WithdrawalLockedUntil).Warn("Withdrawal attempt on locked account")
		return nil, nil, &LockedError{Until: *account.WithdrawalLockedUntil}
	}

	if !s.auth.VerifyCredential(req.PIN, account.PIN) {
		return nil, nil, s.recordFailedWithdrawal(ctx, account, user, now)
	}

	// Correct PIN clears any residual failure state before money moves.
	if account.FailedWithdrawalAttempts != 0 || account.WithdrawalLockedUntil != nil {
		account.FailedWithdrawalAttempts = 0
		account.WithdrawalLockedUntil = nil
		if err := s.accountRepo.UpdateWithdrawalSecurity(account); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return nil, nil, ErrConflict
			}
			return nil, nil, err
		}
	}

	if !req.Amount.IsPositive() {
		return nil, nil, ErrInvalidAmount
	}
	if account.Balance.LessThan(req.Amount) {
		log.Warn("Withdrawal rejected, insufficient funds")
		return nil, nil, ErrInsufficientFunds
	}

	newBalance := account.Balance.Sub(req.Amount)
	transaction := &model.Transaction{
		Reference:     uuid.NewString(),
		Amount:        req.Amount,
		Type:          model.TransactionWithdrawal,
		UserID:        account.UserID,
		FromAccountID: &account.ID,
	}

	if err := s.applyMoneyMovement(ctx, account, newBalance, transaction); err != nil {
		return nil, nil, err
	}

	metrics.Transactions.WithLabelValues(string(model.TransactionWithdrawal)).Inc()
	log.Info("Withdrawal completed successfully")

	notify(ctx, s.notifier, notification.Recipient{Email: user.Email, Name: user.Username},
		"New transaction",
		fmt.Sprintf("<p>An amount of £%s has been withdrawn from your Optimal Bank account. Your updated balance is £%s.</p>",
			req.Amount.StringFixed(2), newBalance.StringFixed(2)))

	return account, transaction, nil
}

// applyMoneyMovement writes the guarded balance update and the transaction
// record atomically. A lost version race rolls everything back and surfaces
// as a conflict the caller can retry.
func (s *TransactionService) applyMoneyMovement(ctx context.Context, account *model.Account,
	newBalance decimal.Decimal, transaction *model.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.accountRepo.UpdateBalance(tx, account.ID, newBalance, account.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return ErrConflict
		}
		return fmt.Errorf("could not update balance: %w", err)
	}

	if err := s.transactionRepo.CreateTransaction(tx, transaction); err != nil {
		return fmt.Errorf("could not create transaction record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	account.Balance = newBalance
	account.Version++
	s.invalidateCache(ctx, account.UserID)
	return nil
}

// recordFailedWithdrawal advances the failure counter and, on the fifth
// consecutive miss, transitions the account into the locked state.
func (s *TransactionService) recordFailedWithdrawal(ctx context.Context, account *model.Account, user *model.User, now time.Time) error {
	log := logger.Log.WithField("account_id", account.ID)

	account.FailedWithdrawalAttempts++
	if account.FailedWithdrawalAttempts >= withdrawalAttemptLimit {
		until := now.Add(withdrawalLockDuration)
		account.WithdrawalLockedUntil = &until
		account.FailedWithdrawalAttempts = 0

		if err := s.accountRepo.UpdateWithdrawalSecurity(account); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return ErrConflict
			}
			return err
		}

		metrics.Lockouts.WithLabelValues("withdrawal").Inc()
		log.WithField("locked_until", until).Warn("Account locked after repeated incorrect PIN attempts")
		notify(ctx, s.notifier, notification.Recipient{Email: user.Email, Name: user.Username},
			"Withdrawal locked",
			"<p>Your account is locked for 1 minute due to multiple incorrect PIN attempts.</p>")

		return &LockedError{Until: until}
	}

	if err := s.accountRepo.UpdateWithdrawalSecurity(account); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return ErrConflict
		}
		return err
	}

	log.WithField("failed_attempts", account.FailedWithdrawalAttempts).Warn("Incorrect PIN")
	return ErrIncorrectPIN
}

// CreateManualTransaction records a transaction without touching any
// balance. For admin use only.
func (s *TransactionService) CreateManualTransaction(ctx context.Context, req model.CreateTransactionRequest) (*model.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	transaction := &model.Transaction{
		Reference:     uuid.NewString(),
		Amount:        req.Amount,
		Type:          req.Type,
		UserID:        req.UserID,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.transactionRepo.CreateTransaction(tx, transaction); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}
	return transaction, nil
}

// ListTransactionsForAccount retrieves the transaction history for a specific account.
func (s *TransactionService) ListTransactionsForAccount(ctx context.Context, userID, accountID int) ([]*model.Transaction, error) {
	account, err := s.accountRepo.GetAccountByID(accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if account.UserID != userID {
		logger.Log.WithFields(logrus.Fields{
			"requesting_user_id": userID,
			"target_account_id":  accountID,
		}).Warn("Permission denied for accessing account's transaction history")
		return nil, ErrPermissionDenied
	}

	return s.transactionRepo.GetTransactionsByAccountID(accountID)
}

// GetAllTransactions retrieves every transaction. For admin use only.
func (s *TransactionService) GetAllTransactions() ([]*model.Transaction, error) {
	return s.transactionRepo.GetAllTransactions()
}

func (s *TransactionService) GetTransaction(id int) (*model.Transaction, error) {
	transaction, err := s.transactionRepo.GetTransactionByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// UpdateTransaction corrects a transaction record. For admin use only.
func (s *TransactionService) UpdateTransaction(id int, req model.UpdateTransactionRequest) (*model.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	transaction, err := s.transactionRepo.UpdateTransaction(id, req)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// DeleteTransaction removes a transaction record. For admin use only.
func (s *TransactionService) DeleteTransaction(id int) error {
	if err := s.transactionRepo.DeleteTransaction(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTransactionNotFound
		}
		return err
	}
	return nil
}
