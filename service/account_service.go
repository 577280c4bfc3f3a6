// file: service/account_service.go

package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"optimal-bank-api/logger"
	"optimal-bank-api/model"
	"optimal-bank-api/notification"
	"optimal-bank-api/repository"
	"time"
)

const otpTTL = 15 * time.Minute

// AccountService handles account lifecycle and the OTP-based PIN reset flow.
// Account reads go through a Redis cache-aside layer.
type AccountService struct {
	repo     repository.IAccountRepository
	userRepo repository.IUserRepository
	auth     *AuthService
	notifier notification.Notifier
	cache    ICacheClient
}

func NewAccountService(repo repository.IAccountRepository, userRepo repository.IUserRepository,
	auth *AuthService, notifier notification.Notifier, cache ICacheClient) *AccountService {
	return &AccountService{
		repo:     repo,
		userRepo: userRepo,
		auth:     auth,
		notifier: notifier,
		cache:    cache,
	}
}

func accountCacheKey(userID int) string {
	return fmt.Sprintf("account:%d", userID)
}

func (s *AccountService) invalidateCache(ctx context.Context, userID int) {
	if s.cache != nil {
		s.cache.Del(ctx, accountCacheKey(userID))
	}
}

// CreateNewAccount opens the single account a user may hold, hashing the
// chosen PIN and issuing the next sequential account number.
func (s *AccountService) CreateNewAccount(ctx context.Context, userID int, req model.CreateAccountRequest) (*model.Account, error) {
	if _, err := s.repo.GetAccountByUserID(userID); err == nil {
		return nil, ErrAccountExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hashedPIN, err := s.auth.HashCredential(req.PIN)
	if err != nil {
		return nil, err
	}

	lastAccountNumber, err := s.repo.GetLastAccountNumber()
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		UserID:        userID,
		AccountName:   req.AccountName,
		AccountNumber: lastAccountNumber + 1,
		PIN:           hashedPIN,
	}
	if err := s.repo.CreateAccount(account); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, userID)

	if user, err := s.userRepo.GetUserByID(userID); err == nil {
		notify(ctx, s.notifier, notification.Recipient{Email: user.Email, Name: user.Username},
			"Your Optimal Bank account is ready",
			fmt.Sprintf("<h2>Welcome to Optimal Bank, %s!</h2>"+
				"<p>Your account <strong>%d</strong> has been successfully created.</p>"+
				"<p>Account name: %s</p>",
				user.Username, account.AccountNumber, account.AccountName))
	}

	return account, nil
}

// GetAccountForUser returns the user's account, utilizing a cache-aside strategy.
func (s *AccountService) GetAccountForUser(ctx context.Context, userID int) (*model.Account, error) {
	cacheKey := accountCacheKey(userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var account model.Account
			if err := json.Unmarshal([]byte(cached), &account); err == nil {
				return &account, nil
			}
		}
	}

	account, err := s.repo.GetAccountByUserID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(account); err == nil {
			s.cache.Set(ctx, cacheKey, data, 10*time.Minute)
		}
	}
	return account, nil
}

// GetAllAccounts retrieves all accounts. Caching is not applied here as admin data may need to be fresh.
func (s *AccountService) GetAllAccounts() ([]*model.Account, error) {
	return s.repo.GetAllAccounts()
}

// UpdateAccountName renames an account. For admin use only.
func (s *AccountService) UpdateAccountName(ctx context.Context, accountNumber int64, req model.UpdateAccountRequest) (*model.Account, error) {
	account, err := s.repo.UpdateAccountName(accountNumber, req.AccountName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	s.invalidateCache(ctx, account.UserID)
	return account, nil
}

// DeleteAccount removes an account. For admin use only.
func (s *AccountService) DeleteAccount(ctx context.Context, accountNumber int64) error {
	account, err := s.repo.GetAccountByNumber(accountNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAccountNotFound
		}
		return err
	}

	if err := s.repo.DeleteAccount(accountNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAccountNotFound
		}
		return err
	}
	s.invalidateCache(ctx, account.UserID)
	return nil
}

// IssueResetOTP generates a fresh one-time code for the account belonging to
// email, stores it with a 15 minute expiry and mails it to the owner. A new
// code always replaces any pending one.
func (s *AccountService) IssueResetOTP(ctx context.Context, email string) (string, error) {
	account, err := s.repo.GetAccountByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrAccountNotFound
		}
		return "", err
	}

	code, err := generateOTP()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(otpTTL)
	if err := s.repo.SetResetOTP(account, code, expiresAt); err != nil {
		return "", err
	}

	logger.Log.WithField("account_id", account.ID).Info("PIN reset OTP issued")
	notify(ctx, s.notifier, notification.Recipient{Email: email, Name: account.AccountName},
		"Optimal Bank PIN reset OTP",
		fmt.Sprintf("<h1>PIN reset OTP</h1>"+
			"<p>Hello %s,</p>"+
			"<p>Use the following one-time code to reset your Optimal Bank account PIN:</p>"+
			"<h2>%s</h2>"+
			"<p>This code will expire in 15 minutes.</p>"+
			"<p>If you did not request this, please ignore this email.</p>",
			account.AccountName, code))

	return code, nil
}

// ResetPIN verifies the submitted code and, if it matches and has not
// expired, replaces the stored PIN hash and clears the OTP slot atomically.
func (s *AccountService) ResetPIN(ctx context.Context, req model.ResetPinRequest) error {
	account, err := s.repo.GetAccountByEmail(req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAccountNotFound
		}
		return err
	}

	if account.ResetPinOTP == nil || *account.ResetPinOTP != req.OTP {
		return ErrInvalidOTP
	}
	if account.PinOTPExpiresAt == nil || time.Now().After(*account.PinOTPExpiresAt) {
		return ErrOTPExpired
	}

	hashedPIN, err := s.auth.HashCredential(req.NewPIN)
	if err != nil {
		return err
	}

	if err := s.repo.ResetPIN(account, hashedPIN); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return ErrConflict
		}
		return err
	}

	logger.Log.WithField("account_id", account.ID).Info("Account PIN was reset")
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
