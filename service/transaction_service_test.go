// service/transaction_service_test.go
package service

import (
	"context"
	"database/sql"
	"optimal-bank-api/logger"
	"optimal-bank-api/model"
	"optimal-bank-api/repository"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.Init()
	m.Run()
}

type mockTransactionRepo struct{ mock.Mock }

func (m *mockTransactionRepo) CreateTransaction(tx *sql.Tx, transaction *model.Transaction) error {
	args := m.Called(tx, transaction)
	return args.Error(0)
}
func (m *mockTransactionRepo) GetTransactionByID(id int) (*model.Transaction, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}
func (m *mockTransactionRepo) GetAllTransactions() ([]*model.Transaction, error) {
	args := m.Called()
	return args.Get(0).([]*model.Transaction), args.Error(1)
}
func (m *mockTransactionRepo) GetTransactionsByAccountID(accountID int) ([]*model.Transaction, error) {
	args := m.Called(accountID)
	return args.Get(0).([]*model.Transaction), args.Error(1)
}
func (m *mockTransactionRepo) UpdateTransaction(id int, req model.UpdateTransactionRequest) (*model.Transaction, error) {
	args := m.Called(id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}
func (m *mockTransactionRepo) DeleteTransaction(id int) error {
	args := m.Called(id)
	return args.Error(0)
}

// newMoneyTestDB returns a sqlmock database for exercising the
// begin/commit/rollback path around money movements.
func newMoneyTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, dbMock
}

func withdrawalTestAccount(t *testing.T, auth *AuthService, pin string, balance int64) *model.Account {
	t.Helper()
	hashed, err := auth.HashCredential(pin)
	assert.NoError(t, err)
	return &model.Account{
		ID:            7,
		UserID:        1,
		AccountName:   "Alice Savings",
		AccountNumber: 1000000042,
		Balance:       decimal.NewFromInt(balance),
		PIN:           hashed,
		Version:       3,
	}
}

var testOwner = &model.User{ID: 1, Username: "alice", Email: "alice@example.com"}

func TestTransactionService_Deposit(t *testing.T) {
	auth := NewAuthService()
	ctx := context.Background()

	t.Run("credits the balance and records the transaction", func(t *testing.T) {
		db, dbMock := newMoneyTestDB(t)
		mockAccounts := new(mockAccountRepo)
		mockTransactions := new(mockTransactionRepo)
		mockUsers := new(mockUserRepo)
		notifier := &recordingNotifier{}

		account := withdrawalTestAccount(t, auth, "4321", 50)
		mockAccounts.On("GetAccountByNumber", int64(1000000042)).Return(account, nil).Once()

		dbMock.ExpectBegin()
		mockAccounts.On("UpdateBalance", mock.Anything, 7,
			mock.MatchedBy(func(b decimal.Decimal) bool { return b.Equal(decimal.NewFromInt(150)) }),
			3).Return(nil).Once()
		mockTransactions.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tr *model.Transaction) bool {
			return tr.Type == model.TransactionDeposit && tr.ToAccountID != nil && *tr.ToAccountID == 7 &&
				tr.Reference != ""
		})).Return(nil).Once()
		dbMock.ExpectCommit()

		mockUsers.On("GetUserByID", 1).Return(testOwner, nil).Once()

		transactionService := NewTransactionService(db, mockAccounts, mockTransactions, mockUsers, auth, notifier, nil)
		updated, transaction, err := transactionService.Deposit(ctx, model.DepositRequest{
			AccountNumber: 1000000042, Amount: decimal.NewFromInt(100),
		})

		assert.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(150)))
		assert.Equal(t, 4, updated.Version)
		assert.NotNil(t, transaction)
		assert.Equal(t, []string{"New transaction"}, notifier.subjects)
		assert.NoError(t, dbMock.ExpectationsWereMet())
		mockAccounts.AssertExpectations(t)
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		db, _ := newMoneyTestDB(t)
		transactionService := NewTransactionService(db, new(mockAccountRepo), new(mockTransactionRepo),
			new(mockUserRepo), auth, &recordingNotifier{}, nil)

		_, _, err := transactionService.Deposit(ctx, model.DepositRequest{
			AccountNumber: 1000000042, Amount: decimal.Zero,
		})

		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("unknown account", func(t *testing.T) {
		db, _ := newMoneyTestDB(t)
		mockAccounts := new(mockAccountRepo)
		mockAccounts.On("GetAccountByNumber", int64(4040404040)).Return(nil, sql.ErrNoRows).Once()

		transactionService := NewTransactionService(db, mockAccounts, new(mockTransactionRepo),
			new(mockUserRepo), auth, &recordingNotifier{}, nil)
		_, _, err := transactionService.Deposit(ctx, model.DepositRequest{
			AccountNumber: 4040404040, Amount: decimal.NewFromInt(10),
		})

		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestTransactionService_Withdraw(t *testing.T) {
	auth := NewAuthService()
	ctx := context.Background()
	req := model.WithdrawRequest{AccountNumber: 1000000042, Amount: decimal.NewFromInt(100), PIN: "4321"}

	t.Run("debits the balance on a correct pin", func(t *testing.T) {
		db, dbMock := newMoneyTestDB(t)
		mockAccounts := new(mockAccountRepo)
		mockTransactions := new(mockTransactionRepo)
		mockUsers := new(mockUserRepo)
		notifier := &recordingNotifier{}

		account := withdrawalTestAccount(t, auth, "4321", 500)
		mockAccounts.On("GetAccountByNumber", int64(1000000042)).Return(account, nil).Once()
		mockUsers.On("GetUserByID", 1).Return(testOwner, nil).Once()

		dbMock.ExpectBegin()
		mockAccounts.On("UpdateBalance", mock.Anything, 7,
			mock.MatchedBy(func(b decimal.Decimal) bool { return b.Equal(decimal.NewFromInt(400)) }),
			3).Return(nil).Once()
		mockTransactions.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tr *model.Transaction) bool {
			return tr.Type == model.TransactionWithdrawal && tr.FromAccountID != nil && *tr.FromAccountID == 7
		})).Return(nil).Once()
		dbMock.ExpectCommit()

		transactionService := NewTransactionService(db, mockAccounts, mockTransactions, mockUsers, auth, notifier, nil)
		updated, _, err := transactionService.Withdraw(ctx, req)

		assert.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(400)))
		assert.Equal(t, []string{"New transaction"}, notifier.subjects)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("incorrect pin increments the failure counter", func(t *testing.T) {
		db, _ := newMoneyTestDB(t)
		mockAccounts := new(mockAccountRepo)
		mockUsers := new(mockUserRepo)

		account := withdrawalTestAccount(t, auth, "4321", 500)
		mockAccounts.On("GetAccountByNumber", int64(1000000042)).Return(account, nil).Once()
		mockUsers.On("GetUserByID", 1).Return(testOwner, nil).Once()
		mockAccounts.On("UpdateWithdrawalSecurity", mock.MatchedBy(func(a *model.Account) bool {
			return a.FailedWithdrawalAttempts == 1 && a.WithdrawalLockedUntil == nil
		})).Return(nil).Once()

		transactionService := NewTransactionService(db, mockAccounts, new(mockTransactionRepo),
			mockUsers, auth, &recordingNotifier{}, nil)
		wrongPin := req
		wrongPin.PIN = "0000"
		_, _, err := transactionService.Withdraw(ctx, wrongPin)

		assert.ErrorIs(t, err, ErrIncorrectPIN)
		mockAccounts.AssertExpectations(t)
	})

	t.Run("fifth incorrect pin locks withdrawals for sixty seconds", func(t *testing.T) {
		db, _ := newMoneyTestDB(t)
		mockAccounts := new(mockAccountRepo)
		mockUsers := new(mockUserRepo)
		notifier := &recordingNotifier{}

		account := withdrawalTestAccount(t, auth, "4321", 500)
		account.FailedWithdrawalAttempts = 4
		mockAccounts.On("GetAccountByNumber", int64(1000000042)).Return(account, nil).Once()
		mockUsers.On("GetUserByID", 1).Return(testOwner, nil).Once()
		mockAccounts.On("UpdateWithdrawalSecurity", mock.MatchedBy(func(a *model.Account) bool {
			return a.FailedWithdrawalAttempts == 0 && a.WithdrawalLockedUntil != nil
		})).Return(nil).Once()

		transactionService := NewTransactionService(db, mockAccounts, new(mockTransactionRepo),
			mockUsers, auth, notifier, nil)
		wrongPin := req
		wrongPin.PIN = "0000"
		before := time.Now()
		_, _, err := transactionService.Withdraw(ctx, wrongPin)

		var locked *LockedError
		assert.ErrorAs(t, err, &locked)
		assert.WithinDuration(t, before.Add(60*time.Second), locked.Until, 2*time.Second)
		assert.Equal(t, []string{"Withdrawal locked"}, notifier.subjects)
	})

	t.Run("active lock rejects even a correct pin", func(t *testing.T) {
		db, _ := newMoneyTestDB(t)
		mockAccounts := new(mockAccountRepo)
		mockUsers := new(mockUserRepo)

		account := withdrawalTestAccount(t, auth, "4321", 500)
		until := time.Now().Add(30 * time.Second)
		account.WithdrawalLockedUntil = &until
		mockAccounts.On("GetAccountByNumber", int64(1000000042)).Return(account, nil).Once()
		mockUsers.On("GetUserByID", 1).Return(testOwner, nil).Once()

		transactionService := NewTransactionService(db, mockAccounts, new(mockTransactionRepo),
			mockUsers, auth, &recordingNotifier{}, nil)
		_, _, err := transactionService.Withdraw(ctx, req)

		var locked *LockedError
		assert.ErrorAs(t, err, &locked)
		assert.Equal(t, until, locked.Until)
		mockAccounts.AssertNotCalled(t, "UpdateWithdrawalSecurity", mock.Anything)
	})

	t.Run("expired lock is cleared by a correct pin", func(t *testing.T) {
		db, dbMock := newMoneyTestDB(t)
		mockAccounts := new(mockAccountRepo)
		mockTransactions := new(mockTransactionRepo)
		mockUsers := new(mockUserRepo)

		account := withdrawalTestAccount(t, auth, "4321", 500)
		until := time.Now().Add(-time.Second)
		account.WithdrawalLockedUntil = &until
		mockAccounts.On("GetAccountByNumber", int64(1000000042)).Return(account, nil).Once()
		mockUsers.On("GetUserByID", 1).Return(testOwner, nil).Once()
		mockAccounts.On("UpdateWithdrawalSecurity", mock.MatchedBy(func(a *model.Account) bool {
			return a.FailedWithdrawalAttempts == 0 && a.WithdrawalLockedUntil == nil
		})).Return(nil).Once()

		dbMock.ExpectBegin()
		mockAccounts.On("UpdateBalance", mock.Anything, 7, mock.Anything, mock.Anything).Return(nil).Once()
		mockTransactions.On("CreateTransaction", mock.Anything, mock.Anything).Return(nil).Once()
		dbMock.ExpectCommit()

		transactionService := NewTransactionService(db, mockAccounts, mockTransactions,
			mockUsers, auth, &recordingNotifier{}, nil)
		_, _, err := transactionService.Withdraw(ctx, req)

		assert.NoError(t, err)
		assert.Nil(t, account.WithdrawalLockedUntil)
		mockAccounts.AssertExpectations(t)
	})

	t.Run("insufficient funds leaves the balance untouched", func(t *testing.T) {
		db, _ := newMoneyTestDB(t)
		mockAccounts := new(mockAccountRepo)
		mockUsers := new(mockUserRepo)

		account := withdrawalTestAccount(t, auth, "4321", 50)
		mockAccounts.On("GetAccountByNumber", int64(1000000042)).Return(account, nil).Once()
		mockUsers.On("GetUserByID", 1).Return(testOwner, nil).Once()

		transactionService := NewTransactionService(db, mockAccounts, new(mockTransactionRepo),
			mockUsers, auth, &recordingNotifier{}, nil)
		_, _, err := transactionService.Withdraw(ctx, req)

		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(50)))
		mockAccounts.AssertNotCalled(t, "UpdateBalance",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lost version race surfaces as a conflict", func(t *testing.T) {
		db, dbMock := newMoneyTestDB(t)
		mockAccounts := new(mockAccountRepo)
		mockUsers := new(mockUserRepo)

		account := withdrawalTestAccount(t, auth, "4321", 500)
		mockAccounts.On("GetAccountByNumber", int64(1000000042)).Return(account, nil).Once()
		mockUsers.On("GetUserByID", 1).Return(testOwner, nil).Once()

		dbMock.ExpectBegin()
		mockAccounts.On("UpdateBalance", mock.Anything, 7, mock.Anything, 3).
			Return(repository.ErrVersionConflict).Once()
		dbMock.ExpectRollback()

		transactionService := NewTransactionService(db, mockAccounts, new(mockTransactionRepo),
			mockUsers, auth, &recordingNotifier{}, nil)
		_, _, err := transactionService.Withdraw(ctx, req)

		assert.ErrorIs(t, err, ErrConflict)
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(500)))
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestTransactionService_ListTransactionsForAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("owner can read their history", func(t *testing.T) {
		mockAccounts := new(mockAccountRepo)
		mockTransactions := new(mockTransactionRepo)

		mockAccounts.On("GetAccountByID", 7).Return(&model.Account{ID: 7, UserID: 1}, nil).Once()
		history := []*model.Transaction{{ID: 1, UserID: 1}, {ID: 2, UserID: 1}}
		mockTransactions.On("GetTransactionsByAccountID", 7).Return(history, nil).Once()

		transactionService := NewTransactionService(nil, mockAccounts, mockTransactions,
			new(mockUserRepo), NewAuthService(), &recordingNotifier{}, nil)
		transactions, err := transactionService.ListTransactionsForAccount(ctx, 1, 7)

		assert.NoError(t, err)
		assert.Len(t, transactions, 2)
	})

	t.Run("another user is denied", func(t *testing.T) {
		mockAccounts := new(mockAccountRepo)
		mockAccounts.On("GetAccountByID", 7).Return(&model.Account{ID: 7, UserID: 1}, nil).Once()

		transactionService := NewTransactionService(nil, mockAccounts, new(mockTransactionRepo),
			new(mockUserRepo), NewAuthService(), &recordingNotifier{}, nil)
		_, err := transactionService.ListTransactionsForAccount(ctx, 2, 7)

		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}
