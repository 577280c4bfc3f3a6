package repository

import (
	"database/sql"
	"optimal-bank-api/logger"
	"optimal-bank-api/model"

	"github.com/sirupsen/logrus"
)

// ITransactionRepository defines the contract for transaction database operations.
type ITransactionRepository interface {
	CreateTransaction(tx *sql.Tx, transaction *model.Transaction) error
	GetTransactionByID(id int) (*model.Transaction, error)
	GetAllTransactions() ([]*model.Transaction, error)
	GetTransactionsByAccountID(accountID int) ([]*model.Transaction, error)
	UpdateTransaction(id int, req model.UpdateTransactionRequest) (*model.Transaction, error)
	DeleteTransaction(id int) error
}

// TransactionRepository implements ITransactionRepository.
type TransactionRepository struct {
	DB *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{DB: db}
}

const transactionColumns = `id, reference, amount, type, user_id, from_account_id, to_account_id, created_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (*model.Transaction, error) {
	t := &model.Transaction{}
	var from, to sql.NullInt64

	err := row.Scan(&t.ID, &t.Reference, &t.Amount, &t.Type, &t.UserID, &from, &to, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if from.Valid {
		id := int(from.Int64)
		t.FromAccountID = &id
	}
	if to.Valid {
		id := int(to.Int64)
		t.ToAccountID = &id
	}
	return t, nil
}

// CreateTransaction inserts a transaction record inside the caller's database
// transaction, so it commits or rolls back together with the balance change.
func (r *TransactionRepository) CreateTransaction(tx *sql.Tx, transaction *model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"reference": transaction.Reference,
		"type":      transaction.Type,
		"amount":    transaction.Amount.String(),
	})
	log.Info("Executing query to create a new transaction")

	query := `INSERT INTO transactions (reference, amount, type, user_id, from_account_id, to_account_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := tx.QueryRow(query, transaction.Reference, transaction.Amount, transaction.Type,
		transaction.UserID, transaction.FromAccountID, transaction.ToAccountID).
		Scan(&transaction.ID, &transaction.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create transaction query")
		return err
	}
	return nil
}

func (r *TransactionRepository) GetTransactionByID(id int) (*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.DB.QueryRow(query, id))
}

// GetAllTransactions retrieves every transaction. For admin use only.
func (r *TransactionRepository) GetAllTransactions() ([]*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY created_at DESC`
	rows, err := r.DB.Query(query)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute query for all transactions")
		return nil, err
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			logger.Log.WithError(err).Error("Failed to scan transaction row")
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// GetTransactionsByAccountID retrieves the history for one account, newest first.
func (r *TransactionRepository) GetTransactionsByAccountID(accountID int) ([]*model.Transaction, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Info("Executing query to get transactions by account ID")

	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at DESC`

	rows, err := r.DB.Query(query, accountID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for transactions by account ID")
		return nil, err
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan transaction row")
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// UpdateTransaction corrects a transaction's amount and type. For admin use only.
func (r *TransactionRepository) UpdateTransaction(id int, req model.UpdateTransactionRequest) (*model.Transaction, error) {
	log := logger.Log.WithField("transaction_id", id)
	log.Info("Executing query to update transaction")

	query := `UPDATE transactions SET amount = $1, type = $2 WHERE id = $3
		RETURNING ` + transactionColumns
	return scanTransaction(r.DB.QueryRow(query, req.Amount, req.Type, id))
}

// DeleteTransaction removes a transaction record. For admin use only.
func (r *TransactionRepository) DeleteTransaction(id int) error {
	log := logger.Log.WithField("transaction_id", id)
	log.Info("Executing query to delete transaction")

	res, err := r.DB.Exec(`DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete transaction query")
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
