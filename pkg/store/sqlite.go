package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arpangupta1805/MoneyLanding/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// Manually enable foreign keys and WAL mode
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	slog.Info("database connection established and schema initialized", "path", dataSourceName)
	return s, nil
}

// initSchema creates the database tables if they don't already exist.
// Decimal fields are stored as TEXT so no precision is lost.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		lender_id TEXT NOT NULL,
		borrower_id TEXT NOT NULL,
		borrower_name TEXT NOT NULL,
		borrower_username TEXT NOT NULL DEFAULT '',
		borrower_father_name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		village TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		initial_amount TEXT NOT NULL,
		amount TEXT NOT NULL,
		remaining_balance TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		duration_months INTEGER NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		monthly_emi TEXT NOT NULL,
		total_payable TEXT NOT NULL,
		total_interest TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS payment_entries (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		entry_date DATETIME NOT NULL,
		type TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		interest_rate TEXT,
		FOREIGN KEY(transaction_id) REFERENCES transactions(id)
	);
	CREATE TABLE IF NOT EXISTS borrower_profiles (
		phone TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		father_name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		village TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_lender ON transactions(lender_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_borrower ON transactions(borrower_id);
	CREATE INDEX IF NOT EXISTS idx_entries_transaction ON payment_entries(transaction_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

const transactionColumns = `id, lender_id, borrower_id, borrower_name, borrower_username, borrower_father_name, address, village, phone, initial_amount, amount, remaining_balance, interest_rate, duration_months, start_date, end_date, monthly_emi, total_payable, total_interest, status, created_at, updated_at`

// CreateTransaction inserts a new loan transaction into the database.
func (s *SQLiteStore) CreateTransaction(tx *models.Transaction) error {
	_, err := s.db.Exec(
		`INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID.String(), tx.LenderID, tx.BorrowerID, tx.BorrowerName, tx.BorrowerUsername, tx.BorrowerFatherName,
		tx.Address, tx.Village, tx.Phone, tx.InitialAmount, tx.Amount, tx.RemainingBalance, tx.InterestRate,
		tx.DurationMonths, tx.StartDate, tx.EndDate, tx.MonthlyEMI, tx.TotalPayable, tx.TotalInterest,
		tx.Status, tx.CreatedAt, tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a loan transaction by its ID.
func (s *SQLiteStore) GetTransaction(id uuid.UUID) (*models.Transaction, error) {
	row := s.db.QueryRow(`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id.String())
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// UpdateTransaction updates the mutable fields of an existing transaction.
// Creation-time fields (initial amount, duration, dates) are not touched.
func (s *SQLiteStore) UpdateTransaction(tx *models.Transaction) error {
	result, err := s.db.Exec(
		`UPDATE transactions SET amount = ?, remaining_balance = ?, monthly_emi = ?, total_payable = ?, total_interest = ?, status = ?, updated_at = ? WHERE id = ?`,
		tx.Amount, tx.RemainingBalance, tx.MonthlyEMI, tx.TotalPayable, tx.TotalInterest, tx.Status, tx.UpdatedAt, tx.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("transaction %s: %w", tx.ID, ErrNotFound)
	}
	return nil
}

// GetAllTransactions retrieves every loan transaction.
func (s *SQLiteStore) GetAllTransactions() ([]*models.Transaction, error) {
	rows, err := s.db.Query(`SELECT ` + transactionColumns + ` FROM transactions ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetTransactionsByUser retrieves the transactions where the user is lender
// or borrower.
func (s *SQLiteStore) GetTransactionsByUser(userID string) ([]*models.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT `+transactionColumns+` FROM transactions WHERE lender_id = ? OR borrower_id = ? ORDER BY created_at ASC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for user %s: %w", userID, err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var idStr string
	var start, end, created, updated time.Time
	err := row.Scan(
		&idStr, &tx.LenderID, &tx.BorrowerID, &tx.BorrowerName, &tx.BorrowerUsername, &tx.BorrowerFatherName,
		&tx.Address, &tx.Village, &tx.Phone, &tx.InitialAmount, &tx.Amount, &tx.RemainingBalance, &tx.InterestRate,
		&tx.DurationMonths, &start, &end, &tx.MonthlyEMI, &tx.TotalPayable, &tx.TotalInterest,
		&tx.Status, &created, &updated,
	)
	if err != nil {
		return nil, err
	}
	tx.ID = uuid.MustParse(idStr)
	tx.StartDate = start
	tx.EndDate = end
	tx.CreatedAt = created
	tx.UpdatedAt = updated
	return &tx, nil
}

func scanTransactions(rows *sql.Rows) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return txs, nil
}

// CreatePaymentEntry appends an immutable event to a transaction's log.
func (s *SQLiteStore) CreatePaymentEntry(entry *models.PaymentEntry) error {
	var rate sql.NullString
	if entry.InterestRate != nil {
		rate = sql.NullString{String: entry.InterestRate.String(), Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO payment_entries (id, transaction_id, amount, entry_date, type, notes, interest_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.TransactionID.String(), entry.Amount, entry.Date, entry.Type, entry.Notes, rate,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment entry: %w", err)
	}
	return nil
}

// GetEntriesForTransaction retrieves the event log for a transaction in
// chronological order.
func (s *SQLiteStore) GetEntriesForTransaction(txID uuid.UUID) ([]*models.PaymentEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, transaction_id, amount, entry_date, type, notes, interest_rate FROM payment_entries WHERE transaction_id = ? ORDER BY entry_date ASC`,
		txID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries for transaction %s: %w", txID, err)
	}
	defer rows.Close()

	var entries []*models.PaymentEntry
	for rows.Next() {
		var entry models.PaymentEntry
		var entryIDStr, txIDStr string
		var date time.Time
		var rate sql.NullString
		if err := rows.Scan(&entryIDStr, &txIDStr, &entry.Amount, &date, &entry.Type, &entry.Notes, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan payment entry row: %w", err)
		}
		entry.ID = uuid.MustParse(entryIDStr)
		entry.TransactionID = uuid.MustParse(txIDStr)
		entry.Date = date
		if rate.Valid {
			parsed, err := decimal.NewFromString(rate.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse entry interest rate: %w", err)
			}
			entry.InterestRate = &parsed
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return entries, nil
}

// UpsertBorrowerProfile inserts or replaces the autofill profile keyed by
// phone number.
func (s *SQLiteStore) UpsertBorrowerProfile(profile *models.BorrowerProfile) error {
	_, err := s.db.Exec(
		`INSERT INTO borrower_profiles (phone, name, username, father_name, address, village, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(phone) DO UPDATE SET name = excluded.name, username = excluded.username, father_name = excluded.father_name, address = excluded.address, village = excluded.village, updated_at = excluded.updated_at`,
		profile.Phone, profile.Name, profile.Username, profile.FatherName, profile.Address, profile.Village, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert borrower profile: %w", err)
	}
	return nil
}

// GetBorrowerProfile retrieves the autofill profile for a phone number.
func (s *SQLiteStore) GetBorrowerProfile(phone string) (*models.BorrowerProfile, error) {
	var profile models.BorrowerProfile
	var updated time.Time
	row := s.db.QueryRow(
		`SELECT phone, name, username, father_name, address, village, updated_at FROM borrower_profiles WHERE phone = ?`,
		phone,
	)
	err := row.Scan(&profile.Phone, &profile.Name, &profile.Username, &profile.FatherName, &profile.Address, &profile.Village, &updated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile for %s: %w", phone, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get borrower profile: %w", err)
	}
	profile.UpdatedAt = updated
	return &profile, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
