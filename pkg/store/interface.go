package store

import (
	"errors"

	"github.com/google/uuid"

	"github.com/arpangupta1805/MoneyLanding/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist. Callers
// should match it with errors.Is.
var ErrNotFound = errors.New("record not found")

// Storage defines the persistence port for loan transactions, their
// append-only event log and borrower autofill profiles. Payment entries are
// immutable: there is no update or delete for them.
type Storage interface {
	CreateTransaction(tx *models.Transaction) error
	GetTransaction(id uuid.UUID) (*models.Transaction, error)
	UpdateTransaction(tx *models.Transaction) error
	GetAllTransactions() ([]*models.Transaction, error)
	GetTransactionsByUser(userID string) ([]*models.Transaction, error)

	CreatePaymentEntry(entry *models.PaymentEntry) error
	GetEntriesForTransaction(txID uuid.UUID) ([]*models.PaymentEntry, error)

	UpsertBorrowerProfile(profile *models.BorrowerProfile) error
	GetBorrowerProfile(phone string) (*models.BorrowerProfile, error)

	Close() error
}
