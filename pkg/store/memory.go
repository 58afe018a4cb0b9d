package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/arpangupta1805/MoneyLanding/pkg/models"
)

// Ensure MemoryStore implements Storage
var _ Storage = (*MemoryStore)(nil)

// MemoryStore is an in-memory Storage implementation. It backs the engine
// tests and is usable as a throwaway backend when no database path is
// configured. Values are copied on the way in and out so callers never share
// mutable state with the store.
type MemoryStore struct {
	mu       sync.Mutex
	txs      map[uuid.UUID]models.Transaction
	entries  []models.PaymentEntry
	profiles map[string]models.BorrowerProfile
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		txs:      make(map[uuid.UUID]models.Transaction),
		profiles: make(map[string]models.BorrowerProfile),
	}
}

func (m *MemoryStore) CreateTransaction(tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[tx.ID]; ok {
		return fmt.Errorf("transaction %s already exists", tx.ID)
	}
	m.txs[tx.ID] = *tx
	return nil
}

func (m *MemoryStore) GetTransaction(id uuid.UUID) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return &tx, nil
}

func (m *MemoryStore) UpdateTransaction(tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[tx.ID]; !ok {
		return fmt.Errorf("transaction %s: %w", tx.ID, ErrNotFound)
	}
	m.txs[tx.ID] = *tx
	return nil
}

func (m *MemoryStore) GetAllTransactions() ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txs := make([]*models.Transaction, 0, len(m.txs))
	for id := range m.txs {
		tx := m.txs[id]
		txs = append(txs, &tx)
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.Before(txs[j].CreatedAt) })
	return txs, nil
}

func (m *MemoryStore) GetTransactionsByUser(userID string) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txs := []*models.Transaction{}
	for id := range m.txs {
		if m.txs[id].LenderID == userID || m.txs[id].BorrowerID == userID {
			tx := m.txs[id]
			txs = append(txs, &tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.Before(txs[j].CreatedAt) })
	return txs, nil
}

func (m *MemoryStore) CreatePaymentEntry(entry *models.PaymentEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *MemoryStore) GetEntriesForTransaction(txID uuid.UUID) ([]*models.PaymentEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := []*models.PaymentEntry{}
	for i := range m.entries {
		if m.entries[i].TransactionID == txID {
			entry := m.entries[i]
			entries = append(entries, &entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	return entries, nil
}

func (m *MemoryStore) UpsertBorrowerProfile(profile *models.BorrowerProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.Phone] = *profile
	return nil
}

func (m *MemoryStore) GetBorrowerProfile(phone string) (*models.BorrowerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[phone]
	if !ok {
		return nil, fmt.Errorf("profile for %s: %w", phone, ErrNotFound)
	}
	return &profile, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
