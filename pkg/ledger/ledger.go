// Package ledger implements the loan-lifecycle engine: transaction creation,
// repayment and top-up recording, the status state machine, early payoff, and
// dashboard aggregates. All persistence goes through the store.Storage port
// so the engine stays testable against an in-memory implementation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arpangupta1805/MoneyLanding/pkg/directory"
	"github.com/arpangupta1805/MoneyLanding/pkg/models"
	"github.com/arpangupta1805/MoneyLanding/pkg/store"
)

// Ledger handles the business logic for loan transactions and their event
// log. It assumes a single active writer; operations are not safe for
// concurrent mutation of the same transaction.
type Ledger struct {
	storage    store.Storage
	directory  directory.Lookup // optional, may be nil
	convention AccrualConvention
	now        func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithDirectory enables opportunistic borrower lookup and auto-registration
// against the remote user directory.
func WithDirectory(d directory.Lookup) Option {
	return func(l *Ledger) { l.directory = d }
}

// WithClock overrides the time source. Used by tests to pin date-based
// status transitions and accrual windows.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithAccrualConvention sets the default early-payoff accrual convention.
func WithAccrualConvention(c AccrualConvention) Option {
	return func(l *Ledger) { l.convention = c }
}

// NewLedger creates a Ledger backed by the given Storage implementation.
func NewLedger(s store.Storage, opts ...Option) *Ledger {
	l := &Ledger{
		storage:    s,
		convention: AccrueElapsed,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateTransactionInput carries the parameters for a new loan agreement.
type CreateTransactionInput struct {
	LenderID           string
	BorrowerName       string
	BorrowerUsername   string
	BorrowerFatherName string
	Address            string
	Village            string
	Phone              string
	Principal          decimal.Decimal
	InterestRate       decimal.Decimal // percent per annum
	DurationMonths     int
	StartDate          time.Time // zero value means now
}

func (in *CreateTransactionInput) validate() error {
	if in.LenderID == "" {
		return &ValidationError{Field: "lender_id", Reason: "required"}
	}
	if in.BorrowerName == "" {
		return &ValidationError{Field: "borrower_name", Reason: "required"}
	}
	if in.Phone == "" {
		return &ValidationError{Field: "phone", Reason: "required"}
	}
	if !in.Principal.IsPositive() {
		return &ValidationError{Field: "principal", Reason: "must be positive"}
	}
	if in.InterestRate.IsNegative() {
		return &ValidationError{Field: "interest_rate", Reason: "must not be negative"}
	}
	if in.DurationMonths <= 0 {
		return &ValidationError{Field: "duration_months", Reason: "must be a positive number of months"}
	}
	return nil
}

// CreateTransaction validates the input, derives the amortization figures
// (simple interest, not compound) and persists the new transaction with
// status active. It also upserts the borrower's autofill profile and, when a
// directory is configured, resolves or registers the borrower's account by
// phone. Directory and profile failures are logged and never block creation.
func (l *Ledger) CreateTransaction(ctx context.Context, in CreateTransactionInput) (*models.Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := l.now()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}

	totalInterest := SimpleInterest(in.Principal, in.InterestRate, in.DurationMonths)
	totalPayable := in.Principal.Add(totalInterest)

	tx := &models.Transaction{
		ID:                 uuid.New(),
		LenderID:           in.LenderID,
		BorrowerID:         l.resolveBorrowerID(ctx, in),
		BorrowerName:       in.BorrowerName,
		BorrowerUsername:   in.BorrowerUsername,
		BorrowerFatherName: in.BorrowerFatherName,
		Address:            in.Address,
		Village:            in.Village,
		Phone:              in.Phone,
		InitialAmount:      in.Principal,
		Amount:             in.Principal,
		RemainingBalance:   totalPayable,
		InterestRate:       in.InterestRate,
		DurationMonths:     in.DurationMonths,
		StartDate:          start,
		EndDate:            start.AddDate(0, in.DurationMonths, 0),
		MonthlyEMI:         MonthlyEMI(totalPayable, in.DurationMonths),
		TotalPayable:       totalPayable,
		TotalInterest:      totalInterest,
		Status:             models.StatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := l.storage.CreateTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to store transaction: %w", err)
	}

	profile := &models.BorrowerProfile{
		Phone:      in.Phone,
		Name:       in.BorrowerName,
		Username:   in.BorrowerUsername,
		FatherName: in.BorrowerFatherName,
		Address:    in.Address,
		Village:    in.Village,
		UpdatedAt:  now,
	}
	if err := l.storage.UpsertBorrowerProfile(profile); err != nil {
		slog.Warn("failed to upsert borrower profile", "phone", in.Phone, "error", err)
	}

	return tx, nil
}

// resolveBorrowerID asks the directory for the borrower's account id,
// registering the borrower when no account exists. Any failure falls back to
// a locally generated id.
func (l *Ledger) resolveBorrowerID(ctx context.Context, in CreateTransactionInput) string {
	if l.directory == nil {
		return uuid.NewString()
	}

	user, err := l.directory.LookupByPhone(ctx, in.Phone)
	if err == nil {
		return user.ID
	}
	if err != directory.ErrUserNotFound {
		slog.Warn("directory lookup failed", "phone", in.Phone, "error", err)
		return uuid.NewString()
	}

	created, err := l.directory.Register(ctx, &directory.User{
		Username: in.BorrowerUsername,
		Name:     in.BorrowerName,
		Phone:    in.Phone,
	})
	if err != nil {
		slog.Warn("borrower auto-registration failed", "phone", in.Phone, "error", err)
		return uuid.NewString()
	}
	return created.ID
}

// GetTransaction retrieves a transaction by its ID.
func (l *Ledger) GetTransaction(id uuid.UUID) (*models.Transaction, error) {
	tx, err := l.storage.GetTransaction(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
		}
		return nil, err
	}
	return tx, nil
}

// ListTransactions returns the transactions where the user participates. Role
// filters to "lender" or "borrower"; empty means both sides.
func (l *Ledger) ListTransactions(userID, role string) ([]*models.Transaction, error) {
	txs, err := l.storage.GetTransactionsByUser(userID)
	if err != nil {
		return nil, err
	}
	if role == "" {
		return txs, nil
	}

	filtered := []*models.Transaction{}
	for _, tx := range txs {
		switch role {
		case "lender":
			if tx.LenderID == userID {
				filtered = append(filtered, tx)
			}
		case "borrower":
			if tx.BorrowerID == userID {
				filtered = append(filtered, tx)
			}
		}
	}
	return filtered, nil
}

// GetEntries returns the append-only event log for a transaction.
func (l *Ledger) GetEntries(txID uuid.UUID) ([]*models.PaymentEntry, error) {
	if _, err := l.GetTransaction(txID); err != nil {
		return nil, err
	}
	return l.storage.GetEntriesForTransaction(txID)
}

// GetBorrowerProfile returns the cached autofill profile for a phone number.
func (l *Ledger) GetBorrowerProfile(phone string) (*models.BorrowerProfile, error) {
	return l.storage.GetBorrowerProfile(phone)
}

// RecordPayment appends a repayment to the transaction's event log,
// decrements the remaining balance and re-evaluates the status machine.
// The amount must be positive and not exceed the remaining balance.
func (l *Ledger) RecordPayment(txID uuid.UUID, amount decimal.Decimal, notes string) (*models.PaymentEntry, error) {
	tx, err := l.GetTransaction(txID)
	if err != nil {
		return nil, err
	}
	if tx.Status == models.StatusCompleted {
		return nil, &StateError{Op: "record payment", Reason: "transaction is already completed"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if amount.GreaterThan(tx.RemainingBalance) {
		return nil, &ValidationError{
			Field:  "amount",
			Reason: fmt.Sprintf("amount exceeds remaining balance of %s", tx.RemainingBalance.StringFixed(2)),
		}
	}

	now := l.now()
	entry := &models.PaymentEntry{
		ID:            uuid.New(),
		TransactionID: tx.ID,
		Amount:        amount,
		Date:          now,
		Type:          models.EntryTypePayment,
		Notes:         notes,
	}
	if err := l.storage.CreatePaymentEntry(entry); err != nil {
		return nil, fmt.Errorf("failed to store payment entry: %w", err)
	}

	tx.RemainingBalance = tx.RemainingBalance.Sub(amount)
	applyStatus(tx, now)
	tx.UpdatedAt = now
	if err := l.storage.UpdateTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to update transaction balance: %w", err)
	}

	return entry, nil
}

// AddBorrowing records an additional advance on an existing loan. Interest
// for the top-up covers the 30-day windows remaining to the original end
// date; duration and end date never change. The visible status resets to
// active because new principal makes the loan live again.
func (l *Ledger) AddBorrowing(txID uuid.UUID, amount decimal.Decimal, notes string, rateOverride *decimal.Decimal) (*models.PaymentEntry, error) {
	tx, err := l.GetTransaction(txID)
	if err != nil {
		return nil, err
	}
	if tx.Status == models.StatusCompleted {
		return nil, &StateError{Op: "add borrowing", Reason: "transaction is already completed"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if rateOverride != nil && rateOverride.IsNegative() {
		return nil, &ValidationError{Field: "interest_rate", Reason: "must not be negative"}
	}

	rate := tx.InterestRate
	if rateOverride != nil {
		rate = *rateOverride
	}

	now := l.now()
	monthsUntilEnd := ceilMonths(now, tx.EndDate)
	additionalInterest := SimpleInterest(amount, rate, monthsUntilEnd)
	additionalPayable := amount.Add(additionalInterest)

	entry := &models.PaymentEntry{
		ID:            uuid.New(),
		TransactionID: tx.ID,
		Amount:        amount,
		Date:          now,
		Type:          models.EntryTypeAdditionalBorrowing,
		Notes:         notes,
		InterestRate:  rateOverride,
	}
	if err := l.storage.CreatePaymentEntry(entry); err != nil {
		return nil, fmt.Errorf("failed to store borrowing entry: %w", err)
	}

	tx.Amount = tx.Amount.Add(amount)
	tx.TotalPayable = tx.TotalPayable.Add(additionalPayable)
	tx.TotalInterest = tx.TotalInterest.Add(additionalInterest)
	tx.RemainingBalance = tx.RemainingBalance.Add(additionalPayable)
	tx.Status = models.StatusActive
	tx.UpdatedAt = now
	if err := l.storage.UpdateTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to update transaction for borrowing: %w", err)
	}

	return entry, nil
}

// PayoffQuote computes what settling the loan at asOf would cost, charging
// interest for actual accrual time instead of the full planned duration.
// It never mutates state. A zero asOf means now; an empty convention uses
// the ledger default.
func (l *Ledger) PayoffQuote(txID uuid.UUID, asOf time.Time, conv AccrualConvention) (*PayoffQuote, error) {
	tx, err := l.GetTransaction(txID)
	if err != nil {
		return nil, err
	}
	entries, err := l.storage.GetEntriesForTransaction(txID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries for payoff: %w", err)
	}

	if asOf.IsZero() {
		asOf = l.now()
	}
	if conv == "" {
		conv = l.convention
	}

	quote := computePayoff(tx, entries, asOf, conv)
	return &quote, nil
}

// CompleteEarly settles the loan at the current payoff amount: it appends a
// final synthetic payment for any outstanding balance, forces the status to
// completed and the balance to exactly zero. Calling it on an already
// completed transaction is rejected.
func (l *Ledger) CompleteEarly(txID uuid.UUID) (*models.Transaction, error) {
	tx, err := l.GetTransaction(txID)
	if err != nil {
		return nil, err
	}
	if tx.Status == models.StatusCompleted {
		return nil, &StateError{Op: "complete early", Reason: "transaction is already completed"}
	}

	entries, err := l.storage.GetEntriesForTransaction(txID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries for completion: %w", err)
	}

	now := l.now()
	quote := computePayoff(tx, entries, now, l.convention)

	if quote.RemainingBalance.IsPositive() {
		entry := &models.PaymentEntry{
			ID:            uuid.New(),
			TransactionID: tx.ID,
			Amount:        quote.RemainingBalance,
			Date:          now,
			Type:          models.EntryTypePayment,
			Notes:         "final payment",
		}
		if err := l.storage.CreatePaymentEntry(entry); err != nil {
			return nil, fmt.Errorf("failed to store final payment: %w", err)
		}
	}

	tx.Status = models.StatusCompleted
	tx.RemainingBalance = decimal.Zero
	tx.UpdatedAt = now
	if err := l.storage.UpdateTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to update transaction on completion: %w", err)
	}

	slog.Info("transaction completed early",
		"transaction_id", tx.ID,
		"paid_off", quote.RemainingBalance.StringFixed(2),
		"saved_interest", quote.SavedInterest.StringFixed(2),
	)
	return tx, nil
}

// RefreshStatuses applies date-based overdue transitions across all
// non-completed transactions. It exists so loans turn overdue without a
// triggering event; cmd/api runs it periodically. Returns the number of
// transactions that changed status.
func (l *Ledger) RefreshStatuses() (int, error) {
	txs, err := l.storage.GetAllTransactions()
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions for status refresh: %w", err)
	}

	now := l.now()
	changed := 0
	for _, tx := range txs {
		if tx.Status == models.StatusCompleted || tx.Status == models.StatusOverdue {
			continue
		}
		if now.After(tx.EndDate) && tx.RemainingBalance.IsPositive() {
			tx.Status = models.StatusOverdue
			tx.UpdatedAt = now
			if err := l.storage.UpdateTransaction(tx); err != nil {
				return changed, fmt.Errorf("failed to mark transaction %s overdue: %w", tx.ID, err)
			}
			changed++
		}
	}
	return changed, nil
}

// applyStatus runs the state machine after a balance change. Rule order:
// zero balance wins, then partial payment, then the end-date check.
func applyStatus(tx *models.Transaction, now time.Time) {
	switch {
	case !tx.RemainingBalance.IsPositive():
		tx.RemainingBalance = decimal.Zero
		tx.Status = models.StatusCompleted
	case tx.RemainingBalance.LessThan(tx.TotalPayable):
		tx.Status = models.StatusPartiallyPaid
	case now.After(tx.EndDate):
		tx.Status = models.StatusOverdue
	default:
		tx.Status = models.StatusActive
	}
}
