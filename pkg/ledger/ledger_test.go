package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arpangupta1805/MoneyLanding/pkg/models"
	"github.com/arpangupta1805/MoneyLanding/pkg/store"
)

// testClock is a settable time source for pinning date-based behavior.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestLedger(t *testing.T) (*Ledger, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLedger(store.NewMemoryStore(), WithClock(clock.Now))
	return l, clock
}

func createStandardLoan(t *testing.T, l *Ledger) *models.Transaction {
	t.Helper()
	tx, err := l.CreateTransaction(context.Background(), CreateTransactionInput{
		LenderID:       "lender-1",
		BorrowerName:   "Ramesh Kumar",
		Phone:          "9876543210",
		Principal:      decimal.NewFromInt(10000),
		InterestRate:   decimal.NewFromInt(12),
		DurationMonths: 12,
	})
	require.NoError(t, err)
	return tx
}

func TestCreateTransaction(t *testing.T) {
	l, clock := newTestLedger(t)

	tx := createStandardLoan(t, l)

	assert.True(t, tx.TotalInterest.Equal(decimal.NewFromInt(1200)), "total interest, got %s", tx.TotalInterest)
	assert.True(t, tx.TotalPayable.Equal(decimal.NewFromInt(11200)), "total payable, got %s", tx.TotalPayable)
	assert.True(t, tx.MonthlyEMI.Equal(decimal.NewFromFloat(933.33)), "monthly EMI, got %s", tx.MonthlyEMI)
	assert.True(t, tx.RemainingBalance.Equal(tx.TotalPayable))
	assert.Equal(t, models.StatusActive, tx.Status)
	assert.Equal(t, clock.now.AddDate(0, 12, 0), tx.EndDate)

	profile, err := l.GetBorrowerProfile("9876543210")
	require.NoError(t, err)
	assert.Equal(t, "Ramesh Kumar", profile.Name)
}

func TestCreateTransaction_Validation(t *testing.T) {
	l, _ := newTestLedger(t)

	tests := []struct {
		name  string
		in    CreateTransactionInput
		field string
	}{
		{
			name: "non-positive principal",
			in: CreateTransactionInput{
				LenderID: "lender-1", BorrowerName: "X", Phone: "1",
				Principal: decimal.Zero, InterestRate: decimal.NewFromInt(10), DurationMonths: 6,
			},
			field: "principal",
		},
		{
			name: "negative rate",
			in: CreateTransactionInput{
				LenderID: "lender-1", BorrowerName: "X", Phone: "1",
				Principal: decimal.NewFromInt(100), InterestRate: decimal.NewFromInt(-1), DurationMonths: 6,
			},
			field: "interest_rate",
		},
		{
			name: "zero duration",
			in: CreateTransactionInput{
				LenderID: "lender-1", BorrowerName: "X", Phone: "1",
				Principal: decimal.NewFromInt(100), InterestRate: decimal.NewFromInt(10), DurationMonths: 0,
			},
			field: "duration_months",
		},
		{
			name: "missing borrower name",
			in: CreateTransactionInput{
				LenderID: "lender-1", Phone: "1",
				Principal: decimal.NewFromInt(100), InterestRate: decimal.NewFromInt(10), DurationMonths: 6,
			},
			field: "borrower_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.CreateTransaction(context.Background(), tt.in)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestRecordPayment_FullPaymentCompletes(t *testing.T) {
	l, _ := newTestLedger(t)
	tx := createStandardLoan(t, l)

	_, err := l.RecordPayment(tx.ID, decimal.NewFromInt(11200), "settled in full")
	require.NoError(t, err)

	got, err := l.GetTransaction(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.True(t, got.RemainingBalance.IsZero(), "balance should be exactly zero, got %s", got.RemainingBalance)
}

func TestRecordPayment_PartialPayment(t *testing.T) {
	l, _ := newTestLedger(t)
	tx := createStandardLoan(t, l)

	_, err := l.RecordPayment(tx.ID, decimal.NewFromInt(5000), "")
	require.NoError(t, err)

	got, err := l.GetTransaction(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPartiallyPaid, got.Status)
	assert.True(t, got.RemainingBalance.Equal(decimal.NewFromInt(6200)))
}

func TestRecordPayment_Rejections(t *testing.T) {
	l, _ := newTestLedger(t)
	tx := createStandardLoan(t, l)

	var vErr *ValidationError

	_, err := l.RecordPayment(tx.ID, decimal.NewFromInt(-10), "")
	require.ErrorAs(t, err, &vErr)

	_, err = l.RecordPayment(tx.ID, decimal.NewFromInt(20000), "")
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "exceeds remaining balance of 11200.00")

	// Balance must be untouched after rejected attempts.
	got, err := l.GetTransaction(tx.ID)
	require.NoError(t, err)
	assert.True(t, got.RemainingBalance.Equal(decimal.NewFromInt(11200)))

	// Completed transactions accept no further events.
	_, err = l.RecordPayment(tx.ID, decimal.NewFromInt(11200), "")
	require.NoError(t, err)
	_, err = l.RecordPayment(tx.ID, decimal.NewFromInt(1), "")
	var sErr *StateError
	require.ErrorAs(t, err, &sErr)
}

func TestRecordPayment_UnknownTransaction(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.RecordPayment(uuid.New(), decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestAddBorrowing(t *testing.T) {
	l, clock := newTestLedger(t)
	tx := createStandardLoan(t, l)

	// Move the clock so exactly twelve 30-day windows remain to maturity.
	clock.now = tx.EndDate.Add(-360 * 24 * time.Hour)

	rate := decimal.NewFromInt(10)
	_, err := l.AddBorrowing(tx.ID, decimal.NewFromInt(5000), "festival top-up", &rate)
	require.NoError(t, err)

	got, err := l.GetTransaction(tx.ID)
	require.NoError(t, err)

	// 5000 x 10% x 12/12 = 500 interest, 5500 payable.
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(15000)), "running principal, got %s", got.Amount)
	assert.True(t, got.RemainingBalance.Equal(decimal.NewFromInt(16700)), "balance, got %s", got.RemainingBalance)
	assert.True(t, got.TotalPayable.Equal(decimal.NewFromInt(16700)))
	assert.True(t, got.TotalInterest.Equal(decimal.NewFromInt(1700)))
	assert.Equal(t, models.StatusActive, got.Status)

	// Top-ups never move the maturity date.
	assert.Equal(t, tx.EndDate, got.EndDate)
	assert.Equal(t, tx.DurationMonths, got.DurationMonths)
	assert.True(t, got.InitialAmount.Equal(decimal.NewFromInt(10000)))
}

func TestAddBorrowing_ResetsOverdueToActive(t *testing.T) {
	l, clock := newTestLedger(t)
	tx := createStandardLoan(t, l)

	clock.now = tx.EndDate.Add(24 * time.Hour)
	_, err := l.RefreshStatuses()
	require.NoError(t, err)

	got, err := l.GetTransaction(tx.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusOverdue, got.Status)

	_, err = l.AddBorrowing(tx.ID, decimal.NewFromInt(1000), "", nil)
	require.NoError(t, err)

	got, err = l.GetTransaction(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
}

func TestAddBorrowing_Rejections(t *testing.T) {
	l, _ := newTestLedger(t)
	tx := createStandardLoan(t, l)

	var vErr *ValidationError

	_, err := l.AddBorrowing(tx.ID, decimal.Zero, "", nil)
	require.ErrorAs(t, err, &vErr)

	negative := decimal.NewFromInt(-5)
	_, err = l.AddBorrowing(tx.ID, decimal.NewFromInt(100), "", &negative)
	require.ErrorAs(t, err, &vErr)

	_, err = l.RecordPayment(tx.ID, decimal.NewFromInt(11200), "")
	require.NoError(t, err)
	_, err = l.AddBorrowing(tx.ID, decimal.NewFromInt(100), "", nil)
	var sErr *StateError
	require.ErrorAs(t, err, &sErr)
}

func TestRefreshStatuses_MarksOverdue(t *testing.T) {
	l, clock := newTestLedger(t)
	tx := createStandardLoan(t, l)

	// Still active before maturity.
	changed, err := l.RefreshStatuses()
	require.NoError(t, err)
	assert.Zero(t, changed)

	clock.now = tx.EndDate.Add(time.Hour)
	changed, err = l.RefreshStatuses()
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	got, err := l.GetTransaction(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOverdue, got.Status)

	// Second pass is a no-op.
	changed, err = l.RefreshStatuses()
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestRefreshStatuses_SkipsCompleted(t *testing.T) {
	l, clock := newTestLedger(t)
	tx := createStandardLoan(t, l)

	_, err := l.RecordPayment(tx.ID, decimal.NewFromInt(11200), "")
	require.NoError(t, err)

	clock.now = tx.EndDate.Add(time.Hour)
	changed, err := l.RefreshStatuses()
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestPayoffQuote_Midpoint(t *testing.T) {
	l, clock := newTestLedger(t)
	tx := createStandardLoan(t, l)

	// Six 30-day windows in: interest should cover half the planned term.
	asOf := clock.now.Add(180 * 24 * time.Hour)
	quote, err := l.PayoffQuote(tx.ID, asOf, "")
	require.NoError(t, err)

	assert.True(t, quote.TotalInterest.Equal(decimal.NewFromInt(600)), "actual interest, got %s", quote.TotalInterest)
	assert.True(t, quote.SavedInterest.Equal(decimal.NewFromInt(600)), "saved interest, got %s", quote.SavedInterest)
	assert.True(t, quote.RemainingBalance.Equal(decimal.NewFromInt(10600)), "payoff balance, got %s", quote.RemainingBalance)
	assert.True(t, quote.RemainingBalance.LessThan(tx.TotalPayable))
}

func TestPayoffQuote_AfterMaturity_SavedInterestClamped(t *testing.T) {
	l, clock := newTestLedger(t)
	tx := createStandardLoan(t, l)

	// Way past maturity the base accrual caps at the planned duration, so
	// nothing is saved but nothing extra is charged either.
	asOf := clock.now.Add(900 * 24 * time.Hour)
	quote, err := l.PayoffQuote(tx.ID, asOf, "")
	require.NoError(t, err)

	assert.True(t, quote.TotalInterest.Equal(decimal.NewFromInt(1200)))
	assert.True(t, quote.SavedInterest.IsZero())
	assert.True(t, quote.RemainingBalance.Equal(decimal.NewFromInt(11200)))
}

func TestPayoffQuote_Conventions(t *testing.T) {
	l, clock := newTestLedger(t)
	tx := createStandardLoan(t, l)

	// Borrow 6000 at the midpoint with six 30-day windows left to maturity.
	clock.now = tx.EndDate.Add(-180 * 24 * time.Hour)
	_, err := l.AddBorrowing(tx.ID, decimal.NewFromInt(6000), "", nil)
	require.NoError(t, err)

	// Quote one window after the top-up.
	asOf := clock.now.Add(30 * 24 * time.Hour)

	elapsed, err := l.PayoffQuote(tx.ID, asOf, AccrueElapsed)
	require.NoError(t, err)
	remaining, err := l.PayoffQuote(tx.ID, asOf, AccrueRemaining)
	require.NoError(t, err)

	// Elapsed convention charges the top-up one window of interest
	// (6000 x 12% x 1/12 = 60); remaining-term charges all six windows
	// fixed at borrowing time (6000 x 12% x 6/12 = 360).
	diff := remaining.TotalInterest.Sub(elapsed.TotalInterest)
	assert.True(t, diff.Equal(decimal.NewFromInt(300)), "convention delta, got %s", diff)
	assert.True(t, remaining.SavedInterest.LessThan(elapsed.SavedInterest))
}

func TestCompleteEarly(t *testing.T) {
	l, clock := newTestLedger(t)
	tx := createStandardLoan(t, l)

	_, err := l.RecordPayment(tx.ID, decimal.NewFromInt(4000), "")
	require.NoError(t, err)

	clock.now = clock.now.Add(180 * 24 * time.Hour)
	got, err := l.CompleteEarly(tx.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.True(t, got.RemainingBalance.IsZero())

	entries, err := l.GetEntries(tx.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	final := entries[1]
	assert.Equal(t, models.EntryTypePayment, final.Type)
	assert.Equal(t, "final payment", final.Notes)
	// 10000 principal + 600 accrued - 4000 paid.
	assert.True(t, final.Amount.Equal(decimal.NewFromInt(6600)), "final payment, got %s", final.Amount)

	// Completion is terminal.
	_, err = l.CompleteEarly(tx.ID)
	var sErr *StateError
	require.ErrorAs(t, err, &sErr)
}

func TestEntriesAreImmutableLog(t *testing.T) {
	l, clock := newTestLedger(t)
	tx := createStandardLoan(t, l)

	_, err := l.RecordPayment(tx.ID, decimal.NewFromInt(1000), "first")
	require.NoError(t, err)
	clock.now = clock.now.Add(24 * time.Hour)
	_, err = l.AddBorrowing(tx.ID, decimal.NewFromInt(500), "top-up", nil)
	require.NoError(t, err)

	entries, err := l.GetEntries(tx.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.EntryTypePayment, entries[0].Type)
	assert.Equal(t, models.EntryTypeAdditionalBorrowing, entries[1].Type)
	assert.Nil(t, entries[1].InterestRate, "no override recorded when the transaction rate applies")
}

func TestBalanceNeverNegative(t *testing.T) {
	l, _ := newTestLedger(t)
	tx := createStandardLoan(t, l)

	amounts := []int64{3000, 2000, 6200}
	for _, a := range amounts {
		_, err := l.RecordPayment(tx.ID, decimal.NewFromInt(a), "")
		require.NoError(t, err)
		got, err := l.GetTransaction(tx.ID)
		require.NoError(t, err)
		assert.False(t, got.RemainingBalance.IsNegative())
	}

	got, err := l.GetTransaction(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.True(t, got.RemainingBalance.IsZero())
}

func TestGetTransaction_NotFound(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.GetTransaction(uuid.New())
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}
