package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/arpangupta1805/MoneyLanding/pkg/models"
)

// Loan months are fixed 30-day windows for accrual purposes, independent of
// calendar month length.
const monthWindow = 30 * 24 * time.Hour

var (
	hundred       = decimal.NewFromInt(100)
	monthsPerYear = decimal.NewFromInt(12)
)

// SimpleInterest computes principal x (rate/100) x (months/12), rounded to
// two places. Rate is percent per annum; interest is not compounded. A single
// division keeps exact fractions like 7/12 from losing the final paisa.
func SimpleInterest(principal, ratePercent decimal.Decimal, months int) decimal.Decimal {
	numerator := principal.Mul(ratePercent).Mul(decimal.NewFromInt(int64(months)))
	return numerator.DivRound(hundred.Mul(monthsPerYear), 2)
}

// MonthlyEMI is the flat installment amortizing totalPayable over the loan
// duration, rounded to two places.
func MonthlyEMI(totalPayable decimal.Decimal, durationMonths int) decimal.Decimal {
	return totalPayable.DivRound(decimal.NewFromInt(int64(durationMonths)), 2)
}

// ceilMonths counts 30-day windows between from and to, rounding any partial
// window up. Returns 0 when to is not after from.
func ceilMonths(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	d := to.Sub(from)
	months := int(d / monthWindow)
	if d%monthWindow != 0 {
		months++
	}
	return months
}

// AccrualConvention selects how interest on additional borrowings is measured
// when quoting an early payoff. The two conventions exist because top-up
// interest is charged for the time remaining to maturity at borrowing time,
// while the payoff calculation historically measured actual elapsed time per
// entry. Callers pick one; AccrueElapsed is the default.
type AccrualConvention string

const (
	// AccrueElapsed charges each borrowing for the 30-day windows actually
	// elapsed between its entry date and the as-of date.
	AccrueElapsed AccrualConvention = "elapsed"
	// AccrueRemaining charges each borrowing the interest fixed at borrowing
	// time: the windows between its entry date and the loan's end date.
	AccrueRemaining AccrualConvention = "remaining"
)

// PayoffQuote is the result of an early-payoff calculation. It is a pure
// read-side value; committing the payoff is a separate operation.
type PayoffQuote struct {
	RemainingBalance decimal.Decimal   `json:"remaining_balance"`
	TotalInterest    decimal.Decimal   `json:"total_interest"`
	SavedInterest    decimal.Decimal   `json:"saved_interest"`
	AsOf             time.Time         `json:"as_of"`
	Convention       AccrualConvention `json:"convention"`
}

// computePayoff recomputes interest for actual accrual time instead of the
// full planned duration. The base principal accrues for elapsed windows
// capped at the loan duration; each additional borrowing accrues per the
// chosen convention using its own entry date and rate override.
func computePayoff(tx *models.Transaction, entries []*models.PaymentEntry, asOf time.Time, conv AccrualConvention) PayoffQuote {
	effectiveMonths := ceilMonths(tx.StartDate, asOf)
	if effectiveMonths > tx.DurationMonths {
		effectiveMonths = tx.DurationMonths
	}
	actualInterest := SimpleInterest(tx.InitialAmount, tx.InterestRate, effectiveMonths)

	principal := tx.InitialAmount
	payments := decimal.Zero
	for _, e := range entries {
		switch e.Type {
		case models.EntryTypePayment:
			payments = payments.Add(e.Amount)
		case models.EntryTypeAdditionalBorrowing:
			rate := tx.InterestRate
			if e.InterestRate != nil {
				rate = *e.InterestRate
			}
			var months int
			if conv == AccrueRemaining {
				months = ceilMonths(e.Date, tx.EndDate)
			} else {
				months = ceilMonths(e.Date, asOf)
			}
			actualInterest = actualInterest.Add(SimpleInterest(e.Amount, rate, months))
			principal = principal.Add(e.Amount)
		}
	}

	saved := tx.TotalInterest.Sub(actualInterest)
	if saved.IsNegative() {
		saved = decimal.Zero
	}

	balance := principal.Add(actualInterest).Sub(payments)
	if balance.IsNegative() {
		balance = decimal.Zero
	}

	return PayoffQuote{
		RemainingBalance: balance,
		TotalInterest:    actualInterest,
		SavedInterest:    saved,
		AsOf:             asOf,
		Convention:       conv,
	}
}
