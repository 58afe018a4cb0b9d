package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arpangupta1805/MoneyLanding/pkg/models"
)

// upcomingWindow is how far ahead a loan's end date may be to count as an
// upcoming due on the dashboard.
const upcomingWindow = 30 * 24 * time.Hour

// Stats are the dashboard aggregates for one user. All sums are scoped to
// transactions the user participates in, including TotalRepaid.
type Stats struct {
	TotalLent       decimal.Decimal `json:"total_lent"`
	TotalBorrowed   decimal.Decimal `json:"total_borrowed"`
	TotalRepaid     decimal.Decimal `json:"total_repaid"`
	UpcomingDues    decimal.Decimal `json:"upcoming_dues"`
	OverdueLent     decimal.Decimal `json:"overdue_lent"`
	OverdueBorrowed decimal.Decimal `json:"overdue_borrowed"`
}

// UserStats computes the dashboard aggregates for the user, as lender and as
// borrower. Pure read side: one scan over the user's transactions plus their
// event logs.
func (l *Ledger) UserStats(userID string) (*Stats, error) {
	txs, err := l.storage.GetTransactionsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for stats: %w", err)
	}

	now := l.now()
	horizon := now.Add(upcomingWindow)
	stats := &Stats{
		TotalLent:       decimal.Zero,
		TotalBorrowed:   decimal.Zero,
		TotalRepaid:     decimal.Zero,
		UpcomingDues:    decimal.Zero,
		OverdueLent:     decimal.Zero,
		OverdueBorrowed: decimal.Zero,
	}

	for _, tx := range txs {
		if tx.LenderID == userID {
			stats.TotalLent = stats.TotalLent.Add(tx.Amount)
			if tx.Status == models.StatusOverdue {
				stats.OverdueLent = stats.OverdueLent.Add(tx.RemainingBalance)
			}
		}
		if tx.BorrowerID == userID {
			stats.TotalBorrowed = stats.TotalBorrowed.Add(tx.Amount)
			if tx.Status == models.StatusOverdue {
				stats.OverdueBorrowed = stats.OverdueBorrowed.Add(tx.RemainingBalance)
			}
		}

		if tx.Status != models.StatusCompleted && tx.EndDate.After(now) && !tx.EndDate.After(horizon) {
			stats.UpcomingDues = stats.UpcomingDues.Add(tx.RemainingBalance)
		}

		entries, err := l.storage.GetEntriesForTransaction(tx.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load entries for stats: %w", err)
		}
		for _, e := range entries {
			if e.Type == models.EntryTypePayment {
				stats.TotalRepaid = stats.TotalRepaid.Add(e.Amount)
			}
		}
	}

	return stats, nil
}
