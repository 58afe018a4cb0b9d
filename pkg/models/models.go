package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a loan transaction.
type Status string

const (
	StatusActive        Status = "active"
	StatusPartiallyPaid Status = "partially_paid"
	StatusCompleted     Status = "completed"
	StatusOverdue       Status = "overdue"
)

// Transaction represents a single loan agreement between a lender and a
// borrower. Money fields use decimal to avoid float drift; InitialAmount,
// DurationMonths, StartDate and EndDate are fixed at creation and never
// mutated afterwards.
type Transaction struct {
	ID                 uuid.UUID       `json:"id"`
	LenderID           string          `json:"lender_id"`
	BorrowerID         string          `json:"borrower_id"`
	BorrowerName       string          `json:"borrower_name"`
	BorrowerUsername   string          `json:"borrower_username"`
	BorrowerFatherName string          `json:"borrower_father_name"`
	Address            string          `json:"address"`
	Village            string          `json:"village"`
	Phone              string          `json:"phone"`
	InitialAmount      decimal.Decimal `json:"initial_amount"`    // original principal, set once
	Amount             decimal.Decimal `json:"amount"`            // running principal, grows with top-ups
	RemainingBalance   decimal.Decimal `json:"remaining_balance"` // outstanding amount owed
	InterestRate       decimal.Decimal `json:"interest_rate"`     // percent per annum
	DurationMonths     int             `json:"duration_months"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
	MonthlyEMI         decimal.Decimal `json:"monthly_emi"`
	TotalPayable       decimal.Decimal `json:"total_payable"`
	TotalInterest      decimal.Decimal `json:"total_interest"`
	Status             Status          `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// EntryType distinguishes repayments from additional advances on the
// append-only event log.
type EntryType string

const (
	EntryTypePayment             EntryType = "payment"
	EntryTypeAdditionalBorrowing EntryType = "additional_borrowing"
)

// PaymentEntry is one immutable event on a transaction's ledger. The current
// Transaction fields are a materialized view over these entries plus the
// creation parameters.
type PaymentEntry struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Type          EntryType       `json:"type"`
	Notes         string          `json:"notes,omitempty"`
	// InterestRate overrides the transaction's rate for an
	// additional_borrowing entry. Nil means the transaction's own rate.
	InterestRate *decimal.Decimal `json:"interest_rate,omitempty"`
}

// BorrowerProfile caches borrower identity fields for autofill, keyed by
// phone number. It is upserted on every transaction creation and is not
// authoritative; the remote user directory may supersede it.
type BorrowerProfile struct {
	Phone      string    `json:"phone"`
	Name       string    `json:"name"`
	Username   string    `json:"username"`
	FatherName string    `json:"father_name"`
	Address    string    `json:"address"`
	Village    string    `json:"village"`
	UpdatedAt  time.Time `json:"updated_at"`
}
