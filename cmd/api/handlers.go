package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/arpangupta1805/MoneyLanding/pkg/ledger"
	"github.com/arpangupta1805/MoneyLanding/pkg/models"
	"github.com/arpangupta1805/MoneyLanding/pkg/store"
)

var validate = validator.New()

type createTransactionRequest struct {
	BorrowerName       string          `json:"borrower_name" validate:"required"`
	BorrowerUsername   string          `json:"borrower_username"`
	BorrowerFatherName string          `json:"borrower_father_name"`
	Address            string          `json:"address"`
	Village            string          `json:"village"`
	Phone              string          `json:"phone" validate:"required"`
	Principal          decimal.Decimal `json:"principal"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	DurationMonths     int             `json:"duration_months" validate:"required,gt=0"`
	StartDate          *time.Time      `json:"start_date"`
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

type borrowingRequest struct {
	Amount       decimal.Decimal  `json:"amount"`
	Notes        string           `json:"notes"`
	InterestRate *decimal.Decimal `json:"interest_rate"`
}

func (s *Server) createTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	input := ledger.CreateTransactionInput{
		LenderID:           userIDFrom(r.Context()),
		BorrowerName:       req.BorrowerName,
		BorrowerUsername:   req.BorrowerUsername,
		BorrowerFatherName: req.BorrowerFatherName,
		Address:            req.Address,
		Village:            req.Village,
		Phone:              req.Phone,
		Principal:          req.Principal,
		InterestRate:       req.InterestRate,
		DurationMonths:     req.DurationMonths,
	}
	if req.StartDate != nil {
		input.StartDate = *req.StartDate
	}

	tx, err := s.ledger.CreateTransaction(r.Context(), input)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) listTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	role := r.URL.Query().Get("role")
	if role != "" && role != "lender" && role != "borrower" {
		writeJSONError(w, http.StatusBadRequest, "role must be lender or borrower")
		return
	}

	txs, err := s.ledger.ListTransactions(userID, role)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) getTransactionHandler(w http.ResponseWriter, r *http.Request) {
	tx, ok := s.participantTransaction(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) listEntriesHandler(w http.ResponseWriter, r *http.Request) {
	tx, ok := s.participantTransaction(w, r)
	if !ok {
		return
	}

	entries, err := s.ledger.GetEntries(tx.ID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) recordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	tx, ok := s.lenderTransaction(w, r)
	if !ok {
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := s.ledger.RecordPayment(tx.ID, req.Amount, req.Notes)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) addBorrowingHandler(w http.ResponseWriter, r *http.Request) {
	tx, ok := s.lenderTransaction(w, r)
	if !ok {
		return
	}

	var req borrowingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := s.ledger.AddBorrowing(tx.ID, req.Amount, req.Notes, req.InterestRate)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) payoffQuoteHandler(w http.ResponseWriter, r *http.Request) {
	tx, ok := s.participantTransaction(w, r)
	if !ok {
		return
	}

	var conv ledger.AccrualConvention
	switch r.URL.Query().Get("convention") {
	case "":
		// ledger default
	case "elapsed":
		conv = ledger.AccrueElapsed
	case "remaining":
		conv = ledger.AccrueRemaining
	default:
		writeJSONError(w, http.StatusBadRequest, "convention must be elapsed or remaining")
		return
	}

	quote, err := s.ledger.PayoffQuote(tx.ID, time.Time{}, conv)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) completeEarlyHandler(w http.ResponseWriter, r *http.Request) {
	tx, ok := s.lenderTransaction(w, r)
	if !ok {
		return
	}

	completed, err := s.ledger.CompleteEarly(tx.ID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, completed)
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.UserStats(userIDFrom(r.Context()))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) getBorrowerProfileHandler(w http.ResponseWriter, r *http.Request) {
	phone := mux.Vars(r)["phone"]
	profile, err := s.ledger.GetBorrowerProfile(phone)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// participantTransaction loads the transaction from the URL and verifies the
// current user is its lender or borrower. Writes the error response itself
// when it returns ok=false.
func (s *Server) participantTransaction(w http.ResponseWriter, r *http.Request) (*models.Transaction, bool) {
	tx, ok := s.loadTransaction(w, r)
	if !ok {
		return nil, false
	}
	userID := userIDFrom(r.Context())
	if tx.LenderID != userID && tx.BorrowerID != userID {
		writeJSONError(w, http.StatusForbidden, "not a participant of this transaction")
		return nil, false
	}
	return tx, true
}

// lenderTransaction is participantTransaction restricted to the lender, who
// is the only party allowed to mutate a loan.
func (s *Server) lenderTransaction(w http.ResponseWriter, r *http.Request) (*models.Transaction, bool) {
	tx, ok := s.loadTransaction(w, r)
	if !ok {
		return nil, false
	}
	if tx.LenderID != userIDFrom(r.Context()) {
		writeJSONError(w, http.StatusForbidden, "only the lender can modify this transaction")
		return nil, false
	}
	return tx, true
}

func (s *Server) loadTransaction(w http.ResponseWriter, r *http.Request) (*models.Transaction, bool) {
	txID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid transaction id")
		return nil, false
	}
	tx, err := s.ledger.GetTransaction(txID)
	if err != nil {
		writeLedgerError(w, err)
		return nil, false
	}
	return tx, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeLedgerError maps engine errors to HTTP statuses: validation failures
// to 400, lifecycle violations to 409, missing records to 404, everything
// else to 500.
func writeLedgerError(w http.ResponseWriter, err error) {
	var vErr *ledger.ValidationError
	var sErr *ledger.StateError
	switch {
	case errors.As(err, &vErr):
		writeJSONError(w, http.StatusBadRequest, vErr.Error())
	case errors.As(err, &sErr):
		writeJSONError(w, http.StatusConflict, sErr.Error())
	case errors.Is(err, ledger.ErrTransactionNotFound), errors.Is(err, store.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}
