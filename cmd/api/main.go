package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/arpangupta1805/MoneyLanding/configs"
	"github.com/arpangupta1805/MoneyLanding/pkg/auth"
	"github.com/arpangupta1805/MoneyLanding/pkg/directory"
	"github.com/arpangupta1805/MoneyLanding/pkg/ledger"
	"github.com/arpangupta1805/MoneyLanding/pkg/logging"
	"github.com/arpangupta1805/MoneyLanding/pkg/metrics"
	"github.com/arpangupta1805/MoneyLanding/pkg/store"
)

// Server holds the ledger instance behind the HTTP handlers.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage // kept so main can close it on shutdown
}

func NewServer(l *ledger.Ledger, s store.Storage) *Server {
	return &Server{ledger: l, storage: s}
}

// newRouter wires all routes. /healthz and /metrics are public; everything
// else requires a valid bearer token from the identity provider.
func newRouter(s *Server, jwtManager *auth.JWTManager) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogging, metrics.Middleware)

	router.HandleFunc("/healthz", healthzHandler).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := router.PathPrefix("/").Subrouter()
	api.Use(requireAuth(jwtManager))
	api.HandleFunc("/transactions", s.createTransactionHandler).Methods("POST")
	api.HandleFunc("/transactions", s.listTransactionsHandler).Methods("GET")
	api.HandleFunc("/transactions/{id}", s.getTransactionHandler).Methods("GET")
	api.HandleFunc("/transactions/{id}/entries", s.listEntriesHandler).Methods("GET")
	api.HandleFunc("/transactions/{id}/payments", s.recordPaymentHandler).Methods("POST")
	api.HandleFunc("/transactions/{id}/borrowings", s.addBorrowingHandler).Methods("POST")
	api.HandleFunc("/transactions/{id}/payoff", s.payoffQuoteHandler).Methods("GET")
	api.HandleFunc("/transactions/{id}/payoff", s.completeEarlyHandler).Methods("POST")
	api.HandleFunc("/stats", s.statsHandler).Methods("GET")
	api.HandleFunc("/borrowers/{phone}", s.getBorrowerProfileHandler).Methods("GET")

	return router
}

func main() {
	logging.Setup()
	cfg := configs.Load()

	sqliteStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize SQLite store", "error", err)
		os.Exit(1)
	}
	defer sqliteStore.Close()

	opts := []ledger.Option{}
	if cfg.DirectoryURL != "" {
		dir := directory.NewClient(cfg.DirectoryURL, cfg.DirectoryAPIKey, cfg.DirectoryTimeout)
		opts = append(opts, ledger.WithDirectory(dir))
		slog.Info("user directory enabled", "url", cfg.DirectoryURL)
	}
	engine := ledger.NewLedger(sqliteStore, opts...)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
	server := NewServer(engine, sqliteStore)
	router := newRouter(server, jwtManager)

	// Catch date-based overdue transitions for loans that matured while the
	// service was down, then keep refreshing periodically.
	if changed, err := engine.RefreshStatuses(); err != nil {
		slog.Error("initial status refresh failed", "error", err)
	} else if changed > 0 {
		slog.Info("marked transactions overdue on startup", "count", changed)
	}

	go func() {
		ticker := time.NewTicker(cfg.StatusRefreshInterval)
		defer ticker.Stop()

		for range ticker.C {
			changed, err := engine.RefreshStatuses()
			if err != nil {
				slog.Error("status refresh failed", "error", err)
				continue
			}
			if changed > 0 {
				slog.Info("status refresh marked transactions overdue", "count", changed)
			}
		}
	}()

	addr := ":" + cfg.ServerPort
	slog.Info("server starting", "address", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
