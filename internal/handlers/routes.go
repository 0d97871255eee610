package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/benx421/payment-gateway/checkout/internal/api"
	"github.com/benx421/payment-gateway/checkout/internal/config"
	"github.com/benx421/payment-gateway/checkout/internal/db"
	"github.com/benx421/payment-gateway/checkout/internal/gateway"
	"github.com/benx421/payment-gateway/checkout/internal/middleware"
	"github.com/benx421/payment-gateway/checkout/internal/repository"
	"github.com/benx421/payment-gateway/checkout/internal/service"
	"github.com/benx421/payment-gateway/checkout/internal/signature"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(
	database *db.DB,
	cfg *config.Config,
	logger *slog.Logger,
) (http.Handler, error) {
	signer, err := signature.NewEngine(cfg.Gateway.MerchantKey, cfg.Gateway.MerchantSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	gw := gateway.NewClient(&cfg.Gateway, signer, logger)
	txnRepo := repository.NewTransactionRepository(database)

	initiationService := service.NewInitiationService(txnRepo, gw, signer, &cfg.App, logger)
	reconciliationService := service.NewReconciliationService(txnRepo, gw, signer, &cfg.App, logger)
	statusService := service.NewStatusService(txnRepo)

	handler := NewHandler(initiationService, reconciliationService, statusService, database, logger)
	idempotencyRepo := repository.NewIdempotencyRepository(database)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.App.RedirectBase()},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{persistenceWarningHeader, "X-Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Idempotency(idempotencyRepo, logger))

	handler.Register(r)
	api.RegisterDocsRoutes(r)

	return r, nil
}

// Register mounts the checkout endpoints on r
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.GetRoot)
	r.Get("/health", h.GetHealth)

	r.Post("/initiate-payment", h.InitiatePayment)
	r.Get("/verify/{transactionId}", h.VerifyPayment)
	r.Post("/verify/{transactionId}", h.VerifyPayment)
	r.Get("/transaction/{transactionId}", h.GetTransaction)
	r.Post("/webhooks/payu", h.PayUWebhook)
}
