// Package handlers implements HTTP handlers for the checkout API.
package handlers

import (
	"log/slog"

	"github.com/benx421/payment-gateway/checkout/internal/service"
)

// Handler serves all checkout endpoints
type Handler struct {
	initiator     service.Initiator
	reconciler    service.Reconciler
	reader        service.TransactionReader
	healthChecker service.HealthChecker
	logger        *slog.Logger
}

// NewHandler creates a new Handler with injected service dependencies.
func NewHandler(
	initiator service.Initiator,
	reconciler service.Reconciler,
	reader service.TransactionReader,
	healthChecker service.HealthChecker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		initiator:     initiator,
		reconciler:    reconciler,
		reader:        reader,
		healthChecker: healthChecker,
		logger:        logger,
	}
}
