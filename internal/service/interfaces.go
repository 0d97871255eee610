package service

import (
	"context"

	"github.com/benx421/payment-gateway/checkout/internal/gateway"
	"github.com/benx421/payment-gateway/checkout/internal/models"
)

// HealthChecker validates system health.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// PaymentGateway is the outbound payment processor
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, p *gateway.Payment) (*gateway.Initiation, error)
	VerifyPayment(ctx context.Context, txnID string) (*gateway.Verification, error)
}

// Initiator handles payment initiation
type Initiator interface {
	Initiate(ctx context.Context, req InitiationRequest) (*InitiationResult, error)
}

// Reconciler handles gateway callbacks
type Reconciler interface {
	Reconcile(ctx context.Context, payload *CallbackPayload) (*Outcome, error)
	ErrorRedirect() string
}

// TransactionReader handles transaction status queries
type TransactionReader interface {
	GetTransaction(ctx context.Context, txnID string) (*models.Transaction, error)
}

// Ensure concrete types implement interfaces
var (
	_ PaymentGateway    = (*gateway.Client)(nil)
	_ Initiator         = (*InitiationService)(nil)
	_ Reconciler        = (*ReconciliationService)(nil)
	_ TransactionReader = (*StatusService)(nil)
)
