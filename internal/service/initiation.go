package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/benx421/payment-gateway/checkout/internal/config"
	"github.com/benx421/payment-gateway/checkout/internal/gateway"
	"github.com/benx421/payment-gateway/checkout/internal/models"
	"github.com/benx421/payment-gateway/checkout/internal/repository"
	"github.com/benx421/payment-gateway/checkout/internal/signature"
	"github.com/shopspring/decimal"
)

// InitiationRequest is a merchant front end's request to start a payment
type InitiationRequest struct {
	TxnID           string          `json:"transactionId" validate:"required,max=64"`
	Amount          decimal.Decimal `json:"amount"`
	ProductInfo     string          `json:"productInfo" validate:"required,max=100"`
	FirstName       string          `json:"firstName" validate:"required,max=60"`
	Email           string          `json:"email" validate:"required,email,max=100"`
	Phone           string          `json:"phone,omitempty" validate:"omitempty,max=20"`
	ServiceDuration string          `json:"serviceDuration,omitempty" validate:"omitempty,max=50"`
}

func (r *InitiationRequest) normalize() {
	r.TxnID = strings.TrimSpace(r.TxnID)
	r.ProductInfo = strings.TrimSpace(r.ProductInfo)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.ServiceDuration = strings.TrimSpace(r.ServiceDuration)
}

// InitiationResult carries the gateway's answer back to the caller.
// PersistenceWarning is set when the gateway accepted the payment but the
// local record could not be written; the callback will create it later.
type InitiationResult struct {
	Gateway            *gateway.Initiation
	Transaction        *models.Transaction
	PersistenceWarning bool
}

// InitiationService signs payment requests, forwards them to the gateway and
// records the initiated transaction.
type InitiationService struct {
	repo            repository.TransactionRepository
	gateway         PaymentGateway
	signer          *signature.Engine
	logger          *slog.Logger
	backendURL      string
	defaultDuration string
}

// NewInitiationService creates a new InitiationService
func NewInitiationService(
	repo repository.TransactionRepository,
	gw PaymentGateway,
	signer *signature.Engine,
	app *config.AppConfig,
	logger *slog.Logger,
) *InitiationService {
	return &InitiationService{
		repo:            repo,
		gateway:         gw,
		signer:          signer,
		logger:          logger,
		backendURL:      strings.TrimSuffix(app.BackendURL, "/"),
		defaultDuration: app.DefaultServiceDuration,
	}
}

// Initiate validates req, signs it and forwards it to the gateway
func (s *InitiationService) Initiate(ctx context.Context, req InitiationRequest) (*InitiationResult, error) {
	req.normalize()

	if err := ValidateInitiation(&req); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeValidation,
			Message: err.Error(),
		}
	}

	logger := s.logger.With("txnid", req.TxnID)

	_, err := s.repo.FindByTxnID(ctx, req.TxnID)
	switch {
	case err == nil:
		return nil, &ServiceError{
			Code:    ErrCodeDuplicateTransaction,
			Message: "transaction id already used",
		}
	case !errors.Is(err, models.ErrNotFound):
		// the create below will surface as a persistence warning
		logger.Warn("duplicate check skipped: store unavailable", "error", err)
	}

	duration := req.ServiceDuration
	if duration == "" {
		duration = s.defaultDuration
	}

	payment := s.buildPayment(&req, duration)

	hash, err := s.signer.SignPayment(signature.PaymentFields{
		TxnID:       payment.TxnID,
		Amount:      payment.FormattedAmount(),
		ProductInfo: payment.ProductInfo,
		FirstName:   payment.FirstName,
		Email:       payment.Email,
		UDF:         payment.UDF,
	})
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeValidation,
			Message: "request contains characters that cannot be signed",
			Err:     err,
		}
	}
	payment.Hash = hash

	initiation, err := s.gateway.InitiatePayment(ctx, payment)
	if err != nil {
		logger.Error("gateway initiation failed", "error", err)
		return nil, &ServiceError{
			Code:    ErrCodeGatewayError,
			Message: "payment initiation failed",
			Err:     err,
		}
	}

	txn := &models.Transaction{
		TxnID:           req.TxnID,
		Amount:          payment.Amount,
		ProductInfo:     req.ProductInfo,
		FirstName:       req.FirstName,
		Email:           req.Email,
		Phone:           req.Phone,
		ServiceDuration: duration,
		Status:          models.TransactionStatusInitiated,
		UDF1:            duration,
	}

	if err := s.repo.Create(ctx, txn); err != nil {
		logger.Warn("persistence warning: initiated transaction not recorded",
			"code", ErrCodePersistenceWarning,
			"error", err,
		)
		return &InitiationResult{
			Gateway:            initiation,
			PersistenceWarning: true,
		}, nil
	}

	logger.Info("payment initiated", "amount", payment.FormattedAmount())

	return &InitiationResult{
		Gateway:     initiation,
		Transaction: txn,
	}, nil
}

func (s *InitiationService) buildPayment(req *InitiationRequest, duration string) *gateway.Payment {
	callback := s.backendURL + "/verify/" + url.PathEscape(req.TxnID)

	return &gateway.Payment{
		Key:         s.signer.Key(),
		TxnID:       req.TxnID,
		Amount:      req.Amount.Round(2),
		ProductInfo: req.ProductInfo,
		FirstName:   req.FirstName,
		Email:       req.Email,
		Phone:       req.Phone,
		SURL:        callback,
		FURL:        callback,
		UDF:         [5]string{duration},
	}
}
