package service

import (
	"context"
	"errors"

	"github.com/benx421/payment-gateway/checkout/internal/models"
	"github.com/benx421/payment-gateway/checkout/internal/repository"
)

// StatusService answers transaction status queries straight from the store
type StatusService struct {
	repo repository.TransactionRepository
}

// NewStatusService creates a new StatusService
func NewStatusService(repo repository.TransactionRepository) *StatusService {
	return &StatusService{repo: repo}
}

// GetTransaction returns the stored record for txnID
func (s *StatusService) GetTransaction(ctx context.Context, txnID string) (*models.Transaction, error) {
	txn, err := s.repo.FindByTxnID(ctx, txnID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{
			Code:    ErrCodeNotFound,
			Message: "transaction not found",
		}
	}
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to load transaction",
			Err:     err,
		}
	}

	return txn, nil
}
