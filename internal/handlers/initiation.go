package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/benx421/payment-gateway/checkout/internal/service"
)

const (
	maxBodyBytes             = 1 << 20
	persistenceWarningHeader = "X-Persistence-Warning"
)

// InitiatePayment handles POST /initiate-payment
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req service.InitiationRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.logger.Debug("rejected initiation body", "error", err)
		writeError(w, http.StatusBadRequest, service.ErrCodeValidation, "request body must be a JSON object with a numeric amount")
		return
	}

	result, err := h.initiator.Initiate(r.Context(), req)
	if err != nil {
		h.handleInitiationError(w, err)
		return
	}

	if result.PersistenceWarning {
		w.Header().Set(persistenceWarningHeader, "true")
	}

	writeJSON(w, http.StatusOK, result.Gateway)
}

func (h *Handler) handleInitiationError(w http.ResponseWriter, err error) {
	svcErr := extractServiceError(err)
	if svcErr == nil {
		h.logger.Error("unexpected error during initiation", "error", err)
		writeError(w, http.StatusInternalServerError, service.ErrCodeInternalError, "internal error")
		return
	}

	writeError(w, httpStatusForCode(svcErr.Code), svcErr.Code, svcErr.Message)
}
