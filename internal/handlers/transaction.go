package handlers

import (
	"net/http"

	"github.com/benx421/payment-gateway/checkout/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// GetTransaction handles GET /transaction/{transactionId}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	var txnID string

	err := runtime.BindStyledParameterWithOptions("simple", "transactionId", chi.URLParam(r, "transactionId"), &txnID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, service.ErrCodeValidation, "invalid transactionId")
		return
	}

	txn, err := h.reader.GetTransaction(r.Context(), txnID)
	if err != nil {
		svcErr := extractServiceError(err)
		if svcErr == nil || svcErr.Code != service.ErrCodeNotFound {
			h.logger.Error("failed to load transaction", "txnid", txnID, "error", err)
			writeError(w, http.StatusInternalServerError, service.ErrCodeInternalError, "internal error")
			return
		}

		writeError(w, http.StatusNotFound, service.ErrCodeNotFound, "transaction not found")
		return
	}

	writeJSON(w, http.StatusOK, txn)
}
