package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/benx421/payment-gateway/checkout/internal/service"
	"github.com/go-chi/chi/v5"
)

const maxMultipartMemory = 1 << 20

// VerifyPayment handles GET|POST /verify/{transactionId}. Every outcome,
// including failures, ends in a redirect for the payer's browser.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	redirectStatus := http.StatusFound
	if r.Method != http.MethodGet {
		redirectStatus = http.StatusSeeOther
	}

	pathTxnID := chi.URLParam(r, "transactionId")

	fields, err := callbackFields(w, r)
	if err != nil {
		h.logger.Warn("unreadable callback body", "txnid", pathTxnID, "error", err)
		http.Redirect(w, r, h.reconciler.ErrorRedirect(), redirectStatus)
		return
	}

	outcome, err := h.reconciler.Reconcile(r.Context(), service.NewCallbackPayload(service.SourceRedirect, pathTxnID, fields))
	if err != nil {
		http.Redirect(w, r, h.reconciler.ErrorRedirect(), redirectStatus)
		return
	}

	http.Redirect(w, r, outcome.RedirectURL, redirectStatus)
}

// WebhookResponse acknowledges a server-to-server notification
type WebhookResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// PayUWebhook handles POST /webhooks/payu. Failures the gateway can recover
// from by retrying answer 503.
func (h *Handler) PayUWebhook(w http.ResponseWriter, r *http.Request) {
	fields, err := callbackFields(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, service.ErrCodeValidation, "unreadable notification body")
		return
	}

	outcome, err := h.reconciler.Reconcile(r.Context(), service.NewCallbackPayload(service.SourceWebhook, "", fields))
	if err != nil {
		svcErr := extractServiceError(err)
		if svcErr == nil {
			h.logger.Error("unexpected error during webhook", "error", err)
			writeError(w, http.StatusServiceUnavailable, service.ErrCodeInternalError, "internal error")
			return
		}

		status := httpStatusForCode(svcErr.Code)
		if status == http.StatusInternalServerError {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, svcErr.Code, svcErr.Message)
		return
	}

	writeJSON(w, http.StatusOK, WebhookResponse{
		TransactionID: outcome.Transaction.TxnID,
		Status:        string(outcome.Status),
	})
}

// callbackFields flattens the query string and any form, multipart or JSON
// body into one map. Body values win over query values.
func callbackFields(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	fields := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}

	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
		return fields, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		if err := mergeJSONFields(r, fields); err != nil {
			return nil, err
		}
	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, fmt.Errorf("parse multipart body: %w", err)
		}
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				fields[k] = v[0]
			}
		}
	case mediaType == "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form body: %w", err)
		}
		for k, v := range r.PostForm {
			if len(v) > 0 {
				fields[k] = v[0]
			}
		}
	}

	return fields, nil
}

func mergeJSONFields(r *http.Request, fields map[string]string) error {
	var body map[string]any

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse json body: %w", err)
	}

	for k, v := range body {
		switch val := v.(type) {
		case nil:
		case string:
			fields[k] = val
		case json.Number:
			fields[k] = val.String()
		case bool:
			fields[k] = fmt.Sprint(val)
		default:
			raw, err := json.Marshal(val)
			if err != nil {
				return fmt.Errorf("encode json field %s: %w", k, err)
			}
			fields[k] = string(raw)
		}
	}
	return nil
}
