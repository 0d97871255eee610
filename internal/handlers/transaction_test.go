package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benx421/payment-gateway/checkout/internal/models"
	"github.com/benx421/payment-gateway/checkout/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetTransaction_Success(t *testing.T) {
	router, deps := newTestRouter(t)

	deps.reader.On("GetTransaction", mock.Anything, "TXN1").Return(&models.Transaction{
		TxnID:           "TXN1",
		Amount:          decimal.NewFromInt(100),
		Status:          models.TransactionStatusSuccess,
		ServiceDuration: "1-Month",
		Extra:           map[string]string{"name_on_card": "ASHA"},
	}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transaction/TXN1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "TXN1", body["transactionId"])
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "100", body["amount"])
	assert.Equal(t, map[string]any{"name_on_card": "ASHA"}, body["extra"])
}

func TestGetTransaction_Errors(t *testing.T) {
	tests := []struct {
		err            error
		name           string
		expectedCode   string
		expectedStatus int
	}{
		{
			name:           "not found returns 404",
			err:            &service.ServiceError{Code: service.ErrCodeNotFound, Message: "transaction not found"},
			expectedStatus: http.StatusNotFound,
			expectedCode:   service.ErrCodeNotFound,
		},
		{
			name:           "storage failure returns 500",
			err:            &service.ServiceError{Code: service.ErrCodeInternalError, Message: "failed"},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   service.ErrCodeInternalError,
		},
		{
			name:           "unexpected error returns 500",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   service.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, deps := newTestRouter(t)
			deps.reader.On("GetTransaction", mock.Anything, "TXN404").Return(nil, tt.err)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transaction/TXN404", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedCode, body.Error)
		})
	}
}
