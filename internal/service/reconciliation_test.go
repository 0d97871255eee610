package service

import (
	"context"
	"errors"
	"testing"

	"github.com/benx421/payment-gateway/checkout/internal/gateway"
	"github.com/benx421/payment-gateway/checkout/internal/models"
	repomocks "github.com/benx421/payment-gateway/checkout/internal/repository/mocks"
	"github.com/benx421/payment-gateway/checkout/internal/service/mocks"
	"github.com/benx421/payment-gateway/checkout/internal/signature"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// signedCallback returns gateway-style callback fields with a valid reverse hash
func signedCallback(t *testing.T, signer *signature.Engine, txnID, status string, extra map[string]string) map[string]string {
	t.Helper()

	fields := map[string]string{
		"key":          "mkey",
		"txnid":        txnID,
		"amount":       "100.00",
		"productinfo":  "Plan",
		"firstname":    "A",
		"email":        "a@x.com",
		"udf1":         "1-Month",
		"status":       status,
		"mihpayid":     "403993715521",
		"bank_ref_num": "BANK1",
		"mode":         "UPI",
	}
	for k, v := range extra {
		fields[k] = v
	}

	hash, err := signer.CallbackHash(NewCallbackPayload(SourceRedirect, txnID, fields).signedFields())
	require.NoError(t, err)
	fields["hash"] = hash

	return fields
}

func verified(txnID, status string) *gateway.Verification {
	return &gateway.Verification{
		TxnID:  txnID,
		Status: status,
		Found:  true,
		Details: map[string]string{
			"status":   status,
			"amt":      "100.00",
			"mihpayid": "403993715521",
		},
	}
}

func storedTxn(txnID string, status models.TransactionStatus) *models.Transaction {
	return &models.Transaction{
		TxnID:           txnID,
		Amount:          decimal.NewFromInt(100),
		Status:          status,
		ServiceDuration: "1-Month",
	}
}

func newReconciler(t *testing.T) (*ReconciliationService, *repomocks.MockTransactionRepository, *mocks.MockPaymentGateway, *signature.Engine) {
	t.Helper()
	mockRepo := repomocks.NewMockTransactionRepository(t)
	mockGateway := mocks.NewMockPaymentGateway(t)
	signer := testSigner(t)
	return NewReconciliationService(mockRepo, mockGateway, signer, testAppConfig(), testLogger()), mockRepo, mockGateway, signer
}

func TestReconciliationService_Reconcile(t *testing.T) {
	t.Run("verified success is stored and redirects to success", func(t *testing.T) {
		svc, mockRepo, mockGateway, signer := newReconciler(t)
		ctx := context.Background()

		payload := NewCallbackPayload(SourceRedirect, "TXN1", signedCallback(t, signer, "TXN1", "success", nil))

		mockGateway.On("VerifyPayment", ctx, "TXN1").Return(verified("TXN1", "success"), nil)
		mockRepo.On("Reconcile", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.TxnID == "TXN1" &&
				txn.Status == models.TransactionStatusSuccess &&
				txn.GatewayTxnID == "403993715521" &&
				txn.BankRefNum == "BANK1" &&
				txn.PaymentMode == "UPI" &&
				txn.VerifiedAt != nil &&
				txn.RawResponse["status"] == "success"
		})).Return(storedTxn("TXN1", models.TransactionStatusSuccess), true, nil)

		outcome, err := svc.Reconcile(ctx, payload)

		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusSuccess, outcome.Status)
		assert.True(t, outcome.Applied)
		assert.Equal(t, "http://shop.test/payment-success?duration=1-Month&txnid=TXN1", outcome.RedirectURL)
	})

	t.Run("claimed status is never trusted", func(t *testing.T) {
		svc, mockRepo, mockGateway, signer := newReconciler(t)
		ctx := context.Background()

		// a genuine failure callback, but the gateway now reports success
		payload := NewCallbackPayload(SourceRedirect, "TXN1", signedCallback(t, signer, "TXN1", "failure", nil))

		mockGateway.On("VerifyPayment", ctx, "TXN1").Return(verified("TXN1", "success"), nil)
		mockRepo.On("Reconcile", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.Status == models.TransactionStatusSuccess
		})).Return(storedTxn("TXN1", models.TransactionStatusSuccess), true, nil)

		outcome, err := svc.Reconcile(ctx, payload)

		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusSuccess, outcome.Status)
	})

	t.Run("verified failure redirects to failure", func(t *testing.T) {
		svc, mockRepo, mockGateway, signer := newReconciler(t)
		ctx := context.Background()

		payload := NewCallbackPayload(SourceRedirect, "TXN404", signedCallback(t, signer, "TXN404", "failure", nil))

		mockGateway.On("VerifyPayment", ctx, "TXN404").Return(verified("TXN404", "failure"), nil)
		mockRepo.On("Reconcile", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.Status == models.TransactionStatusFailed &&
				txn.Amount.Equal(decimal.NewFromInt(100)) &&
				txn.ServiceDuration == "1-Month"
		})).Return(storedTxn("TXN404", models.TransactionStatusFailed), true, nil)

		outcome, err := svc.Reconcile(ctx, payload)

		require.NoError(t, err)
		assert.Equal(t, "http://shop.test/payment-failed?duration=1-Month&txnid=TXN404", outcome.RedirectURL)
	})

	t.Run("pending goes to failure destination", func(t *testing.T) {
		svc, mockRepo, mockGateway, signer := newReconciler(t)
		ctx := context.Background()

		payload := NewCallbackPayload(SourceRedirect, "TXN1", signedCallback(t, signer, "TXN1", "pending", nil))

		mockGateway.On("VerifyPayment", ctx, "TXN1").Return(verified("TXN1", "in progress"), nil)
		mockRepo.On("Reconcile", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.Status == models.TransactionStatusPending
		})).Return(storedTxn("TXN1", models.TransactionStatusPending), true, nil)

		outcome, err := svc.Reconcile(ctx, payload)

		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusPending, outcome.Status)
		assert.Contains(t, outcome.RedirectURL, "/payment-failed?")
	})

	t.Run("stored terminal status wins", func(t *testing.T) {
		svc, mockRepo, mockGateway, signer := newReconciler(t)
		ctx := context.Background()

		payload := NewCallbackPayload(SourceRedirect, "TXN1", signedCallback(t, signer, "TXN1", "failure", nil))

		mockGateway.On("VerifyPayment", ctx, "TXN1").Return(verified("TXN1", "failure"), nil)
		mockRepo.On("Reconcile", ctx, mock.AnythingOfType("*models.Transaction")).
			Return(storedTxn("TXN1", models.TransactionStatusSuccess), false, nil)

		outcome, err := svc.Reconcile(ctx, payload)

		require.NoError(t, err)
		assert.False(t, outcome.Applied)
		assert.Equal(t, models.TransactionStatusSuccess, outcome.Status)
		assert.Contains(t, outcome.RedirectURL, "/payment-success?")
	})

	t.Run("stored duration takes precedence over callback udf1", func(t *testing.T) {
		svc, mockRepo, mockGateway, signer := newReconciler(t)
		ctx := context.Background()

		payload := NewCallbackPayload(SourceRedirect, "TXN1", signedCallback(t, signer, "TXN1", "success", nil))

		stored := storedTxn("TXN1", models.TransactionStatusSuccess)
		stored.ServiceDuration = "6-Month"

		mockGateway.On("VerifyPayment", ctx, "TXN1").Return(verified("TXN1", "success"), nil)
		mockRepo.On("Reconcile", ctx, mock.AnythingOfType("*models.Transaction")).Return(stored, true, nil)

		outcome, err := svc.Reconcile(ctx, payload)

		require.NoError(t, err)
		assert.Equal(t, "http://shop.test/payment-success?duration=6-Month&txnid=TXN1", outcome.RedirectURL)
	})

	t.Run("unrecognized fields land in extra", func(t *testing.T) {
		svc, mockRepo, mockGateway, signer := newReconciler(t)
		ctx := context.Background()

		fields := signedCallback(t, signer, "TXN1", "success", map[string]string{
			"name_on_card": "ASHA",
			"PG_TYPE":      "UPI-PG",
			"field9":       "",
		})
		payload := NewCallbackPayload(SourceRedirect, "TXN1", fields)

		mockGateway.On("VerifyPayment", ctx, "TXN1").Return(verified("TXN1", "success"), nil)
		mockRepo.On("Reconcile", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
			_, emptyKept := txn.Extra["field9"]
			_, hashKept := txn.Extra["hash"]
			return txn.Extra["name_on_card"] == "ASHA" &&
				txn.Extra["PG_TYPE"] == "UPI-PG" &&
				!emptyKept && !hashKept
		})).Return(storedTxn("TXN1", models.TransactionStatusSuccess), true, nil)

		_, err := svc.Reconcile(ctx, payload)
		require.NoError(t, err)
	})

	t.Run("verified details fill facts missing from payload", func(t *testing.T) {
		svc, mockRepo, mockGateway, signer := newReconciler(t)
		ctx := context.Background()

		fields := signedCallback(t, signer, "TXN1", "success", nil)
		delete(fields, "bank_ref_num")
		payload := NewCallbackPayload(SourceRedirect, "TXN1", fields)

		v := verified("TXN1", "success")
		v.Details["bank_ref_num"] = "FROM-LOOKUP"
		v.Details["net_amount_debit"] = "100"

		mockGateway.On("VerifyPayment", ctx, "TXN1").Return(v, nil)
		mockRepo.On("Reconcile", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.BankRefNum == "FROM-LOOKUP" && txn.NetAmountDebit.Valid
		})).Return(storedTxn("TXN1", models.TransactionStatusSuccess), true, nil)

		_, err := svc.Reconcile(ctx, payload)
		require.NoError(t, err)
	})

	t.Run("webhook takes the id from the payload", func(t *testing.T) {
		svc, mockRepo, mockGateway, signer := newReconciler(t)
		ctx := context.Background()

		payload := NewCallbackPayload(SourceWebhook, "", signedCallback(t, signer, "TXN7", "success", nil))

		mockGateway.On("VerifyPayment", ctx, "TXN7").Return(verified("TXN7", "success"), nil)
		mockRepo.On("Reconcile", ctx, mock.AnythingOfType("*models.Transaction")).
			Return(storedTxn("TXN7", models.TransactionStatusSuccess), true, nil)

		outcome, err := svc.Reconcile(ctx, payload)
		require.NoError(t, err)
		assert.Equal(t, "TXN7", outcome.Transaction.TxnID)
	})

	t.Run("lookup failure leaves the store alone", func(t *testing.T) {
		svc, mockRepo, mockGateway, signer := newReconciler(t)
		ctx := context.Background()

		payload := NewCallbackPayload(SourceRedirect, "TXN1", signedCallback(t, signer, "TXN1", "success", nil))

		mockGateway.On("VerifyPayment", ctx, "TXN1").Return(nil, gateway.ErrUnavailable)

		outcome, err := svc.Reconcile(ctx, payload)

		assert.Nil(t, outcome)
		assert.True(t, HasCode(err, ErrCodeLookupFailure))
		mockRepo.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
	})

	t.Run("store failure is an internal error", func(t *testing.T) {
		svc, mockRepo, mockGateway, signer := newReconciler(t)
		ctx := context.Background()

		payload := NewCallbackPayload(SourceRedirect, "TXN1", signedCallback(t, signer, "TXN1", "success", nil))

		mockGateway.On("VerifyPayment", ctx, "TXN1").Return(verified("TXN1", "success"), nil)
		mockRepo.On("Reconcile", ctx, mock.AnythingOfType("*models.Transaction")).
			Return(nil, false, errors.New("database is locked"))

		outcome, err := svc.Reconcile(ctx, payload)

		assert.Nil(t, outcome)
		assert.True(t, HasCode(err, ErrCodeInternalError))
	})
}

func TestReconciliationService_Reconcile_Untrusted(t *testing.T) {
	tests := []struct {
		name      string
		pathTxnID string
		mutate    func(fields map[string]string)
	}{
		{
			name:      "missing hash",
			pathTxnID: "TXN1",
			mutate:    func(f map[string]string) { delete(f, "hash") },
		},
		{
			name:      "tampered amount",
			pathTxnID: "TXN1",
			mutate:    func(f map[string]string) { f["amount"] = "1.00" },
		},
		{
			name:      "tampered status",
			pathTxnID: "TXN1",
			mutate:    func(f map[string]string) { f["status"] = "failure" },
		},
		{
			name:      "foreign merchant key",
			pathTxnID: "TXN1",
			mutate:    func(f map[string]string) { f["key"] = "other" },
		},
		{
			name:      "payload for another transaction",
			pathTxnID: "TXN2",
		},
		{
			name:      "no transaction id anywhere",
			pathTxnID: "",
			mutate:    func(f map[string]string) { delete(f, "txnid") },
		},
		{
			name:      "empty payload",
			pathTxnID: "TXN1",
			mutate: func(f map[string]string) {
				for k := range f {
					delete(f, k)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, mockGateway, signer := newReconciler(t)

			fields := signedCallback(t, signer, "TXN1", "success", nil)
			if tt.mutate != nil {
				tt.mutate(fields)
			}

			outcome, err := svc.Reconcile(context.Background(), NewCallbackPayload(SourceRedirect, tt.pathTxnID, fields))

			assert.Nil(t, outcome)
			assert.True(t, HasCode(err, ErrCodeUntrustedCallback), "expected untrusted callback, got %v", err)
			mockGateway.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything)
			mockRepo.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
		})
	}
}

func TestMapGatewayStatus(t *testing.T) {
	tests := []struct {
		raw       string
		want      models.TransactionStatus
		wantKnown bool
	}{
		{raw: "success", want: models.TransactionStatusSuccess, wantKnown: true},
		{raw: "SUCCESS", want: models.TransactionStatusSuccess, wantKnown: true},
		{raw: "pending", want: models.TransactionStatusPending, wantKnown: true},
		{raw: "in progress", want: models.TransactionStatusPending, wantKnown: true},
		{raw: "initiated", want: models.TransactionStatusPending, wantKnown: true},
		{raw: "failure", want: models.TransactionStatusFailed, wantKnown: true},
		{raw: "failed", want: models.TransactionStatusFailed, wantKnown: true},
		{raw: "dropped", want: models.TransactionStatusFailed, wantKnown: true},
		{raw: "bounced", want: models.TransactionStatusFailed, wantKnown: true},
		{raw: "userCancelled", want: models.TransactionStatusFailed, wantKnown: true},
		{raw: "cancelled", want: models.TransactionStatusFailed, wantKnown: true},
		{raw: "Not Found", want: models.TransactionStatusFailed, wantKnown: true},
		{raw: "", want: models.TransactionStatusFailed, wantKnown: true},
		{raw: "auth", want: models.TransactionStatusPending, wantKnown: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, known := MapGatewayStatus(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantKnown, known)
		})
	}
}

func TestRedirects(t *testing.T) {
	app := testAppConfig()
	app.FrontendURL = "http://shop.test/"
	r := NewRedirects(app)

	assert.Equal(t, "http://shop.test/payment-success?duration=1-Month&txnid=TXN1",
		r.For(models.TransactionStatusSuccess, "TXN1", "1-Month"))
	assert.Equal(t, "http://shop.test/payment-failed?duration=3+Months&txnid=TXN1",
		r.For(models.TransactionStatusFailed, "TXN1", "3 Months"))
	assert.Equal(t, "http://shop.test/payment-error", r.Error())
}

func TestCallbackPayload_Get(t *testing.T) {
	p := NewCallbackPayload(SourceRedirect, " TXN1 ", map[string]string{
		"txnid":         " TXN1 ",
		"error_Message": "E000",
	})

	assert.Equal(t, "TXN1", p.PathTxnID)
	assert.Equal(t, "TXN1", p.Get("txnid"))
	assert.Equal(t, "E000", p.Get("error_message"))
	assert.Equal(t, "", p.Get("missing"))
}
