package service

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/benx421/payment-gateway/checkout/internal/config"
	"github.com/benx421/payment-gateway/checkout/internal/gateway"
	"github.com/benx421/payment-gateway/checkout/internal/models"
	"github.com/benx421/payment-gateway/checkout/internal/repository"
	"github.com/benx421/payment-gateway/checkout/internal/signature"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	errMissingTxnID  = errors.New("callback carries no transaction id")
	errTxnIDMismatch = errors.New("payload txnid does not match callback url")
)

// Callback sources
const (
	SourceRedirect = "redirect"
	SourceWebhook  = "webhook"
)

// CallbackPayload is a gateway callback normalized from whatever transport
// carried it: query string, form body or JSON body.
type CallbackPayload struct {
	Fields map[string]string
	// PathTxnID is the transaction id from the callback URL; empty for webhooks
	PathTxnID string
	Source    string
}

// NewCallbackPayload creates a payload, trimming surrounding whitespace from values
func NewCallbackPayload(source, pathTxnID string, fields map[string]string) *CallbackPayload {
	normalized := make(map[string]string, len(fields))
	for k, v := range fields {
		normalized[k] = strings.TrimSpace(v)
	}
	return &CallbackPayload{
		Fields:    normalized,
		PathTxnID: strings.TrimSpace(pathTxnID),
		Source:    source,
	}
}

// Get returns the named field, falling back to a case-insensitive match
func (p *CallbackPayload) Get(name string) string {
	if v, ok := p.Fields[name]; ok {
		return v
	}
	for k, v := range p.Fields {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func (p *CallbackPayload) signedFields() signature.CallbackFields {
	c := signature.CallbackFields{
		AdditionalCharges: p.Get("additional_charges"),
		Status:            p.Get("status"),
		Key:               p.Get("key"),
		TxnID:             p.Get("txnid"),
		Amount:            p.Get("amount"),
		ProductInfo:       p.Get("productinfo"),
		FirstName:         p.Get("firstname"),
		Email:             p.Get("email"),
	}
	for i := range c.UDF {
		c.UDF[i] = p.Get("udf" + strconv.Itoa(i+1))
	}
	return c
}

// knownCallbackFields have a dedicated column or are part of the signature
var knownCallbackFields = map[string]bool{
	"key": true, "txnid": true, "amount": true, "productinfo": true, "firstname": true,
	"email": true, "phone": true, "status": true, "hash": true, "mihpayid": true,
	"bank_ref_num": true, "mode": true, "error_message": true, "error": true,
	"additional_charges": true, "net_amount_debit": true, "payment_source": true,
	"cardcategory": true, "card_type": true, "bankcode": true,
	"udf1": true, "udf2": true, "udf3": true, "udf4": true, "udf5": true,
}

// Outcome is the result of reconciling one callback
type Outcome struct {
	Transaction *models.Transaction
	RedirectURL string
	Status      models.TransactionStatus
	// Applied is false when a stored terminal status rejected the update
	Applied bool
}

// ReconciliationService verifies gateway callbacks and merges the
// authoritative outcome into the store.
type ReconciliationService struct {
	repo            repository.TransactionRepository
	gateway         PaymentGateway
	signer          *signature.Engine
	redirects       Redirects
	logger          *slog.Logger
	defaultDuration string
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	repo repository.TransactionRepository,
	gw PaymentGateway,
	signer *signature.Engine,
	app *config.AppConfig,
	logger *slog.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		repo:            repo,
		gateway:         gw,
		signer:          signer,
		redirects:       NewRedirects(app),
		logger:          logger,
		defaultDuration: app.DefaultServiceDuration,
	}
}

// Reconcile authenticates the callback, re-verifies the status with the
// gateway and merges the result into the store. The callback's own status
// claim is never stored.
func (s *ReconciliationService) Reconcile(ctx context.Context, p *CallbackPayload) (*Outcome, error) {
	txnID := p.PathTxnID
	payloadTxnID := p.Get("txnid")
	if txnID == "" {
		txnID = payloadTxnID
	}

	logger := s.logger.With(
		"txnid", txnID,
		"callback_id", uuid.NewString(),
		"source", p.Source,
	)

	if err := s.authenticate(txnID, payloadTxnID, p); err != nil {
		logger.Warn("untrusted callback discarded",
			"security_event", true,
			"payload_txnid", payloadTxnID,
			"error", err,
		)
		return nil, &ServiceError{
			Code:    ErrCodeUntrustedCallback,
			Message: "callback failed authenticity check",
			Err:     err,
		}
	}

	verification, err := s.gateway.VerifyPayment(ctx, txnID)
	if err != nil {
		logger.Error("status lookup failed", "error", err)
		return nil, &ServiceError{
			Code:    ErrCodeLookupFailure,
			Message: "could not verify payment status",
			Err:     err,
		}
	}

	status, known := MapGatewayStatus(verification.Status)
	if !known {
		logger.Warn("unrecognized gateway status treated as pending", "gateway_status", verification.Status)
	}

	claimed := p.Get("status")
	if claimed != "" {
		if mapped, _ := MapGatewayStatus(claimed); mapped != status {
			logger.Warn("callback status disagrees with gateway",
				"claimed_status", claimed,
				"verified_status", status,
			)
		}
	}

	incoming := s.buildTransaction(txnID, status, p, verification)

	stored, applied, err := s.repo.Reconcile(ctx, incoming)
	if err != nil {
		logger.Error("failed to reconcile transaction", "error", err)
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to record payment outcome",
			Err:     err,
		}
	}

	if !applied {
		logger.Warn("status regression rejected",
			"stored_status", stored.Status,
			"incoming_status", status,
		)
	}

	s.crossCheckAmount(logger, stored, p, verification)

	duration := stored.ServiceDuration
	if duration == "" {
		duration = p.Get("udf1")
	}
	if duration == "" {
		duration = s.defaultDuration
	}

	logger.Info("callback reconciled",
		"status", stored.Status,
		"applied", applied,
	)

	return &Outcome{
		Transaction: stored,
		RedirectURL: s.redirects.For(stored.Status, txnID, duration),
		Status:      stored.Status,
		Applied:     applied,
	}, nil
}

// ErrorRedirect is where callbacks that fail go
func (s *ReconciliationService) ErrorRedirect() string {
	return s.redirects.Error()
}

func (s *ReconciliationService) authenticate(txnID, payloadTxnID string, p *CallbackPayload) error {
	if txnID == "" {
		return errMissingTxnID
	}
	if payloadTxnID != txnID {
		return errTxnIDMismatch
	}
	return s.signer.VerifyCallback(p.signedFields(), p.Get("hash"))
}

func (s *ReconciliationService) buildTransaction(
	txnID string,
	status models.TransactionStatus,
	p *CallbackPayload,
	v *gateway.Verification,
) *models.Transaction {
	// payload first, then the verified details
	fact := func(keys ...string) string {
		for _, k := range keys {
			if val := p.Get(k); val != "" {
				return val
			}
		}
		for _, k := range keys {
			if val := strings.TrimSpace(v.Details[k]); val != "" {
				return val
			}
		}
		return ""
	}

	now := time.Now().UTC()
	duration := p.Get("udf1")
	if duration == "" {
		duration = s.defaultDuration
	}

	txn := &models.Transaction{
		TxnID:             txnID,
		ProductInfo:       p.Get("productinfo"),
		FirstName:         p.Get("firstname"),
		Email:             p.Get("email"),
		Phone:             p.Get("phone"),
		ServiceDuration:   duration,
		Status:            status,
		GatewayTxnID:      fact("mihpayid"),
		BankRefNum:        fact("bank_ref_num", "bank_ref_no"),
		PaymentMode:       fact("mode"),
		ErrorMessage:      fact("error_Message", "error"),
		AdditionalCharges: parseNullDecimal(fact("additional_charges")),
		NetAmountDebit:    parseNullDecimal(fact("net_amount_debit")),
		PaymentSource:     fact("payment_source"),
		CardType:          fact("cardCategory", "card_type"),
		BankCode:          fact("bankcode"),
		UDF1:              p.Get("udf1"),
		UDF2:              p.Get("udf2"),
		UDF3:              p.Get("udf3"),
		UDF4:              p.Get("udf4"),
		UDF5:              p.Get("udf5"),
		VerifiedAt:        &now,
		RawResponse:       maps.Clone(p.Fields),
	}

	// only used if this callback creates the record
	if amount, ok := parseAmount(p.Get("amount")); ok {
		txn.Amount = amount
	} else if amount, ok := v.Amount(); ok {
		txn.Amount = amount
	}

	for k, val := range p.Fields {
		if !knownCallbackFields[strings.ToLower(k)] && val != "" {
			if txn.Extra == nil {
				txn.Extra = make(map[string]string)
			}
			txn.Extra[k] = val
		}
	}

	return txn
}

func (s *ReconciliationService) crossCheckAmount(
	logger *slog.Logger,
	stored *models.Transaction,
	p *CallbackPayload,
	v *gateway.Verification,
) {
	reported := map[string]string{}
	if amount, ok := parseAmount(p.Get("amount")); ok && !amount.Equal(stored.Amount) {
		reported["callback_amount"] = amount.String()
	}
	if amount, ok := v.Amount(); ok && !amount.Equal(stored.Amount) {
		reported["verified_amount"] = amount.String()
	}
	if len(reported) == 0 {
		return
	}

	attrs := []any{"stored_amount", stored.Amount.String()}
	for k, val := range reported {
		attrs = append(attrs, k, val)
	}
	logger.Warn("amount mismatch: keeping requested amount", attrs...)
}

func parseAmount(raw string) (decimal.Decimal, bool) {
	if raw == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func parseNullDecimal(raw string) decimal.NullDecimal {
	d, ok := parseAmount(raw)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// MapGatewayStatus maps a raw gateway status onto the stored lifecycle.
// Unknown values map to pending and report known=false.
func MapGatewayStatus(raw string) (status models.TransactionStatus, known bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success":
		return models.TransactionStatusSuccess, true
	case "pending", "in progress", "initiated":
		return models.TransactionStatusPending, true
	case "", "failure", "failed", "dropped", "bounced", "usercancelled", "cancelled", "not found":
		return models.TransactionStatusFailed, true
	default:
		return models.TransactionStatusPending, false
	}
}

// Redirects builds the payer-facing destinations after a callback
type Redirects struct {
	base        string
	successPath string
	failurePath string
	errorPath   string
}

// NewRedirects creates Redirects from application configuration
func NewRedirects(app *config.AppConfig) Redirects {
	return Redirects{
		base:        app.RedirectBase(),
		successPath: app.SuccessPath,
		failurePath: app.FailurePath,
		errorPath:   app.ErrorPath,
	}
}

// For returns the destination for a stored status
func (r Redirects) For(status models.TransactionStatus, txnID, duration string) string {
	path := r.failurePath
	if status == models.TransactionStatusSuccess {
		path = r.successPath
	}

	q := url.Values{}
	q.Set("txnid", txnID)
	q.Set("duration", duration)

	return r.base + path + "?" + q.Encode()
}

// Error returns the generic error destination
func (r Redirects) Error() string {
	return r.base + r.errorPath
}
