// Package gateway is the HTTP client for the PayU payment and status-lookup APIs.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/benx421/payment-gateway/checkout/internal/config"
	"github.com/benx421/payment-gateway/checkout/internal/signature"
)

const (
	verifyCommand = "verify_payment"

	// responses larger than this are not something the gateway sends
	maxResponseBytes = 1 << 20
)

var (
	// ErrUnavailable covers transport failures, timeouts and non-2xx answers
	ErrUnavailable = errors.New("gateway unavailable")

	// ErrMalformedResponse is returned when a response cannot be decoded
	ErrMalformedResponse = errors.New("malformed gateway response")

	// ErrLookupRejected is returned when the status API answers with a failure status
	ErrLookupRejected = errors.New("gateway rejected status lookup")
)

// Client talks to the gateway over HTTP. Every call is bounded by the
// configured timeout.
type Client struct {
	client     *http.Client
	signer     *signature.Engine
	logger     *slog.Logger
	paymentURL string
	infoURL    string
	timeout    time.Duration
}

// NewClient creates a gateway client from configuration
func NewClient(cfg *config.GatewayConfig, signer *signature.Engine, logger *slog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
			// the payment endpoint answers with a redirect to hosted checkout,
			// which belongs to the payer's browser, not to us
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		signer:     signer,
		logger:     logger,
		paymentURL: cfg.PaymentURL,
		infoURL:    cfg.InfoURL,
		timeout:    cfg.Timeout,
	}
}

// InitiatePayment posts a signed payment to the gateway
func (c *Client) InitiatePayment(ctx context.Context, p *Payment) (*Initiation, error) {
	form := p.Values()

	resp, err := c.postForm(ctx, c.paymentURL, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: payment endpoint returned %d", ErrUnavailable, resp.StatusCode)
	}

	result := &Initiation{
		TxnID:      p.TxnID,
		Action:     c.paymentURL,
		Params:     make(map[string]string, len(form)),
		StatusCode: resp.StatusCode,
	}
	for k := range form {
		result.Params[k] = form.Get(k)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		location, err := resp.Location()
		if err != nil {
			return nil, fmt.Errorf("%w: redirect without location: %w", ErrMalformedResponse, err)
		}
		result.RedirectURL = location.String()
	}

	c.logger.Debug("payment initiated at gateway",
		"txnid", p.TxnID,
		"gateway_status", resp.StatusCode,
		"redirect", result.RedirectURL != "",
	)

	return result, nil
}

// VerifyPayment asks the gateway for the authoritative status of txnID
func (c *Client) VerifyPayment(ctx context.Context, txnID string) (*Verification, error) {
	hash, err := c.signer.SignCommand(verifyCommand, txnID)
	if err != nil {
		return nil, fmt.Errorf("sign status lookup: %w", err)
	}

	form := url.Values{}
	form.Set("key", c.signer.Key())
	form.Set("command", verifyCommand)
	form.Set("var1", txnID)
	form.Set("hash", hash)

	resp, err := c.postForm(ctx, c.infoURL, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read status response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status api returned %d", ErrUnavailable, resp.StatusCode)
	}

	return parseVerification(txnID, body)
}

func parseVerification(txnID string, body []byte) (*Verification, error) {
	var envelope verifyResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if string(envelope.Status) != "1" {
		return nil, fmt.Errorf("%w: status %q: %s", ErrLookupRejected, string(envelope.Status), string(envelope.Msg))
	}

	result := &Verification{TxnID: txnID}

	if len(envelope.TransactionDetails) == 0 || string(envelope.TransactionDetails) == "null" {
		return result, nil
	}

	var details map[string]json.RawMessage
	if err := json.Unmarshal(envelope.TransactionDetails, &details); err != nil {
		return nil, fmt.Errorf("%w: transaction_details: %w", ErrMalformedResponse, err)
	}

	raw, ok := details[txnID]
	if !ok {
		return result, nil
	}

	var fields map[string]flexString
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: details for %s: %w", ErrMalformedResponse, txnID, err)
	}

	result.Found = true
	result.Details = make(map[string]string, len(fields))
	for k, v := range fields {
		result.Details[k] = string(v)
	}
	result.Status = strings.TrimSpace(result.Details["status"])

	return result, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases the request context once the body is consumed
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
