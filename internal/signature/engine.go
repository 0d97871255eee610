// Package signature computes and verifies the salted SHA-512 hashes that
// authenticate requests to and callbacks from the payment gateway.
package signature

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Separator joins hash fields. Field values may never contain it.
const Separator = "|"

var (
	// ErrReservedSeparator is returned when a field value contains Separator
	ErrReservedSeparator = errors.New("field contains reserved separator")

	// ErrUntrusted is returned when a callback hash is missing or does not match
	ErrUntrusted = errors.New("callback signature mismatch")
)

// Digest returns the lowercase hex SHA-512 of fields joined by Separator.
func Digest(fields ...string) (string, error) {
	for i, f := range fields {
		if strings.Contains(f, Separator) {
			return "", fmt.Errorf("field %d: %w", i, ErrReservedSeparator)
		}
	}

	sum := sha512.Sum512([]byte(strings.Join(fields, Separator)))
	return hex.EncodeToString(sum[:]), nil
}

// PaymentFields are the signed fields of an outbound payment request
type PaymentFields struct {
	TxnID       string
	Amount      string
	ProductInfo string
	FirstName   string
	Email       string
	UDF         [5]string
}

// CallbackFields are the signed fields echoed back by the gateway
type CallbackFields struct {
	AdditionalCharges string
	Status            string
	Key               string
	TxnID             string
	Amount            string
	ProductInfo       string
	FirstName         string
	Email             string
	UDF               [5]string
}

// Engine signs and verifies with one merchant key and salt
type Engine struct {
	key  string
	salt string
}

// NewEngine creates an Engine for the given merchant credentials
func NewEngine(key, salt string) (*Engine, error) {
	if key == "" || salt == "" {
		return nil, errors.New("merchant key and salt are required")
	}
	if strings.Contains(key, Separator) || strings.Contains(salt, Separator) {
		return nil, fmt.Errorf("merchant credentials: %w", ErrReservedSeparator)
	}

	return &Engine{key: key, salt: salt}, nil
}

// Key returns the merchant key the engine signs for
func (e *Engine) Key() string {
	return e.key
}

// SignPayment hashes key|txnid|amount|productinfo|firstname|email|udf1..udf5|||||salt
func (e *Engine) SignPayment(p PaymentFields) (string, error) {
	fields := make([]string, 0, 17)
	fields = append(fields, e.key, p.TxnID, p.Amount, p.ProductInfo, p.FirstName, p.Email)
	fields = append(fields, p.UDF[:]...)
	fields = append(fields, "", "", "", "", "", e.salt)

	return Digest(fields...)
}

// CallbackHash computes the reverse hash the gateway attaches to callbacks:
// [additional_charges|]salt|status||||||udf5|udf4|udf3|udf2|udf1|email|firstname|productinfo|amount|txnid|key
func (e *Engine) CallbackHash(c CallbackFields) (string, error) {
	fields := make([]string, 0, 19)
	if c.AdditionalCharges != "" {
		fields = append(fields, c.AdditionalCharges)
	}
	fields = append(fields, e.salt, c.Status, "", "", "", "", "")
	for i := len(c.UDF) - 1; i >= 0; i-- {
		fields = append(fields, c.UDF[i])
	}
	fields = append(fields, c.Email, c.FirstName, c.ProductInfo, c.Amount, c.TxnID, c.Key)

	return Digest(fields...)
}

// VerifyCallback checks hash against the expected callback hash in constant time.
func (e *Engine) VerifyCallback(c CallbackFields, hash string) error {
	if hash == "" {
		return fmt.Errorf("missing hash: %w", ErrUntrusted)
	}
	if c.Key != e.key {
		return fmt.Errorf("merchant key mismatch: %w", ErrUntrusted)
	}

	expected, err := e.CallbackHash(c)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUntrusted, err)
	}

	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(hash))) != 1 {
		return ErrUntrusted
	}

	return nil
}

// SignCommand hashes key|command|var1|salt for the merchant web service API
func (e *Engine) SignCommand(command, var1 string) (string, error) {
	return Digest(e.key, command, var1, e.salt)
}
