package gateway

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// Payment is a signed payment request ready to be posted to the gateway
type Payment struct {
	Key         string
	TxnID       string
	Amount      decimal.Decimal
	ProductInfo string
	FirstName   string
	Email       string
	Phone       string
	SURL        string
	FURL        string
	UDF         [5]string
	Hash        string
}

// FormattedAmount renders the amount the way it is signed and posted
func (p *Payment) FormattedAmount() string {
	return p.Amount.StringFixed(2)
}

// Values returns the form fields for the gateway's payment endpoint
func (p *Payment) Values() url.Values {
	v := url.Values{}
	v.Set("key", p.Key)
	v.Set("txnid", p.TxnID)
	v.Set("amount", p.FormattedAmount())
	v.Set("productinfo", p.ProductInfo)
	v.Set("firstname", p.FirstName)
	v.Set("email", p.Email)
	v.Set("phone", p.Phone)
	v.Set("surl", p.SURL)
	v.Set("furl", p.FURL)
	for i, udf := range p.UDF {
		v.Set("udf"+strconv.Itoa(i+1), udf)
	}
	v.Set("hash", p.Hash)
	return v
}

// Initiation is the gateway's answer to a payment request.
//
// RedirectURL is set when the gateway answered with a redirect to its hosted
// checkout page. Action and Params always describe the signed form, so the
// caller can post it from the browser when no redirect was issued.
type Initiation struct {
	TxnID       string            `json:"transactionId"`
	RedirectURL string            `json:"paymentUrl,omitempty"`
	Action      string            `json:"action"`
	Params      map[string]string `json:"params"`
	StatusCode  int               `json:"gatewayStatus"`
}

// Verification is the authoritative status reported by the gateway's
// status-lookup API for a single transaction.
type Verification struct {
	Details map[string]string
	TxnID   string
	// Status is the raw gateway status, e.g. "success" or "Not Found".
	// Empty when the response carried no entry for the transaction.
	Status string
	Found  bool
}

// Amount returns the gateway-reported amount, if any
func (v *Verification) Amount() (decimal.Decimal, bool) {
	raw := v.Details["amt"]
	if raw == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// verifyResponse mirrors the postservice JSON envelope
type verifyResponse struct {
	Status             flexString      `json:"status"`
	Msg                flexString      `json:"msg"`
	TransactionDetails json.RawMessage `json:"transaction_details"`
}

// flexString decodes JSON strings, numbers, booleans and null into a string.
// The gateway is inconsistent about quoting numeric fields.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	// numbers and booleans keep their literal text
	*f = flexString(b)
	return nil
}
