package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus represents the lifecycle state of a payment
type TransactionStatus string

const (
	TransactionStatusInitiated TransactionStatus = "initiated"
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusSuccess   TransactionStatus = "success"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// DefaultServiceDuration is the tier recorded when the caller does not name one
const DefaultServiceDuration = "1-Month"

// IsTerminal reports whether no further status transition is allowed
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusFailed
}

// Valid reports whether s is one of the known statuses
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusInitiated, TransactionStatusPending, TransactionStatusSuccess, TransactionStatusFailed:
		return true
	}
	return false
}

// Transaction is the single persisted record per merchant transaction id.
//
// Amount is the amount requested at initiation and is never rewritten by
// callback processing. Extra carries gateway fields without a dedicated column.
type Transaction struct {
	CreatedAt         time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time           `json:"updatedAt" db:"updated_at"`
	VerifiedAt        *time.Time          `json:"verifiedAt,omitempty" db:"verified_at"`
	RawResponse       map[string]string   `json:"rawResponse,omitempty" db:"raw_response"`
	Extra             map[string]string   `json:"extra,omitempty" db:"extra"`
	AdditionalCharges decimal.NullDecimal `json:"additionalCharges" db:"additional_charges"`
	NetAmountDebit    decimal.NullDecimal `json:"netAmountDebit" db:"net_amount_debit"`
	Amount            decimal.Decimal     `json:"amount" db:"amount"`
	TxnID             string              `json:"transactionId" db:"txn_id"`
	ProductInfo       string              `json:"productInfo" db:"product_info"`
	FirstName         string              `json:"firstName" db:"first_name"`
	Email             string              `json:"email" db:"email"`
	Phone             string              `json:"phone,omitempty" db:"phone"`
	ServiceDuration   string              `json:"serviceDuration" db:"service_duration"`
	Status            TransactionStatus   `json:"status" db:"status"`
	GatewayTxnID      string              `json:"gatewayTransactionId,omitempty" db:"gateway_txn_id"`
	BankRefNum        string              `json:"bankReferenceNumber,omitempty" db:"bank_ref_num"`
	PaymentMode       string              `json:"paymentMode,omitempty" db:"payment_mode"`
	ErrorMessage      string              `json:"errorMessage,omitempty" db:"error_message"`
	PaymentSource     string              `json:"paymentSource,omitempty" db:"payment_source"`
	CardType          string              `json:"cardType,omitempty" db:"card_type"`
	BankCode          string              `json:"bankCode,omitempty" db:"bank_code"`
	UDF1              string              `json:"udf1,omitempty" db:"udf1"`
	UDF2              string              `json:"udf2,omitempty" db:"udf2"`
	UDF3              string              `json:"udf3,omitempty" db:"udf3"`
	UDF4              string              `json:"udf4,omitempty" db:"udf4"`
	UDF5              string              `json:"udf5,omitempty" db:"udf5"`
}

// IdempotencyKey tracks processed requests to prevent duplicate initiations
type IdempotencyKey struct {
	CreatedAt      time.Time `db:"created_at"`
	Key            string    `db:"key"`
	RequestPath    string    `db:"request_path"`
	RequestID      string    `db:"request_id"`
	ResponseBody   string    `db:"response_body"`
	ResponseStatus int       `db:"response_status"`
}
