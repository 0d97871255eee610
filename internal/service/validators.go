package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/benx421/payment-gateway/checkout/internal/signature"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateInitiation checks an initiation request and returns the first problem found
func ValidateInitiation(req *InitiationRequest) error {
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return describeFieldError(fieldErrs[0])
		}
		return err
	}

	if err := ValidateAmount(req.Amount); err != nil {
		return err
	}

	signed := map[string]string{
		"transactionId":   req.TxnID,
		"productInfo":     req.ProductInfo,
		"firstName":       req.FirstName,
		"email":           req.Email,
		"serviceDuration": req.ServiceDuration,
	}
	for name, value := range signed {
		if err := ValidateSignedField(name, value); err != nil {
			return err
		}
	}

	return nil
}

func describeFieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "email":
		return fmt.Errorf("%s must be a valid email address", fe.Field())
	case "max":
		return fmt.Errorf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "printascii":
		return fmt.Errorf("%s must contain printable ASCII only", fe.Field())
	default:
		return fmt.Errorf("%s is invalid", fe.Field())
	}
}

// ValidateAmount checks that amount is positive with at most two decimal places
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("invalid amount: must be greater than 0")
	}

	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("invalid amount: at most two decimal places allowed")
	}

	return nil
}

// ValidateSignedField rejects values that would shift field boundaries in a signature
func ValidateSignedField(name, value string) error {
	if strings.Contains(value, signature.Separator) {
		return fmt.Errorf("%s must not contain %q", name, signature.Separator)
	}
	return nil
}
