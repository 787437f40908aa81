package finance

import (
	"strings"

	"github.com/pharmapos/backend/internal/domain/shared"
)

// PaymentMethod represents how the customer settles a sale
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "CASH"           // Cash over the counter
	PaymentMethodCard          PaymentMethod = "CARD"           // Debit/credit card
	PaymentMethodMobileBanking PaymentMethod = "MOBILE_BANKING" // bKash, Nagad and similar wallets
	PaymentMethodOther         PaymentMethod = "OTHER"          // Other methods
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodMobileBanking, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// AllPaymentMethods returns all valid payment methods
func AllPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentMethodCash,
		PaymentMethodCard,
		PaymentMethodMobileBanking,
		PaymentMethodOther,
	}
}

// ParsePaymentMethod converts a string to a PaymentMethod (case-insensitive)
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", shared.ErrInvalidPaymentMethod
	}
	return m, nil
}
