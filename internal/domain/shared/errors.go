package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is matches errors created with a more specific message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists     = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState      = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
)

// Point-of-sale errors
var (
	ErrInvalidQuantity      = NewDomainError("INVALID_QUANTITY", "Quantity must be a positive whole number")
	ErrInvalidRate          = NewDomainError("INVALID_RATE", "Rate cannot be negative")
	ErrLineNotFound         = NewDomainError("LINE_NOT_FOUND", "Cart line not found")
	ErrEmptyCart            = NewDomainError("EMPTY_CART", "Cart has no lines")
	ErrInvalidPaymentMethod = NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not supported")
)
