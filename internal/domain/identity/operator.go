package identity

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pharmapos/backend/internal/domain/shared"
	"github.com/pharmapos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Role is the operator's role at the till. The set is closed: every switch
// over Role must handle each value.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleStaff:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a string to a Role (case-insensitive)
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.NewDomainError("INVALID_ROLE", "Role must be admin or staff")
	}
	return r, nil
}

// EffectiveCap returns the maximum discount percent the role may apply to a
// line whose medicine carries defaultLimitPct. Admins may discount up to
// 100%; everyone else is held to the medicine's default.
func EffectiveCap(role Role, defaultLimitPct decimal.Decimal) decimal.Decimal {
	switch role {
	case RoleAdmin:
		return valueobject.Hundred()
	case RoleStaff:
		return valueobject.ClampPercent(defaultLimitPct)
	default:
		return valueobject.ClampPercent(defaultLimitPct)
	}
}

// Operator is the identity of the person running the checkout
type Operator struct {
	ID   uuid.UUID
	Name string
	Role Role
}

// NewOperator creates an operator, rejecting unknown roles
func NewOperator(id uuid.UUID, name string, role Role) (Operator, error) {
	if id == uuid.Nil {
		return Operator{}, shared.NewDomainError("INVALID_OPERATOR", "Operator ID cannot be empty")
	}
	if !role.IsValid() {
		return Operator{}, shared.NewDomainError("INVALID_ROLE", "Role must be admin or staff")
	}
	return Operator{ID: id, Name: name, Role: role}, nil
}

// IsAdmin returns true if the operator has the admin role
func (o Operator) IsAdmin() bool {
	return o.Role == RoleAdmin
}

// DiscountCap returns EffectiveCap for this operator
func (o Operator) DiscountCap(defaultLimitPct decimal.Decimal) decimal.Decimal {
	return EffectiveCap(o.Role, defaultLimitPct)
}
