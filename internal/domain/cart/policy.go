package cart

import (
	"strings"

	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/shared"
)

// BatchOrdering decides the order in which a medicine's batches are drawn
type BatchOrdering interface {
	// Name returns the unique name of the ordering
	Name() string
	// Order returns the batches in draw order without modifying the input
	Order(batches []catalog.StockBatch) []catalog.StockBatch
}

type lifoOrdering struct{}

func (lifoOrdering) Name() string { return "lifo" }

func (lifoOrdering) Order(batches []catalog.StockBatch) []catalog.StockBatch {
	return OrderByRecency(batches)
}

// LIFO returns the default ordering: newest received batch first
func LIFO() BatchOrdering {
	return lifoOrdering{}
}

// PartialPolicy decides what happens when a request exceeds the stock
// available across all batches
type PartialPolicy string

const (
	// PartialCommit allocates what is available and reports the shortfall
	PartialCommit PartialPolicy = "commit"
	// PartialReject allocates nothing and reports the shortfall
	PartialReject PartialPolicy = "reject"
)

// IsValid checks if the policy is a known PartialPolicy
func (p PartialPolicy) IsValid() bool {
	switch p {
	case PartialCommit, PartialReject:
		return true
	}
	return false
}

// String returns the string representation of PartialPolicy
func (p PartialPolicy) String() string {
	return string(p)
}

// ParsePartialPolicy converts a string to a PartialPolicy (case-insensitive)
func ParsePartialPolicy(s string) (PartialPolicy, error) {
	p := PartialPolicy(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", shared.NewDomainError("INVALID_PARTIAL_POLICY", "Partial allocation policy must be commit or reject")
	}
	return p, nil
}
