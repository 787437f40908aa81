package checkout

import (
	"context"

	"github.com/pharmapos/backend/internal/domain/catalog"
)

// CatalogSearcher looks up medicines with the batches available at query
// time. Each call returns fresh snapshots.
type CatalogSearcher interface {
	Search(ctx context.Context, query string) ([]catalog.Medicine, error)
}

// SaleSubmitter hands a finished sale to the system that records it
type SaleSubmitter interface {
	Submit(ctx context.Context, sale SaleSubmission) (SubmissionReceipt, error)
}
