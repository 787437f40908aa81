package catalogcsv

import (
	"context"
	"fmt"
	"strings"

	"github.com/pharmapos/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

// Searcher serves catalog searches from medicines loaded out of a CSV file.
// It is read-only after construction and safe for concurrent use.
type Searcher struct {
	medicines []catalog.Medicine
	logger    *zap.Logger
}

// NewSearcher creates a searcher over the given medicines
func NewSearcher(medicines []catalog.Medicine, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		medicines: cloneMedicines(medicines),
		logger:    logger,
	}
}

// Open loads a catalog file and returns a searcher over it. Any row error
// fails the open.
func Open(path string, logger *zap.Logger) (*Searcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	result, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if result.Errors.HasErrors() {
		for _, rowErr := range result.Errors.Errors() {
			logger.Warn("Invalid catalog row",
				zap.String("file", path),
				zap.Int("row", rowErr.Row),
				zap.String("column", rowErr.Column),
				zap.String("code", rowErr.Code),
				zap.String("message", rowErr.Message),
			)
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, result.Errors.String())
	}

	logger.Info("Catalog loaded",
		zap.String("file", path),
		zap.Int("rows", result.TotalRows),
		zap.Int("medicines", len(result.Medicines)),
	)
	return NewSearcher(result.Medicines, logger), nil
}

// Search returns the medicines whose name or generic name contains the
// query, case-insensitively. An empty query matches everything. Every call
// returns fresh copies.
func (s *Searcher) Search(ctx context.Context, query string) ([]catalog.Medicine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]catalog.Medicine, 0)
	for _, m := range s.medicines {
		if q == "" ||
			strings.Contains(strings.ToLower(m.Name), q) ||
			strings.Contains(strings.ToLower(m.GenericName), q) {
			out = append(out, cloneMedicine(m))
		}
	}

	s.logger.Debug("Catalog search",
		zap.String("query", query),
		zap.Int("matches", len(out)),
	)
	return out, nil
}

// Len returns the number of medicines in the catalog
func (s *Searcher) Len() int {
	return len(s.medicines)
}

func cloneMedicines(in []catalog.Medicine) []catalog.Medicine {
	out := make([]catalog.Medicine, len(in))
	for i, m := range in {
		out[i] = cloneMedicine(m)
	}
	return out
}

func cloneMedicine(m catalog.Medicine) catalog.Medicine {
	batches := make([]catalog.StockBatch, len(m.Batches))
	for i, b := range m.Batches {
		if b.ExpiryDate != nil {
			expiry := *b.ExpiryDate
			b.ExpiryDate = &expiry
		}
		batches[i] = b
	}
	m.Batches = batches
	return m
}
