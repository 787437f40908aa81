package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pharmapos/backend/internal/application/checkout"
	"go.uber.org/zap"
)

// LogSubmitter is the SaleSubmitter used by a standalone till: it logs each
// payload as JSON and issues a local sale number.
type LogSubmitter struct {
	terminalID string
	logger     *zap.Logger
	seq        atomic.Int64
	now        func() time.Time
}

// NewLogSubmitter creates a submitter that numbers sales per terminal
func NewLogSubmitter(terminalID string, logger *zap.Logger) *LogSubmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSubmitter{
		terminalID: terminalID,
		logger:     logger,
		now:        time.Now,
	}
}

// Submit implements checkout.SaleSubmitter
func (s *LogSubmitter) Submit(ctx context.Context, sale checkout.SaleSubmission) (checkout.SubmissionReceipt, error) {
	if err := ctx.Err(); err != nil {
		return checkout.SubmissionReceipt{}, err
	}

	payload, err := json.Marshal(sale)
	if err != nil {
		return checkout.SubmissionReceipt{}, fmt.Errorf("marshal sale: %w", err)
	}

	seq := s.seq.Add(1)
	receipt := checkout.SubmissionReceipt{
		SaleID:        sale.SubmissionID.String(),
		InvoiceNumber: fmt.Sprintf("%s-%06d", s.terminalID, seq),
		SubmittedAt:   s.now(),
	}

	s.logger.Info("Sale payload",
		zap.String("invoice_number", receipt.InvoiceNumber),
		zap.ByteString("payload", payload),
	)
	return receipt, nil
}
