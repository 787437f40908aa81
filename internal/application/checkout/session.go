package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmapos/backend/internal/domain/cart"
	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/finance"
	"github.com/pharmapos/backend/internal/domain/identity"
	"github.com/pharmapos/backend/internal/domain/shared"
	"github.com/pharmapos/backend/internal/domain/shared/valueobject"
	"github.com/pharmapos/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Session is one till's checkout: a cart, the operator working it and the
// order-level payment inputs. A Session is not safe for concurrent use.
type Session struct {
	id        uuid.UUID
	operator  identity.Operator
	searcher  CatalogSearcher
	submitter SaleSubmitter
	logger    *zap.Logger
	validator *PayloadValidator

	cart        *cart.Cart
	cartOptions []cart.Option

	currency      valueobject.Currency
	defaultMethod finance.PaymentMethod
	paymentMethod finance.PaymentMethod
	extraDiscount decimal.Decimal // Raw input; clamped when summarized
	paid          decimal.Decimal // Raw input; clamped when summarized
	now           func() time.Time
}

// Option is a functional option for configuring a Session
type Option func(*Session)

// WithCartOptions passes options to the session's cart
func WithCartOptions(opts ...cart.Option) Option {
	return func(s *Session) {
		s.cartOptions = append(s.cartOptions, opts...)
	}
}

// WithCurrency sets the currency recorded on submissions (default BDT)
func WithCurrency(c valueobject.Currency) Option {
	return func(s *Session) {
		if c != "" {
			s.currency = c
		}
	}
}

// WithDefaultPaymentMethod sets the method each new sale starts with (default CASH)
func WithDefaultPaymentMethod(m finance.PaymentMethod) Option {
	return func(s *Session) {
		if m.IsValid() {
			s.defaultMethod = m
		}
	}
}

// WithClock overrides the clock used for line and submission timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
			s.cartOptions = append(s.cartOptions, cart.WithClock(now))
		}
	}
}

// NewSession creates a checkout session for the operator
func NewSession(
	operator identity.Operator,
	searcher CatalogSearcher,
	submitter SaleSubmitter,
	zapLogger *zap.Logger,
	opts ...Option,
) (*Session, error) {
	if operator.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Operator ID is required")
	}
	if !operator.Role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be admin or staff")
	}
	if searcher == nil || submitter == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Catalog searcher and sale submitter are required")
	}
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}

	payloadValidator, err := NewPayloadValidator()
	if err != nil {
		return nil, fmt.Errorf("payload validator: %w", err)
	}

	s := &Session{
		id:            uuid.New(),
		operator:      operator,
		searcher:      searcher,
		submitter:     submitter,
		logger:        zapLogger,
		validator:     payloadValidator,
		currency:      valueobject.DefaultCurrency,
		defaultMethod: finance.PaymentMethodCash,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cart = cart.New(s.cartOptions...)
	s.paymentMethod = s.defaultMethod
	s.extraDiscount = decimal.Zero
	s.paid = decimal.Zero
	return s, nil
}

// ID returns the session identifier
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Operator returns the operator working this session
func (s *Session) Operator() identity.Operator {
	return s.operator
}

// Currency returns the session currency
func (s *Session) Currency() valueobject.Currency {
	return s.currency
}

// Lines returns the current cart lines, most recently added first
func (s *Session) Lines() []cart.Line {
	return s.cart.Lines()
}

// Line returns one cart line
func (s *Session) Line(id uuid.UUID) (cart.Line, bool) {
	return s.cart.Line(id)
}

// MaxQuantityForLine returns how far the line's quantity may be raised
func (s *Session) MaxQuantityForLine(id uuid.UUID) (int64, error) {
	line, ok := s.cart.Line(id)
	if !ok {
		return 0, shared.ErrLineNotFound
	}
	return s.cart.MaxQuantityForLine(line), nil
}

// PaymentMethod returns the selected payment method
func (s *Session) PaymentMethod() finance.PaymentMethod {
	return s.paymentMethod
}

// Search queries the catalog and reports, per entry, what the cart can still
// take. Entries that fail validation are skipped.
func (s *Session) Search(ctx context.Context, query string) ([]SearchResult, error) {
	entries, err := s.searcher.Search(ctx, query)
	if err != nil {
		s.log(ctx).Error("Catalog search failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("catalog search: %w", err)
	}

	results := make([]SearchResult, 0, len(entries))
	for _, m := range entries {
		if err := m.Validate(); err != nil {
			s.log(ctx).Warn("Skipping invalid catalog entry",
				zap.String("medicine_id", m.ID.String()),
				zap.String("medicine_name", m.Name),
				zap.Error(err),
			)
			continue
		}
		available := cart.AvailableForMedicine(s.cart, m)
		results = append(results, SearchResult{
			Medicine:   m,
			Available:  available,
			OutOfStock: available == 0,
		})
	}
	return results, nil
}

// Add allocates qty units of the medicine into the cart. A nil rateOverride
// uses each batch's sales rate.
func (s *Session) Add(ctx context.Context, m catalog.Medicine, qty int64, rateOverride *decimal.Decimal) (cart.AllocationResult, error) {
	result, err := s.cart.Allocate(m, qty, rateOverride, s.operator)
	if err != nil {
		s.log(ctx).Warn("Allocation rejected",
			zap.String("medicine_id", m.ID.String()),
			zap.Int64("requested", qty),
			zap.Error(err),
		)
		return result, err
	}

	fields := []zap.Field{
		zap.String("medicine_id", m.ID.String()),
		zap.String("medicine_name", m.Name),
		zap.Int64("requested", result.Requested),
		zap.Int64("allocated", result.Allocated),
		zap.Int64("shortfall", result.Shortfall),
		zap.Int("draws", len(result.Draws)),
	}
	switch result.Status {
	case cart.AllocationComplete:
		s.log(ctx).Info("Medicine allocated", fields...)
	case cart.AllocationPartial:
		s.log(ctx).Warn("Medicine partially allocated", fields...)
	case cart.AllocationRejected:
		s.log(ctx).Warn("Medicine not allocated", append(fields, zap.Int64("available", result.Available))...)
	}
	return result, nil
}

// SetQuantity changes a line's quantity
func (s *Session) SetQuantity(ctx context.Context, lineID uuid.UUID, qty int64) (cart.QuantityResult, error) {
	result, err := s.cart.SetQuantity(lineID, qty)
	return s.logQuantity(ctx, result, err)
}

// IncrementQuantity adds one unit to a line
func (s *Session) IncrementQuantity(ctx context.Context, lineID uuid.UUID) (cart.QuantityResult, error) {
	result, err := s.cart.IncrementQuantity(lineID)
	return s.logQuantity(ctx, result, err)
}

// DecrementQuantity removes one unit from a line
func (s *Session) DecrementQuantity(ctx context.Context, lineID uuid.UUID) (cart.QuantityResult, error) {
	result, err := s.cart.DecrementQuantity(lineID)
	return s.logQuantity(ctx, result, err)
}

func (s *Session) logQuantity(ctx context.Context, result cart.QuantityResult, err error) (cart.QuantityResult, error) {
	if err != nil {
		return result, err
	}
	switch {
	case result.Removed:
		s.log(ctx).Warn("Line removed",
			zap.String("line_id", result.LineID.String()),
			zap.String("reason", result.Reason),
		)
	case result.Capped:
		s.log(ctx).Warn("Quantity capped",
			zap.String("line_id", result.LineID.String()),
			zap.Int64("requested", result.Requested),
			zap.Int64("applied", result.Applied),
		)
	default:
		s.log(ctx).Debug("Quantity changed",
			zap.String("line_id", result.LineID.String()),
			zap.Int64("quantity", result.Applied),
		)
	}
	return result, nil
}

// SetDiscount changes a line's discount percent within the operator's cap
func (s *Session) SetDiscount(ctx context.Context, lineID uuid.UUID, pct decimal.Decimal) (cart.DiscountResult, error) {
	result, err := s.cart.SetDiscount(lineID, pct, s.operator)
	return s.logDiscount(ctx, result, err)
}

// IncrementDiscount raises a line's discount by one point
func (s *Session) IncrementDiscount(ctx context.Context, lineID uuid.UUID) (cart.DiscountResult, error) {
	result, err := s.cart.IncrementDiscount(lineID, s.operator)
	return s.logDiscount(ctx, result, err)
}

// DecrementDiscount lowers a line's discount by one point
func (s *Session) DecrementDiscount(ctx context.Context, lineID uuid.UUID) (cart.DiscountResult, error) {
	result, err := s.cart.DecrementDiscount(lineID, s.operator)
	return s.logDiscount(ctx, result, err)
}

func (s *Session) logDiscount(ctx context.Context, result cart.DiscountResult, err error) (cart.DiscountResult, error) {
	if err != nil {
		return result, err
	}
	if result.Capped {
		s.log(ctx).Warn("Discount capped",
			zap.String("line_id", result.LineID.String()),
			zap.String("requested", result.Requested.String()),
			zap.String("applied", result.Applied.String()),
			zap.String("cap", result.Cap.String()),
		)
	}
	return result, nil
}

// Remove deletes a line from the cart
func (s *Session) Remove(ctx context.Context, lineID uuid.UUID) error {
	if err := s.cart.Remove(lineID); err != nil {
		return err
	}
	s.log(ctx).Info("Line removed", zap.String("line_id", lineID.String()))
	return nil
}

// SetExtraDiscount records the order-level discount input and returns the
// resulting summary. The input is clamped to [0, subtotal] when summarized,
// so it follows later cart edits.
func (s *Session) SetExtraDiscount(ctx context.Context, amount decimal.Decimal) finance.Summary {
	s.extraDiscount = amount
	summary := s.Summary()
	if summary.ExtraDiscountCapped {
		s.log(ctx).Warn("Extra discount capped",
			zap.String("requested", amount.String()),
			zap.String("applied", summary.ExtraDiscount.String()),
		)
	}
	return summary
}

// SetPaid records the amount paid and returns the resulting summary. The
// input is clamped to [0, net payable] when summarized.
func (s *Session) SetPaid(ctx context.Context, amount decimal.Decimal) finance.Summary {
	s.paid = amount
	summary := s.Summary()
	if summary.PaidCapped {
		s.log(ctx).Warn("Paid amount capped",
			zap.String("requested", amount.String()),
			zap.String("applied", summary.Paid.String()),
		)
	}
	return summary
}

// SetPaymentMethod selects how the sale is settled
func (s *Session) SetPaymentMethod(m finance.PaymentMethod) error {
	if !m.IsValid() {
		return shared.ErrInvalidPaymentMethod
	}
	s.paymentMethod = m
	return nil
}

// Summary derives the financial summary from the current cart and inputs
func (s *Session) Summary() finance.Summary {
	return finance.Summarize(s.cart.Lines(), s.extraDiscount, s.paid)
}

// BuildSubmission produces the payload for the current sale without
// changing the session
func (s *Session) BuildSubmission(customer CustomerContext) (SaleSubmission, error) {
	if s.cart.IsEmpty() {
		return SaleSubmission{}, shared.ErrEmptyCart
	}

	summary := s.Summary()
	lines := s.cart.Lines()
	sub := SaleSubmission{
		SubmissionID: uuid.New(),
		SessionID:    s.id,
		OperatorID:   s.operator.ID,
		Currency:     string(s.currency),
		Customer:     customer,
		Lines:        make([]SubmissionLine, 0, len(lines)),
		Finance: SubmissionFinance{
			ExtraDiscount: summary.ExtraDiscount,
			PaymentMethod: s.paymentMethod,
			Paid:          summary.Paid,
		},
		Totals:    ToSubmissionTotals(summary),
		CreatedAt: s.now(),
	}
	for _, l := range lines {
		sub.Lines = append(sub.Lines, ToSubmissionLine(l))
	}

	if err := s.validator.Struct(sub); err != nil {
		return SaleSubmission{}, err
	}
	return sub, nil
}

// Submit sends the current sale to the submitter. On success the session
// starts a new sale; on failure the cart is left as it was.
func (s *Session) Submit(ctx context.Context, customer CustomerContext) (SubmissionReceipt, error) {
	sub, err := s.BuildSubmission(customer)
	if err != nil {
		s.log(ctx).Warn("Sale not submittable", zap.Error(err))
		return SubmissionReceipt{}, err
	}

	receipt, err := s.submitter.Submit(ctx, sub)
	if err != nil {
		s.log(ctx).Error("Sale submission failed",
			zap.String("submission_id", sub.SubmissionID.String()),
			zap.Error(err),
		)
		return SubmissionReceipt{}, fmt.Errorf("submit sale: %w", err)
	}

	s.log(ctx).Info("Sale submitted",
		zap.String("submission_id", sub.SubmissionID.String()),
		zap.String("sale_id", receipt.SaleID),
		zap.Int("lines", len(sub.Lines)),
		zap.Stringer("net_payable", s.money(sub.Totals.NetPayable)),
		zap.Stringer("due", s.money(sub.Totals.Due)),
		zap.String("payment_method", sub.Finance.PaymentMethod.String()),
	)
	s.reset()
	return receipt, nil
}

// money tags a settled amount with the session currency
func (s *Session) money(amount decimal.Decimal) valueobject.Money {
	m, err := valueobject.NewMoney(amount, s.currency)
	if err != nil {
		return valueobject.NewMoneyBDT(amount).Round2()
	}
	return m.Round2()
}

// Cancel discards the current sale
func (s *Session) Cancel(ctx context.Context) {
	s.log(ctx).Info("Sale cancelled", zap.Int("lines", s.cart.Len()))
	s.reset()
}

func (s *Session) reset() {
	s.cart.Reset()
	s.extraDiscount = decimal.Zero
	s.paid = decimal.Zero
	s.paymentMethod = s.defaultMethod
}

// log returns a logger carrying this session's and operator's IDs unless
// ctx already names them
func (s *Session) log(ctx context.Context) *logger.ContextLogger {
	if logger.GetSessionID(ctx) == "" {
		ctx = context.WithValue(ctx, logger.SessionIDKey, s.id.String())
	}
	if logger.GetOperatorID(ctx) == "" {
		ctx = context.WithValue(ctx, logger.OperatorIDKey, s.operator.ID.String())
	}
	return logger.WithLogger(ctx, s.logger)
}
