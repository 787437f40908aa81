package cart

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/identity"
	"github.com/pharmapos/backend/internal/domain/shared"
	"github.com/pharmapos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ReasonBatchExhausted is reported when a quantity edit removes a line
// because other lines now hold the whole batch.
const ReasonBatchExhausted = "batch fully reserved by other lines"

// Cart is the set of lines of one checkout session, most recently added
// first. A Cart is not safe for concurrent use; each session owns its own.
type Cart struct {
	id            uuid.UUID
	lines         []Line
	ordering      BatchOrdering
	partialPolicy PartialPolicy
	now           func() time.Time
}

// Option is a functional option for configuring a Cart
type Option func(*Cart)

// WithBatchOrdering sets the batch draw order (default LIFO)
func WithBatchOrdering(o BatchOrdering) Option {
	return func(c *Cart) {
		if o != nil {
			c.ordering = o
		}
	}
}

// WithPartialPolicy sets the partial allocation policy (default PartialCommit)
func WithPartialPolicy(p PartialPolicy) Option {
	return func(c *Cart) {
		if p.IsValid() {
			c.partialPolicy = p
		}
	}
}

// WithClock overrides the clock used to stamp lines
func WithClock(now func() time.Time) Option {
	return func(c *Cart) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty cart
func New(opts ...Option) *Cart {
	c := &Cart{
		id:            uuid.New(),
		lines:         make([]Line, 0),
		ordering:      LIFO(),
		partialPolicy: PartialCommit,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the cart identifier
func (c *Cart) ID() uuid.UUID {
	return c.id
}

// PartialPolicy returns the configured partial allocation policy
func (c *Cart) PartialPolicy() PartialPolicy {
	return c.partialPolicy
}

// Ordering returns the configured batch ordering
func (c *Cart) Ordering() BatchOrdering {
	return c.ordering
}

// Lines returns a copy of the lines, most recently added first
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Line returns the line with the given ID
func (c *Cart) Line(id uuid.UUID) (Line, bool) {
	if idx := c.indexOf(id); idx >= 0 {
		return c.lines[idx], true
	}
	return Line{}, false
}

// Len returns the number of lines
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty returns true if the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Reset discards every line and starts a fresh cart identity
func (c *Cart) Reset() {
	c.lines = make([]Line, 0)
	c.id = uuid.New()
}

// Allocate draws qty units of the medicine from its batches in the cart's
// batch order and adds or merges the resulting lines.
//
// A non-positive quantity or a negative rate override is rejected before
// anything changes. When the batches cannot cover qty, the result carries the
// shortfall; whether the available part is committed depends on the cart's
// PartialPolicy.
func (c *Cart) Allocate(m catalog.Medicine, qty int64, rateOverride *decimal.Decimal, op identity.Operator) (AllocationResult, error) {
	if qty <= 0 {
		return AllocationResult{}, shared.NewDomainError("INVALID_QUANTITY",
			fmt.Sprintf("Quantity must be positive, got %d", qty))
	}
	if rateOverride != nil && rateOverride.IsNegative() {
		return AllocationResult{}, shared.NewDomainError("INVALID_RATE",
			fmt.Sprintf("Rate cannot be negative, got %s", rateOverride.String()))
	}
	if err := m.Validate(); err != nil {
		return AllocationResult{}, err
	}

	result := AllocationResult{
		MedicineID: m.ID,
		Requested:  qty,
		Available:  AvailableForMedicine(c, m),
		Draws:      make([]Draw, 0),
	}

	type plannedDraw struct {
		batch catalog.StockBatch
		take  int64
	}
	planned := make([]plannedDraw, 0)
	remaining := qty
	for _, b := range c.ordering.Order(m.Batches) {
		if remaining == 0 {
			break
		}
		available := AvailableInBatch(c, b)
		if available == 0 {
			continue
		}
		take := min(remaining, available)
		planned = append(planned, plannedDraw{batch: b, take: take})
		remaining -= take
	}

	result.Shortfall = remaining
	if remaining == qty || (remaining > 0 && c.partialPolicy == PartialReject) {
		result.Status = AllocationRejected
		return result, nil
	}

	for _, p := range planned {
		draw := c.draw(m, p.batch, p.take, rateOverride, op)
		result.Allocated += draw.Quantity
		result.Draws = append(result.Draws, draw)
	}
	// A clamped merge adds less than planned.
	result.Shortfall = qty - result.Allocated
	if result.Shortfall > 0 {
		result.Status = AllocationPartial
	} else {
		result.Status = AllocationComplete
	}
	return result, nil
}

// draw takes up to take units from one batch, merging into an identical
// line when there is one
func (c *Cart) draw(m catalog.Medicine, b catalog.StockBatch, take int64, rateOverride *decimal.Decimal, op identity.Operator) Draw {
	rate := b.SalesRate
	if rateOverride != nil {
		rate = *rateOverride
	}
	_, discountPct := PriceLine(take, rate, m.DefaultDiscountPct, m.DefaultDiscountPct, op.Role)
	vatPct := valueobject.ClampPercent(m.VATPct)

	for i := range c.lines {
		line := &c.lines[i]
		if !line.mergesWith(b.ID, rate, discountPct, vatPct) {
			continue
		}
		line.BatchSnapshotQty = b.CurrentQuantity
		target := min(line.Quantity+take, c.MaxQuantityForLine(*line))
		added := target - line.Quantity
		line.Quantity = target
		line.recalculate()
		return Draw{
			LineID:      line.ID,
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			Quantity:    added,
			Rate:        rate,
			DiscountPct: discountPct,
			Merged:      true,
		}
	}

	line := Line{
		ID:                   uuid.New(),
		MedicineID:           m.ID,
		MedicineName:         m.Name,
		GenericName:          m.GenericName,
		Unit:                 m.Unit,
		BatchID:              b.ID,
		BatchNumber:          b.BatchNumber,
		ExpiryDate:           b.ExpiryDate,
		BatchSnapshotQty:     b.CurrentQuantity,
		Quantity:             take,
		Rate:                 rate,
		DefaultDiscountLimit: m.DefaultDiscountPct,
		DiscountPct:          discountPct,
		VATPct:               vatPct,
		AddedAt:              c.now(),
	}
	line.recalculate()
	c.lines = append([]Line{line}, c.lines...)

	return Draw{
		LineID:      line.ID,
		BatchID:     b.ID,
		BatchNumber: b.BatchNumber,
		Quantity:    take,
		Rate:        rate,
		DiscountPct: discountPct,
	}
}

// MaxQuantityForLine returns the largest quantity the line may hold: its
// batch snapshot minus what the other lines on the same batch reserve.
func (c *Cart) MaxQuantityForLine(line Line) int64 {
	othersReserved := ReservedQuantity(c, line.BatchID)
	if idx := c.indexOf(line.ID); idx >= 0 {
		othersReserved -= c.lines[idx].Quantity
	}
	ceiling := line.BatchSnapshotQty - othersReserved
	if ceiling < 0 {
		return 0
	}
	return ceiling
}

// SetQuantity changes a line's quantity, clamped to MaxQuantityForLine.
// When the ceiling has dropped to zero the line is removed and the result
// says so.
func (c *Cart) SetQuantity(lineID uuid.UUID, qty int64) (QuantityResult, error) {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return QuantityResult{}, shared.ErrLineNotFound
	}
	if qty <= 0 {
		return QuantityResult{}, shared.NewDomainError("INVALID_QUANTITY",
			fmt.Sprintf("Quantity must be positive, got %d", qty))
	}

	line := &c.lines[idx]
	ceiling := c.MaxQuantityForLine(*line)
	result := QuantityResult{
		LineID:    lineID,
		Requested: qty,
		Max:       ceiling,
	}

	if ceiling == 0 {
		c.removeAt(idx)
		result.Removed = true
		result.Reason = ReasonBatchExhausted
		return result, nil
	}

	applied := qty
	if applied > ceiling {
		applied = ceiling
		result.Capped = true
	}
	line.Quantity = applied
	line.recalculate()

	result.Applied = applied
	result.Line = *line
	return result, nil
}

// IncrementQuantity adds one unit through SetQuantity
func (c *Cart) IncrementQuantity(lineID uuid.UUID) (QuantityResult, error) {
	line, ok := c.Line(lineID)
	if !ok {
		return QuantityResult{}, shared.ErrLineNotFound
	}
	return c.SetQuantity(lineID, line.Quantity+1)
}

// DecrementQuantity removes one unit through SetQuantity. Decrementing a
// single-unit line is rejected as an invalid quantity; use Remove instead.
func (c *Cart) DecrementQuantity(lineID uuid.UUID) (QuantityResult, error) {
	line, ok := c.Line(lineID)
	if !ok {
		return QuantityResult{}, shared.ErrLineNotFound
	}
	return c.SetQuantity(lineID, line.Quantity-1)
}

// SetDiscount changes a line's discount percent, clamped to [0, cap] for the
// operator's role. The applied value is on the result.
func (c *Cart) SetDiscount(lineID uuid.UUID, pct decimal.Decimal, op identity.Operator) (DiscountResult, error) {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return DiscountResult{}, shared.ErrLineNotFound
	}

	line := &c.lines[idx]
	limit := identity.EffectiveCap(op.Role, line.DefaultDiscountLimit)
	applied := CapDiscount(pct, line.DefaultDiscountLimit, op.Role)

	line.DiscountPct = applied
	line.recalculate()

	return DiscountResult{
		LineID:    lineID,
		Line:      *line,
		Requested: pct,
		Applied:   applied,
		Cap:       limit,
		Capped:    !applied.Equal(pct),
	}, nil
}

// IncrementDiscount raises the discount by one point through SetDiscount
func (c *Cart) IncrementDiscount(lineID uuid.UUID, op identity.Operator) (DiscountResult, error) {
	line, ok := c.Line(lineID)
	if !ok {
		return DiscountResult{}, shared.ErrLineNotFound
	}
	return c.SetDiscount(lineID, line.DiscountPct.Add(decimal.NewFromInt(1)), op)
}

// DecrementDiscount lowers the discount by one point through SetDiscount
func (c *Cart) DecrementDiscount(lineID uuid.UUID, op identity.Operator) (DiscountResult, error) {
	line, ok := c.Line(lineID)
	if !ok {
		return DiscountResult{}, shared.ErrLineNotFound
	}
	return c.SetDiscount(lineID, line.DiscountPct.Sub(decimal.NewFromInt(1)), op)
}

// Remove deletes a line. Capacity it held becomes available to later
// allocations; other lines are not changed.
func (c *Cart) Remove(lineID uuid.UUID) error {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return shared.ErrLineNotFound
	}
	c.removeAt(idx)
	return nil
}

func (c *Cart) removeAt(idx int) {
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
}

func (c *Cart) indexOf(id uuid.UUID) int {
	for i := range c.lines {
		if c.lines[i].ID == id {
			return i
		}
	}
	return -1
}
