package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmapos/backend/internal/domain/cart"
	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/finance"
	"github.com/pharmapos/backend/internal/domain/identity"
	"github.com/pharmapos/backend/internal/domain/shared"
	"github.com/pharmapos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockCatalogSearcher is a mock implementation of CatalogSearcher
type MockCatalogSearcher struct {
	mock.Mock
}

func (m *MockCatalogSearcher) Search(ctx context.Context, query string) ([]catalog.Medicine, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

// MockSaleSubmitter is a mock implementation of SaleSubmitter
type MockSaleSubmitter struct {
	mock.Mock
}

func (m *MockSaleSubmitter) Submit(ctx context.Context, sale SaleSubmission) (SubmissionReceipt, error) {
	args := m.Called(ctx, sale)
	return args.Get(0).(SubmissionReceipt), args.Error(1)
}

var testNow = time.Date(2026, 10, 16, 10, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func staffOperator() identity.Operator {
	return identity.Operator{ID: uuid.New(), Name: "Rina", Role: identity.RoleStaff}
}

func adminOperator() identity.Operator {
	return identity.Operator{ID: uuid.New(), Name: "Owner", Role: identity.RoleAdmin}
}

// napa has one batch of 10 at 20.00 with a 5% default discount and 7.5% VAT
func napa() catalog.Medicine {
	m := catalog.Medicine{
		ID:                 uuid.New(),
		Name:               "Napa 500",
		GenericName:        "Paracetamol",
		Unit:               "tab",
		DefaultDiscountPct: dec("5"),
		VATPct:             dec("7.5"),
	}
	m.Batches = []catalog.StockBatch{{
		ID:              uuid.New(),
		MedicineID:      m.ID,
		BatchNumber:     "N-101",
		CurrentQuantity: 10,
		SalesRate:       dec("20.00"),
		ReceivedAt:      testNow.AddDate(0, -1, 0),
	}}
	return m
}

type fixture struct {
	session   *Session
	searcher  *MockCatalogSearcher
	submitter *MockSaleSubmitter
	logs      *observer.ObservedLogs
}

func newFixture(t *testing.T, op identity.Operator, opts ...Option) fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	searcher := new(MockCatalogSearcher)
	submitter := new(MockSaleSubmitter)
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)

	s, err := NewSession(op, searcher, submitter, zap.New(core), opts...)
	require.NoError(t, err)
	return fixture{session: s, searcher: searcher, submitter: submitter, logs: logs}
}

func requireDecEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestNewSession(t *testing.T) {
	searcher := new(MockCatalogSearcher)
	submitter := new(MockSaleSubmitter)

	t.Run("defaults", func(t *testing.T) {
		s, err := NewSession(staffOperator(), searcher, submitter, nil)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, s.ID())
		assert.Equal(t, valueobject.BDT, s.Currency())
		assert.Equal(t, finance.PaymentMethodCash, s.PaymentMethod())
		assert.Empty(t, s.Lines())
	})

	t.Run("options", func(t *testing.T) {
		s, err := NewSession(staffOperator(), searcher, submitter, nil,
			WithCurrency(valueobject.USD),
			WithDefaultPaymentMethod(finance.PaymentMethodCard),
		)
		require.NoError(t, err)
		assert.Equal(t, valueobject.USD, s.Currency())
		assert.Equal(t, finance.PaymentMethodCard, s.PaymentMethod())
	})

	t.Run("operator without id", func(t *testing.T) {
		_, err := NewSession(identity.Operator{Role: identity.RoleStaff}, searcher, submitter, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := NewSession(identity.Operator{ID: uuid.New(), Role: "cashier"}, searcher, submitter, nil)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_ROLE", domainErr.Code)
	})

	t.Run("missing collaborators", func(t *testing.T) {
		_, err := NewSession(staffOperator(), nil, submitter, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestSession_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("reports availability net of the cart", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		m := napa()
		f.searcher.On("Search", ctx, "napa").Return([]catalog.Medicine{m}, nil)

		_, err := f.session.Add(ctx, m, 4, nil)
		require.NoError(t, err)

		results, err := f.session.Search(ctx, "napa")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, int64(6), results[0].Available)
		assert.False(t, results[0].OutOfStock)

		_, err = f.session.Add(ctx, m, 6, nil)
		require.NoError(t, err)

		results, err = f.session.Search(ctx, "napa")
		require.NoError(t, err)
		assert.Equal(t, int64(0), results[0].Available)
		assert.True(t, results[0].OutOfStock)
		f.searcher.AssertExpectations(t)
	})

	t.Run("skips invalid entries", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		bad := napa()
		bad.Name = ""
		f.searcher.On("Search", ctx, "").Return([]catalog.Medicine{bad, napa()}, nil)

		results, err := f.session.Search(ctx, "")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 1, f.logs.FilterMessage("Skipping invalid catalog entry").Len())
	})

	t.Run("keeps entries with out-of-range percents", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		odd := napa()
		odd.VATPct = dec("120")
		odd.DefaultDiscountPct = dec("150")
		f.searcher.On("Search", ctx, "napa").Return([]catalog.Medicine{odd}, nil)

		results, err := f.session.Search(ctx, "napa")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 0, f.logs.FilterMessage("Skipping invalid catalog entry").Len())

		_, err = f.session.Add(ctx, results[0].Medicine, 4, nil)
		require.NoError(t, err)
		line := f.session.Lines()[0]
		requireDecEqual(t, "100", line.VATPct)
		requireDecEqual(t, "100", line.DiscountPct)
	})

	t.Run("wraps searcher errors", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		boom := errors.New("catalog offline")
		f.searcher.On("Search", ctx, "x").Return(nil, boom)

		results, err := f.session.Search(ctx, "x")
		assert.Nil(t, results)
		assert.ErrorIs(t, err, boom)
	})
}

func TestSession_Scenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, staffOperator())

	result, err := f.session.Add(ctx, napa(), 4, nil)
	require.NoError(t, err)
	assert.Equal(t, cart.AllocationComplete, result.Status)

	lines := f.session.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(4), lines[0].Quantity)
	requireDecEqual(t, "20.00", lines[0].Rate)
	requireDecEqual(t, "5", lines[0].DiscountPct)
	requireDecEqual(t, "76.00", lines[0].Amount)

	summary := f.session.SetPaid(ctx, dec("50"))
	requireDecEqual(t, "76.00", summary.Subtotal)
	requireDecEqual(t, "5.70", summary.VATTotal)
	requireDecEqual(t, "81.70", summary.NetPayable)
	requireDecEqual(t, "50.00", summary.Paid)
	requireDecEqual(t, "31.70", summary.Due)
	assert.False(t, summary.PaidCapped)

	summary = f.session.SetExtraDiscount(ctx, dec("76.00"))
	requireDecEqual(t, "0.00", summary.VATTotal)
	requireDecEqual(t, "0.00", summary.NetPayable)
	requireDecEqual(t, "0.00", summary.Paid)
	requireDecEqual(t, "0.00", summary.Due)
	assert.True(t, summary.PaidCapped)

	assert.Equal(t, 1, f.logs.FilterMessage("Medicine allocated").Len())
}

func TestSession_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid quantity", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		_, err := f.session.Add(ctx, napa(), 0, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
		assert.Empty(t, f.session.Lines())
		assert.Equal(t, 1, f.logs.FilterMessage("Allocation rejected").Len())
	})

	t.Run("negative rate override", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		rate := dec("-1")
		_, err := f.session.Add(ctx, napa(), 1, &rate)
		assert.ErrorIs(t, err, shared.ErrInvalidRate)
		assert.Empty(t, f.session.Lines())
	})

	t.Run("partial allocation is logged", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		result, err := f.session.Add(ctx, napa(), 12, nil)
		require.NoError(t, err)
		assert.Equal(t, cart.AllocationPartial, result.Status)
		assert.Equal(t, int64(2), result.Shortfall)

		entries := f.logs.FilterMessage("Medicine partially allocated").All()
		require.Len(t, entries, 1)
		assert.Equal(t, int64(2), entries[0].ContextMap()["shortfall"])
		assert.Equal(t, f.session.ID().String(), entries[0].ContextMap()["session_id"])
	})

	t.Run("reject policy from cart options", func(t *testing.T) {
		f := newFixture(t, staffOperator(), WithCartOptions(cart.WithPartialPolicy(cart.PartialReject)))
		result, err := f.session.Add(ctx, napa(), 12, nil)
		require.NoError(t, err)
		assert.Equal(t, cart.AllocationRejected, result.Status)
		assert.Empty(t, f.session.Lines())
		assert.Equal(t, 1, f.logs.FilterMessage("Medicine not allocated").Len())
	})

	t.Run("lines are stamped with the session clock", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		_, err := f.session.Add(ctx, napa(), 1, nil)
		require.NoError(t, err)
		assert.Equal(t, testNow, f.session.Lines()[0].AddedAt)
	})
}

func TestSession_LineEdits(t *testing.T) {
	ctx := context.Background()

	t.Run("quantity capped at the batch", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		_, err := f.session.Add(ctx, napa(), 2, nil)
		require.NoError(t, err)
		lineID := f.session.Lines()[0].ID

		ceiling, err := f.session.MaxQuantityForLine(lineID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), ceiling)

		result, err := f.session.SetQuantity(ctx, lineID, 15)
		require.NoError(t, err)
		assert.True(t, result.Capped)
		assert.Equal(t, int64(10), result.Applied)
		assert.Equal(t, 1, f.logs.FilterMessage("Quantity capped").Len())

		result, err = f.session.DecrementQuantity(ctx, lineID)
		require.NoError(t, err)
		assert.Equal(t, int64(9), result.Applied)

		result, err = f.session.IncrementQuantity(ctx, lineID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), result.Applied)
	})

	t.Run("unknown line", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		_, err := f.session.SetQuantity(ctx, uuid.New(), 1)
		assert.ErrorIs(t, err, shared.ErrLineNotFound)
		_, err = f.session.SetDiscount(ctx, uuid.New(), dec("1"))
		assert.ErrorIs(t, err, shared.ErrLineNotFound)
		assert.ErrorIs(t, f.session.Remove(ctx, uuid.New()), shared.ErrLineNotFound)
		_, err = f.session.MaxQuantityForLine(uuid.New())
		assert.ErrorIs(t, err, shared.ErrLineNotFound)
	})

	t.Run("staff discount capped at the default limit", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		_, err := f.session.Add(ctx, napa(), 1, nil)
		require.NoError(t, err)
		lineID := f.session.Lines()[0].ID

		result, err := f.session.SetDiscount(ctx, lineID, dec("12"))
		require.NoError(t, err)
		assert.True(t, result.Capped)
		requireDecEqual(t, "5", result.Applied)
		assert.Equal(t, 1, f.logs.FilterMessage("Discount capped").Len())

		result, err = f.session.DecrementDiscount(ctx, lineID)
		require.NoError(t, err)
		requireDecEqual(t, "4", result.Applied)

		result, err = f.session.IncrementDiscount(ctx, lineID)
		require.NoError(t, err)
		requireDecEqual(t, "5", result.Applied)
	})

	t.Run("admin may discount up to 100", func(t *testing.T) {
		f := newFixture(t, adminOperator())
		_, err := f.session.Add(ctx, napa(), 1, nil)
		require.NoError(t, err)

		result, err := f.session.SetDiscount(ctx, f.session.Lines()[0].ID, dec("40"))
		require.NoError(t, err)
		assert.False(t, result.Capped)
		requireDecEqual(t, "40", result.Applied)
	})

	t.Run("remove", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		_, err := f.session.Add(ctx, napa(), 1, nil)
		require.NoError(t, err)

		require.NoError(t, f.session.Remove(ctx, f.session.Lines()[0].ID))
		assert.Empty(t, f.session.Lines())
	})
}

func TestSession_PaymentInputs(t *testing.T) {
	ctx := context.Background()

	t.Run("extra discount clamp is logged", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		_, err := f.session.Add(ctx, napa(), 4, nil)
		require.NoError(t, err)

		summary := f.session.SetExtraDiscount(ctx, dec("500"))
		assert.True(t, summary.ExtraDiscountCapped)
		requireDecEqual(t, "76.00", summary.ExtraDiscount)
		assert.Equal(t, 1, f.logs.FilterMessage("Extra discount capped").Len())
	})

	t.Run("inputs follow later cart edits", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		_, err := f.session.Add(ctx, napa(), 4, nil)
		require.NoError(t, err)
		f.session.SetExtraDiscount(ctx, dec("50"))

		require.NoError(t, f.session.Remove(ctx, f.session.Lines()[0].ID))
		summary := f.session.Summary()
		requireDecEqual(t, "0", summary.ExtraDiscount)
		requireDecEqual(t, "0", summary.NetPayable)
	})

	t.Run("payment method", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		require.NoError(t, f.session.SetPaymentMethod(finance.PaymentMethodMobileBanking))
		assert.Equal(t, finance.PaymentMethodMobileBanking, f.session.PaymentMethod())

		err := f.session.SetPaymentMethod("CHEQUE")
		assert.ErrorIs(t, err, shared.ErrInvalidPaymentMethod)
		assert.Equal(t, finance.PaymentMethodMobileBanking, f.session.PaymentMethod())
	})
}

func TestSession_BuildSubmission(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		_, err := f.session.BuildSubmission(CustomerContext{})
		assert.ErrorIs(t, err, shared.ErrEmptyCart)
	})

	t.Run("payload", func(t *testing.T) {
		op := staffOperator()
		f := newFixture(t, op)
		m := napa()
		_, err := f.session.Add(ctx, m, 4, nil)
		require.NoError(t, err)
		f.session.SetExtraDiscount(ctx, dec("6"))
		f.session.SetPaid(ctx, dec("1000"))
		require.NoError(t, f.session.SetPaymentMethod(finance.PaymentMethodCard))

		sub, err := f.session.BuildSubmission(CustomerContext{CustomerName: "Walk-in", Phone: "01700000000"})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, sub.SubmissionID)
		assert.Equal(t, f.session.ID(), sub.SessionID)
		assert.Equal(t, op.ID, sub.OperatorID)
		assert.Equal(t, "BDT", sub.Currency)
		assert.Equal(t, "Walk-in", sub.Customer.CustomerName)
		assert.Equal(t, testNow, sub.CreatedAt)

		require.Len(t, sub.Lines, 1)
		line := sub.Lines[0]
		assert.Equal(t, m.ID, line.MedicineID)
		assert.Equal(t, m.Batches[0].ID, line.BatchID)
		assert.Equal(t, int64(4), line.Quantity)
		requireDecEqual(t, "20", line.Rate)
		requireDecEqual(t, "5", line.DiscountPct)
		requireDecEqual(t, "7.5", line.VATPct)

		// 76 - 6 = 70 taxable, VAT 5.25, net 75.25
		requireDecEqual(t, "6", sub.Finance.ExtraDiscount)
		requireDecEqual(t, "75.25", sub.Finance.Paid)
		assert.Equal(t, finance.PaymentMethodCard, sub.Finance.PaymentMethod)
		requireDecEqual(t, "76", sub.Totals.Subtotal)
		requireDecEqual(t, "5.25", sub.Totals.VATTotal)
		requireDecEqual(t, "75.25", sub.Totals.NetPayable)
		requireDecEqual(t, "0", sub.Totals.Due)

		assert.Len(t, f.session.Lines(), 1, "building a payload leaves the cart alone")
	})

	t.Run("invalid customer details", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		_, err := f.session.Add(ctx, napa(), 1, nil)
		require.NoError(t, err)

		_, err = f.session.BuildSubmission(CustomerContext{Phone: strings.Repeat("1", 31)})
		require.ErrorIs(t, err, shared.ErrInvalidInput)

		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr))
		require.Len(t, validationErr.Violations, 1)
		assert.Equal(t, "customer.phone", validationErr.Violations[0].Field)
	})
}

func TestSession_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("success starts a new sale", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		_, err := f.session.Add(ctx, napa(), 4, nil)
		require.NoError(t, err)
		f.session.SetPaid(ctx, dec("50"))
		require.NoError(t, f.session.SetPaymentMethod(finance.PaymentMethodCard))

		receipt := SubmissionReceipt{SaleID: "S-0001", SubmittedAt: testNow}
		f.submitter.On("Submit", ctx, mock.MatchedBy(func(sale SaleSubmission) bool {
			return len(sale.Lines) == 1 &&
				sale.Finance.Paid.Equal(dec("50")) &&
				sale.Totals.Due.Equal(dec("31.70"))
		})).Return(receipt, nil).Once()

		got, err := f.session.Submit(ctx, CustomerContext{})
		require.NoError(t, err)
		assert.Equal(t, receipt, got)

		assert.Empty(t, f.session.Lines())
		assert.Equal(t, finance.PaymentMethodCash, f.session.PaymentMethod())
		summary := f.session.Summary()
		assert.True(t, summary.Paid.IsZero())
		assert.True(t, summary.ExtraDiscount.IsZero())
		entries := f.logs.FilterMessage("Sale submitted").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "81.70 BDT", fields["net_payable"])
		assert.Equal(t, "31.70 BDT", fields["due"])
		f.submitter.AssertExpectations(t)
	})

	t.Run("failure keeps the cart", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		_, err := f.session.Add(ctx, napa(), 4, nil)
		require.NoError(t, err)
		f.session.SetPaid(ctx, dec("50"))

		boom := errors.New("ledger unavailable")
		f.submitter.On("Submit", ctx, mock.AnythingOfType("checkout.SaleSubmission")).
			Return(SubmissionReceipt{}, boom).Once()

		_, err = f.session.Submit(ctx, CustomerContext{})
		assert.ErrorIs(t, err, boom)
		assert.Len(t, f.session.Lines(), 1)
		requireDecEqual(t, "50", f.session.Summary().Paid)
		assert.Equal(t, 1, f.logs.FilterMessage("Sale submission failed").Len())
	})

	t.Run("empty cart is not sent", func(t *testing.T) {
		f := newFixture(t, staffOperator())
		_, err := f.session.Submit(ctx, CustomerContext{})
		assert.ErrorIs(t, err, shared.ErrEmptyCart)
		f.submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})
}

func TestSession_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, staffOperator(), WithDefaultPaymentMethod(finance.PaymentMethodOther))

	_, err := f.session.Add(ctx, napa(), 3, nil)
	require.NoError(t, err)
	f.session.SetExtraDiscount(ctx, dec("5"))
	require.NoError(t, f.session.SetPaymentMethod(finance.PaymentMethodCard))

	f.session.Cancel(ctx)

	assert.Empty(t, f.session.Lines())
	assert.Equal(t, finance.PaymentMethodOther, f.session.PaymentMethod())
	assert.True(t, f.session.Summary().ExtraDiscount.IsZero())
	assert.Equal(t, 1, f.logs.FilterMessage("Sale cancelled").Len())
}
