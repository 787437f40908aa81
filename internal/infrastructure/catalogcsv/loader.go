package catalogcsv

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// Catalog file columns
const (
	ColMedicineID         = "medicine_id"
	ColMedicineName       = "medicine_name"
	ColGenericName        = "generic_name"
	ColUnit               = "unit"
	ColDefaultDiscountPct = "default_discount_pct"
	ColVATPct             = "vat_pct"
	ColBatchID            = "batch_id"
	ColBatchNumber        = "batch_number"
	ColExpiryDate         = "expiry_date"
	ColCurrentQuantity    = "current_quantity"
	ColSalesRate          = "sales_rate"
	ColReceivedAt         = "received_at"
)

// DefaultMaxErrors is the number of row errors kept for reporting
const DefaultMaxErrors = 100

// Rules returns the column rules of a catalog file
func Rules() []FieldRule {
	hundred := decimal.NewFromInt(100)
	return []FieldRule{
		Field(ColMedicineID).Required().UUID().Build(),
		Field(ColMedicineName).Required().MaxLength(200).Build(),
		Field(ColGenericName).MaxLength(200).Build(),
		Field(ColUnit).MaxLength(20).Build(),
		Field(ColDefaultDiscountPct).Decimal().Range(decimal.Zero, hundred).Build(),
		Field(ColVATPct).Decimal().Range(decimal.Zero, hundred).Build(),
		Field(ColBatchID).Required().UUID().Unique().Build(),
		Field(ColBatchNumber).Required().MaxLength(50).Build(),
		Field(ColExpiryDate).Date(time.DateOnly).Build(),
		Field(ColCurrentQuantity).Required().Int().MinValue(decimal.Zero).Build(),
		Field(ColSalesRate).Required().Decimal().MinValue(decimal.Zero).Build(),
		Field(ColReceivedAt).Required().Date(time.RFC3339).Build(),
	}
}

// LoadResult is the outcome of loading a catalog file
type LoadResult struct {
	Medicines []catalog.Medicine
	Errors    *ErrorCollection
	TotalRows int
	ValidRows int
}

// LoadFile opens and loads a catalog file
func LoadFile(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a catalog CSV. Structural problems (encoding, header, missing
// columns) are returned as an error; row problems are collected on the
// result and the offending rows or medicines are left out.
func Load(r io.Reader) (*LoadResult, error) {
	parser, err := NewParser(r)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}

	validator := NewFieldValidator(Rules(), DefaultMaxErrors)
	if missing := parser.MissingHeaders(validator.Columns()); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, err
	}

	b := newBuilder(validator.Errors())
	for _, row := range rows {
		if !validator.ValidateRow(row) {
			continue
		}
		b.add(row)
	}

	medicines := b.medicines()
	return &LoadResult{
		Medicines: medicines,
		Errors:    validator.Errors(),
		TotalRows: len(rows),
		ValidRows: b.validRows,
	}, nil
}

// builder groups batch rows into medicines in first-seen order
type builder struct {
	order     []uuid.UUID
	byID      map[uuid.UUID]*catalog.Medicine
	firstRow  map[uuid.UUID]int
	errors    *ErrorCollection
	validRows int
}

func newBuilder(errors *ErrorCollection) *builder {
	return &builder{
		byID:     make(map[uuid.UUID]*catalog.Medicine),
		firstRow: make(map[uuid.UUID]int),
		errors:   errors,
	}
}

func (b *builder) add(row *Row) {
	head := medicineFromRow(row)
	batch := batchFromRow(row, head.ID)

	m, ok := b.byID[head.ID]
	if !ok {
		head.Batches = []catalog.StockBatch{batch}
		b.byID[head.ID] = &head
		b.firstRow[head.ID] = row.LineNumber
		b.order = append(b.order, head.ID)
		b.validRows++
		return
	}

	if column := conflictingColumn(*m, head); column != "" {
		b.errors.Add(RowError{
			Row:    row.LineNumber,
			Column: column,
			Code:   ErrCodeConflict,
			Message: fmt.Sprintf("medicine %s differs from row %d",
				head.ID, b.firstRow[head.ID]),
			Value: row.Get(column),
		})
		return
	}
	m.Batches = append(m.Batches, batch)
	b.validRows++
}

func (b *builder) medicines() []catalog.Medicine {
	out := make([]catalog.Medicine, 0, len(b.order))
	for _, id := range b.order {
		m := *b.byID[id]
		if err := m.Validate(); err != nil {
			b.errors.Add(RowError{
				Row:     b.firstRow[id],
				Code:    ErrCodeInvalidEntry,
				Message: err.Error(),
				Value:   id.String(),
			})
			continue
		}
		out = append(out, m)
	}
	return out
}

func conflictingColumn(a, b catalog.Medicine) string {
	switch {
	case a.Name != b.Name:
		return ColMedicineName
	case a.GenericName != b.GenericName:
		return ColGenericName
	case a.Unit != b.Unit:
		return ColUnit
	case !a.DefaultDiscountPct.Equal(b.DefaultDiscountPct):
		return ColDefaultDiscountPct
	case !a.VATPct.Equal(b.VATPct):
		return ColVATPct
	}
	return ""
}

// Row values below have passed the column rules.

func medicineFromRow(row *Row) catalog.Medicine {
	return catalog.Medicine{
		ID:                 uuid.MustParse(row.Get(ColMedicineID)),
		Name:               row.Get(ColMedicineName),
		GenericName:        row.Get(ColGenericName),
		Unit:               row.Get(ColUnit),
		DefaultDiscountPct: decimalOrZero(row.Get(ColDefaultDiscountPct)),
		VATPct:             decimalOrZero(row.Get(ColVATPct)),
	}
}

func batchFromRow(row *Row, medicineID uuid.UUID) catalog.StockBatch {
	qty, _ := decimal.NewFromString(row.Get(ColCurrentQuantity))
	receivedAt, _ := time.Parse(time.RFC3339, row.Get(ColReceivedAt))

	batch := catalog.StockBatch{
		ID:              uuid.MustParse(row.Get(ColBatchID)),
		MedicineID:      medicineID,
		BatchNumber:     row.Get(ColBatchNumber),
		CurrentQuantity: qty.IntPart(),
		SalesRate:       decimalOrZero(row.Get(ColSalesRate)),
		ReceivedAt:      receivedAt,
	}
	if v := row.Get(ColExpiryDate); v != "" {
		expiry, _ := time.Parse(time.DateOnly, v)
		batch.ExpiryDate = &expiry
	}
	return batch
}

func decimalOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
