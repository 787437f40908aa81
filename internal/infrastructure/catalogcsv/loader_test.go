package catalogcsv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "medicine_id,medicine_name,generic_name,unit,default_discount_pct,vat_pct,batch_id,batch_number,expiry_date,current_quantity,sales_rate,received_at\n"

const (
	napaID = "6f1c2a4e-1b7d-4c3a-9a51-0d2f7f6a0001"
	aceID  = "6f1c2a4e-1b7d-4c3a-9a51-0d2f7f6a0002"
)

const sampleCatalog = header +
	napaID + ",Napa 500,Paracetamol,tab,5,7.5,0b8e1a52-2f0c-4a8e-8a3a-000000000001,N-101,2027-06-30,3,20,2026-01-10T09:00:00Z\n" +
	napaID + ",Napa 500,Paracetamol,tab,5,7.5,0b8e1a52-2f0c-4a8e-8a3a-000000000002,N-102,,4,20,2026-03-01T09:00:00Z\n" +
	aceID + ",Ace Plus,Paracetamol + Caffeine,strip,0,0,0b8e1a52-2f0c-4a8e-8a3a-000000000003,A-201,2026-12-31,10,35.50,2026-02-15T12:30:00+06:00\n"

func TestLoad(t *testing.T) {
	result, err := Load(strings.NewReader(sampleCatalog))
	require.NoError(t, err)

	assert.False(t, result.Errors.HasErrors(), result.Errors.String())
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 3, result.ValidRows)
	require.Len(t, result.Medicines, 2)

	napa := result.Medicines[0]
	assert.Equal(t, uuid.MustParse(napaID), napa.ID)
	assert.Equal(t, "Napa 500", napa.Name)
	assert.Equal(t, "Paracetamol", napa.GenericName)
	assert.Equal(t, "tab", napa.Unit)
	assert.True(t, napa.DefaultDiscountPct.Equal(decimal.NewFromInt(5)))
	assert.True(t, napa.VATPct.Equal(decimal.RequireFromString("7.5")))
	require.Len(t, napa.Batches, 2)

	first := napa.Batches[0]
	assert.Equal(t, napa.ID, first.MedicineID)
	assert.Equal(t, "N-101", first.BatchNumber)
	assert.Equal(t, int64(3), first.CurrentQuantity)
	assert.True(t, first.SalesRate.Equal(decimal.NewFromInt(20)))
	require.NotNil(t, first.ExpiryDate)
	assert.Equal(t, time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC), *first.ExpiryDate)
	assert.True(t, first.ReceivedAt.Equal(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)))

	assert.Nil(t, napa.Batches[1].ExpiryDate)

	ace := result.Medicines[1]
	assert.Equal(t, "Ace Plus", ace.Name)
	require.Len(t, ace.Batches, 1)
	assert.True(t, ace.Batches[0].SalesRate.Equal(decimal.RequireFromString("35.50")))
	assert.True(t, ace.Batches[0].ReceivedAt.Equal(time.Date(2026, 2, 15, 6, 30, 0, 0, time.UTC)))
}

func TestLoad_StructuralErrors(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		_, err := Load(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("missing columns", func(t *testing.T) {
		_, err := Load(strings.NewReader("medicine_id,medicine_name\n"))
		require.ErrorIs(t, err, ErrMissingColumns)
		assert.Contains(t, err.Error(), "batch_id")
		assert.Contains(t, err.Error(), "received_at")
		assert.NotContains(t, err.Error(), "generic_name")
	})

	t.Run("header only is an empty catalog", func(t *testing.T) {
		result, err := Load(strings.NewReader(header))
		require.NoError(t, err)
		assert.Empty(t, result.Medicines)
		assert.Equal(t, 0, result.TotalRows)
	})
}

func TestLoad_RowErrors(t *testing.T) {
	t.Run("invalid rows are left out", func(t *testing.T) {
		csv := header +
			napaID + ",Napa 500,,tab,5,0,0b8e1a52-2f0c-4a8e-8a3a-000000000001,N-101,,3,20,2026-01-10T09:00:00Z\n" +
			napaID + ",Napa 500,,tab,5,0,0b8e1a52-2f0c-4a8e-8a3a-000000000002,N-102,,-4,20,2026-03-01T09:00:00Z\n" +
			aceID + ",Ace Plus,,tab,150,0,0b8e1a52-2f0c-4a8e-8a3a-000000000003,A-201,,10,35,2026-02-15T12:30:00Z\n"

		result, err := Load(strings.NewReader(csv))
		require.NoError(t, err)

		require.Len(t, result.Medicines, 1)
		assert.Len(t, result.Medicines[0].Batches, 1)
		assert.Equal(t, 1, result.ValidRows)

		errs := result.Errors.Errors()
		require.Len(t, errs, 2)
		assert.Equal(t, 3, errs[0].Row)
		assert.Equal(t, ColCurrentQuantity, errs[0].Column)
		assert.Equal(t, ErrCodeInvalidRange, errs[0].Code)
		assert.Equal(t, 4, errs[1].Row)
		assert.Equal(t, ColDefaultDiscountPct, errs[1].Column)
	})

	t.Run("duplicate batch id", func(t *testing.T) {
		csv := header +
			napaID + ",Napa 500,,tab,5,0,0b8e1a52-2f0c-4a8e-8a3a-000000000001,N-101,,3,20,2026-01-10T09:00:00Z\n" +
			aceID + ",Ace Plus,,tab,0,0,0b8e1a52-2f0c-4a8e-8a3a-000000000001,A-201,,10,35,2026-02-15T12:30:00Z\n"

		result, err := Load(strings.NewReader(csv))
		require.NoError(t, err)

		require.Len(t, result.Medicines, 1)
		errs := result.Errors.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, ErrCodeDuplicate, errs[0].Code)
		assert.Equal(t, ColBatchID, errs[0].Column)
	})

	t.Run("conflicting medicine columns", func(t *testing.T) {
		csv := header +
			napaID + ",Napa 500,,tab,5,0,0b8e1a52-2f0c-4a8e-8a3a-000000000001,N-101,,3,20,2026-01-10T09:00:00Z\n" +
			napaID + ",Napa 500,,tab,10,0,0b8e1a52-2f0c-4a8e-8a3a-000000000002,N-102,,4,20,2026-03-01T09:00:00Z\n"

		result, err := Load(strings.NewReader(csv))
		require.NoError(t, err)

		require.Len(t, result.Medicines, 1)
		assert.Len(t, result.Medicines[0].Batches, 1)
		errs := result.Errors.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, ErrCodeConflict, errs[0].Code)
		assert.Equal(t, ColDefaultDiscountPct, errs[0].Column)
		assert.Contains(t, errs[0].Message, "row 2")
	})

	t.Run("bad received_at", func(t *testing.T) {
		csv := header +
			napaID + ",Napa 500,,tab,5,0,0b8e1a52-2f0c-4a8e-8a3a-000000000001,N-101,,3,20,2026-01-10\n"

		result, err := Load(strings.NewReader(csv))
		require.NoError(t, err)

		assert.Empty(t, result.Medicines)
		errs := result.Errors.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, ColReceivedAt, errs[0].Column)
		assert.Equal(t, ErrCodeInvalidType, errs[0].Code)
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o600))

	result, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, result.Medicines, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
