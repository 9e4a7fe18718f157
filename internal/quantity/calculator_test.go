package quantity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/tekstil/internal/textile"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestRemainingStatuses(t *testing.T) {
	cases := []struct {
		name    string
		summary textile.Summary
		unit    string
		status  Status
		label   string
		remain  string
	}{
		{
			name:    "open",
			summary: textile.Summary{TotalMeter: d("500"), TotalMeterDalamProses: d("380")},
			unit:    "Meter",
			status:  StatusOpen,
			label:   "120.00 / 500.00",
			remain:  "120",
		},
		{
			name:    "exactly consumed",
			summary: textile.Summary{TotalMeter: d("500"), TotalMeterDalamProses: d("500")},
			unit:    "Meter",
			status:  StatusDone,
			label:   "DONE",
			remain:  "0",
		},
		{
			name:    "over consumed is clamped",
			summary: textile.Summary{TotalYard: d("100"), TotalYardDalamProses: d("130")},
			unit:    "yard",
			status:  StatusDone,
			label:   "DONE",
			remain:  "0",
		},
		{
			name:    "zero total",
			summary: textile.Summary{TotalMeterDalamProses: d("10")},
			unit:    "Meter",
			status:  StatusNone,
			label:   "-",
			remain:  "0",
		},
		{
			name:    "unknown unit",
			summary: textile.Summary{TotalMeter: d("500")},
			unit:    "Roll",
			status:  StatusNone,
			label:   "-",
			remain:  "0",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := System.Remaining(tc.summary, tc.unit)
			assert.Equal(t, tc.status, res.Status)
			assert.Equal(t, tc.label, res.Label())
			assert.True(t, d(tc.remain).Equal(res.Remaining), res.Remaining.String())
			assert.False(t, res.Remaining.IsNegative())
		})
	}
}

func TestSystemAndRealReadDifferentFields(t *testing.T) {
	summary := textile.Summary{
		TotalKilogram:                d("200"),
		TotalKilogramDalamProses:     d("200"),
		TotalKilogramDalamSuratJalan: d("50"),
	}

	assert.Equal(t, StatusDone, System.Remaining(summary, "Kilogram").Status)
	realRes := Real.Remaining(summary, "Kilogram")
	assert.Equal(t, StatusOpen, realRes.Status)
	assert.Equal(t, "150.00 / 200.00", realRes.Label())
}

func TestParseMode(t *testing.T) {
	calc, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, "system", calc.Name())

	calc, err = ParseMode("real")
	require.NoError(t, err)
	assert.Equal(t, "real", calc.Name())

	_, err = ParseMode("estimate")
	assert.Error(t, err)

	assert.Equal(t, StatusNone, Calculator{}.Remaining(textile.Summary{TotalMeter: d("1")}, "Meter").Status)
}

func TestFilterOpenAndPartition(t *testing.T) {
	docs := []textile.Document{
		{ID: 1, Number: "SO-1", UnitName: "Meter", Summary: textile.Summary{TotalMeter: d("500"), TotalMeterDalamProses: d("500")}},
		{ID: 2, Number: "SO-2", UnitName: "Meter", Summary: textile.Summary{TotalMeter: d("500"), TotalMeterDalamProses: d("100")}, IsVia: true},
		{ID: 3, Number: "SO-3", UnitName: "Pcs"},
		{ID: 4, Number: "SO-4", UnitName: "Yard", Summary: textile.Summary{TotalYard: d("10")}},
	}

	open := FilterOpen(docs, System)
	require.Len(t, open, 3)
	for _, doc := range open {
		assert.NotEqual(t, int64(1), doc.ID)
	}

	regular, via := PartitionVia(open)
	require.Len(t, via, 1)
	assert.Equal(t, int64(2), via[0].ID)
	assert.Len(t, regular, 2)

	opts := Options(via, System)
	require.Len(t, opts, 1)
	assert.Equal(t, "400.00 / 500.00", opts[0].Status)
	assert.True(t, opts[0].IsVia)
}

func TestOptionsNewestNumberFirst(t *testing.T) {
	docs := []textile.Document{
		{ID: 1, Number: "SO/TX/1224-00090"},
		{ID: 2, Number: "draft"},
		{ID: 3, Number: "SO/TX/0125-00002"},
		{ID: 4, Number: "SO/TX/0125-00010"},
	}
	opts := Options(docs, System)
	require.Len(t, opts, 4)
	ids := []int64{opts[0].ID, opts[1].ID, opts[2].ID, opts[3].ID}
	assert.Equal(t, []int64{4, 3, 1, 2}, ids)
	assert.Equal(t, "01/2025", opts[0].Period)
	assert.Empty(t, opts[3].Period)
}
