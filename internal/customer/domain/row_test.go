package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/smallbiznis/churnlens/internal/features"
	"github.com/smallbiznis/churnlens/internal/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRowParsesKnownAndExtraColumns(t *testing.T) {
	c, err := FromRow(Row{
		ColumnID:           "12345.0",
		ColumnSegment:      "Champion",
		ColumnChurnRisk:    "Low Risk",
		ColumnCLV6M:        "812.4",
		ColumnFrequency:    []byte("6"),
		ColumnMonetary:     int64(900),
		"DaysSinceSignup":  "410",
		"Country":          "United Kingdom",
		"EmptyExtraColumn": " ",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(12345), c.ID)
	assert.Equal(t, taxonomy.SegmentChampion, c.Segment)
	assert.Equal(t, taxonomy.RiskLow, c.ChurnRisk)
	assert.Equal(t, 812.4, c.CLV6M)
	assert.Equal(t, 6.0, c.Frequency)
	assert.Equal(t, 900.0, c.Monetary)
	assert.Equal(t, 410.0, c.Extra["DaysSinceSignup"])
	assert.Equal(t, "United Kingdom", c.Extra["Country"])
	assert.NotContains(t, c.Extra, "EmptyExtraColumn")
}

func TestFromRowDefaults(t *testing.T) {
	c, err := FromRow(Row{ColumnID: 7})
	require.NoError(t, err)
	assert.Equal(t, taxonomy.SegmentNewCustomer, c.Segment)
	assert.Empty(t, c.ChurnRisk)
	assert.Nil(t, c.Extra)
}

func TestFromRowRejects(t *testing.T) {
	cases := map[string]struct {
		row    Row
		column string
	}{
		"missing id":     {Row{ColumnSegment: "Champion"}, ColumnID},
		"bad id":         {Row{ColumnID: "abc"}, ColumnID},
		"unknown segent": {Row{ColumnID: 1, ColumnSegment: "Whale"}, ColumnSegment},
		"unknown risk":   {Row{ColumnID: 1, ColumnChurnRisk: "Severe"}, ColumnChurnRisk},
		"bad number":     {Row{ColumnID: 1, ColumnRecency: "soon"}, ColumnRecency},
		"nan number":     {Row{ColumnID: 1, ColumnRecency: "NaN"}, ColumnRecency},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromRow(tc.row)
			var rowErr *RowError
			require.True(t, errors.As(err, &rowErr))
			assert.Equal(t, tc.column, rowErr.Column)
		})
	}
}

func TestParseID(t *testing.T) {
	for raw, want := range map[string]int64{"12": 12, "12.0": 12, "12.9": 12, " 3 ": 3, "-4.5": -4} {
		got, err := ParseID(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, raw := range []any{"abc", "", "NaN", "Inf", math.Inf(-1), "1e30"} {
		_, err := ParseID(raw)
		assert.ErrorIs(t, err, ErrInvalidID, "%v", raw)
	}
}

func TestCustomerFeedsFeatureAdapter(t *testing.T) {
	c := &Customer{Frequency: 5, Monetary: 500, Recency: 30, TenureDays: 200, Extra: map[string]any{"Score": 2.5}}

	in, err := features.CLVInputs(c)
	require.NoError(t, err)
	assert.Equal(t, 100.0, in.MonetaryValue)
	assert.Equal(t, 200.0, in.Tenure)

	vec, err := features.ChurnVector(c, []string{"Frequency", "Score", "Unknown"})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 2.5, 0}, vec)
}
