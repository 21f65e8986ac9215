package grid

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"string", "x", "x"},
		{"bool", true, true},
		{"float", 1.25, 1.25},
		{"int", 3, float64(3)},
		{"int64", int64(-4), float64(-4)},
		{"json number", json.Number("12"), float64(12)},
		{"array", []any{1, "a"}, `[1,"a"]`},
		{"object", map[string]any{"k": false}, `{"k":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "abc", String("abc"))
	assert.Equal(t, "false", String(false))
	assert.Equal(t, "7", String(float64(7)))
	assert.Equal(t, "0.1", String(0.1))
	assert.Equal(t, "-2.5", String(-2.5))
	assert.Equal(t, "1e+21", String(1e21))
	assert.Equal(t, "NaN", String(math.NaN()))
	assert.Equal(t, "Infinity", String(math.Inf(1)))
	assert.Equal(t, "42", String(42))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(""))
	assert.False(t, IsEmpty(" "))
	assert.False(t, IsEmpty(false))
	assert.False(t, IsEmpty(float64(0)))
}

func TestCellEncoding(t *testing.T) {
	for _, v := range []any{"text", 1.5, true, false, "FALSE"} {
		s, err := EncodeCell(v)
		require.NoError(t, err)

		got, err := DecodeCell(s)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	s, err := EncodeCell(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", s)

	got, err := DecodeCell(s)
	require.NoError(t, err)
	assert.Equal(t, "", got, "null decodes to an empty cell")

	_, err = DecodeCell("{")
	require.Error(t, err)
}

func TestRangeValidate(t *testing.T) {
	require.NoError(t, Range{Row: 1, Col: 1}.Validate())
	require.ErrorIs(t, Range{Row: 0, Col: 1}.Validate(), ErrInvalidRange)
	require.ErrorIs(t, Range{Row: 1, Col: 1, NumCols: -1}.Validate(), ErrInvalidRange)
	assert.Equal(t, 5, Range{Row: 2, NumRows: 4}.LastRow())
}

func TestBlank(t *testing.T) {
	assert.Equal(t, [][]any{{"", ""}, {"", ""}}, Blank(2, 2))
	assert.Empty(t, Blank(0, 3))
}
