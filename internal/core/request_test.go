package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		method string
		want   Op
	}{
		{"", OpCreate},
		{"POST", OpCreate},
		{"CREATE", OpCreate},
		{"PUT", OpUpdate},
		{"UPDATE", OpUpdate},
		{"DELETE", OpDelete},
		{"put", OpCreate},
		{"delete", OpCreate},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseMethod(tt.method), "ParseMethod(%q)", tt.method)
	}
}

func TestParseMethodOrAction(t *testing.T) {
	tests := []struct {
		method, action string
		want           Op
	}{
		{"", "", OpCreate},
		{"", "DELETE", OpDelete},
		{"", "PUT", OpUpdate},
		{"", "UPDATE", OpUpdate},
		{"POST", "DELETE", OpCreate},
		{"DELETE", "PUT", OpDelete},
	}

	for _, tt := range tests {
		got := ParseMethodOrAction(tt.method, tt.action)
		assert.Equal(t, tt.want, got, "ParseMethodOrAction(%q, %q)", tt.method, tt.action)
	}
}

func TestParseFields(t *testing.T) {
	assert.Nil(t, ParseFields(""))
	assert.Equal(t, map[string]bool{}, ParseFields(" , + "))
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true, "d": true},
		ParseFields("a,b +c\td"))
}

func TestDecodeBatch(t *testing.T) {
	t.Run("object becomes one record", func(t *testing.T) {
		recs, err := DecodeBatch([]byte(` {"b":1,"a":2} `))
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, []string{"b", "a"}, keys(recs[0]))
	})

	t.Run("array keeps order and null elements", func(t *testing.T) {
		recs, err := DecodeBatch([]byte(`[{"x":1},null,{"y":"z"}]`))
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, 0, recs[1].Len())
		assert.Equal(t, "z", get(recs[2], "y"))
	})

	t.Run("empty array", func(t *testing.T) {
		recs, err := DecodeBatch([]byte(`[]`))
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"a":`},
		{"empty body", ``},
		{"scalar", `42`},
		{"scalar element", `[{"a":1}, "b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBatch([]byte(tt.body))
			require.ErrorIs(t, err, ErrInvalidPayload)
			assert.Equal(t, "Invalid JSON", err.Error())

			var e *Error
			require.True(t, errors.As(err, &e))
			assert.NotEmpty(t, e.Debug)
		})
	}
}

func TestDecodePatch(t *testing.T) {
	rec, err := DecodePatch([]byte(`{"id":"a","v":1}`), OpUpdate)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "v"}, keys(rec))

	rec, err = DecodePatch([]byte(`null`), OpDelete)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Len())

	_, err = DecodePatch([]byte(`{`), OpDelete)
	require.ErrorIs(t, err, ErrInvalidPayload)
	assert.Equal(t, "Invalid JSON for delete", err.Error())
}

func TestValueHelpers(t *testing.T) {
	for _, v := range []any{nil, "", false, float64(0), 0, math.NaN()} {
		assert.True(t, falsy(v), "falsy(%#v)", v)
	}
	for _, v := range []any{"0", "false", true, 1, -1.5, " "} {
		assert.False(t, falsy(v), "falsy(%#v)", v)
	}

	assert.True(t, disabled(false))
	assert.True(t, disabled("FALSE"))
	assert.False(t, disabled("false"))
	assert.False(t, disabled(""))
	assert.False(t, disabled(float64(0)))

	assert.Equal(t, "123", Stringify(float64(123)))
	assert.Equal(t, "1.5", Stringify(1.5))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "", Stringify(nil))

	ts := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.FixedZone("X", 3600))
	assert.Equal(t, "2024-01-02T02:04:05.006Z", Timestamp(ts))
}

func TestIDGenerators(t *testing.T) {
	g, err := NewIDGenerator("uuid")
	require.NoError(t, err)
	assert.Len(t, g.NewID(), 36)

	g, err = NewIDGenerator("ksid")
	require.NoError(t, err)
	a, b := g.NewID(), g.NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)

	_, err = NewIDGenerator("serial")
	require.Error(t, err)
}

func TestDecodeRecord(t *testing.T) {
	rec, err := DecodeRecord(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Len())

	rec, err = DecodeRecord([]byte(`{"z":1,"a":true}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a"}, keys(rec))

	_, err = DecodeRecord([]byte(`[1]`))
	require.ErrorIs(t, err, ErrInvalidPayload)
}
