package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chassis-framework/chassis/pkg/observability"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, nil)
}

func TestEncodeScalars(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"string", "plain", "plain"},
		{"bool", true, "true"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"float64", 1.5, "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeStruct(t *testing.T) {
	got, err := encode(testEntity{ID: 1, Name: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"x"}`, got)
}

func TestLooksLikeJSON(t *testing.T) {
	assert.True(t, looksLikeJSON(`{"a":1}`))
	assert.True(t, looksLikeJSON(`[1,2]`))
	assert.True(t, looksLikeJSON(`"quoted"`))
	assert.False(t, looksLikeJSON("plain"))
	assert.False(t, looksLikeJSON("42"))
	assert.False(t, looksLikeJSON(""))
}

func TestDecodeIntoRawString(t *testing.T) {
	var s string
	require.NoError(t, decodeInto("plain text", &s))
	assert.Equal(t, "plain text", s)
}

func TestDecodeIntoScalars(t *testing.T) {
	var b bool
	require.NoError(t, decodeInto("true", &b))
	assert.True(t, b)

	var n int64
	require.NoError(t, decodeInto("42", &n))
	assert.Equal(t, int64(42), n)

	var f float64
	require.NoError(t, decodeInto("1.5", &f))
	assert.Equal(t, 1.5, f)
}

func TestDecodeIntoJSON(t *testing.T) {
	var e testEntity
	require.NoError(t, decodeInto(`{"id":3,"name":"y"}`, &e))
	assert.Equal(t, testEntity{ID: 3, Name: "y"}, e)
}

func TestDecodeIntoMismatch(t *testing.T) {
	var n int64
	assert.Error(t, decodeInto("not-a-number", &n))

	var e testEntity
	assert.Error(t, decodeInto("scalar", &e))
}
