package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityUnmarshal(t *testing.T) {
	var v struct {
		A Quantity `json:"a"`
		B Quantity `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 100, "b": "42"}`), &v))
	assert.Equal(t, Quantity(100), v.A)
	assert.Equal(t, Quantity(42), v.B)

	assert.Error(t, json.Unmarshal([]byte(`{"a": 1.5}`), &v))
}

func TestQuantityInt64Ptr(t *testing.T) {
	var missing *Quantity
	assert.Nil(t, missing.Int64Ptr())

	q := Quantity(7)
	require.NotNil(t, q.Int64Ptr())
	assert.Equal(t, int64(7), *q.Int64Ptr())
}

func TestLineAmount(t *testing.T) {
	got := LineAmount(MustMoney("12.345"), 3)
	assert.Equal(t, "37.04", got.StringFixed(2))
}
