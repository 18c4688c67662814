package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Quantity counts whole stock units.
type Quantity int64

func (q Quantity) Int64() int64 { return int64(q) }

// Int64Ptr converts an optional quantity.
func (q *Quantity) Int64Ptr() *int64 {
	if q == nil {
		return nil
	}
	v := int64(*q)
	return &v
}

// UnmarshalJSON accepts a JSON integer or a quoted integer.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("quantity must be a whole number: %q", string(data))
	}
	*q = Quantity(v)
	return nil
}
