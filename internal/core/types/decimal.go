// Package types provides value types shared by documents and reports.
package types

import (
	"github.com/shopspring/decimal"
)

// Money is a monetary amount, stored as NUMERIC(10,2).
type Money = decimal.Decimal

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// LineAmount returns price * qty rounded to cents.
func LineAmount(price Money, qty Quantity) Money {
	return price.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}
