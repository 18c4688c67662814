package dto

import (
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/reports"
)

// KPIResponse is the dashboard summary.
type KPIResponse struct {
	TotalProducts     int64 `json:"total_products"`
	LowStockItems     int64 `json:"low_stock_items"`
	OutOfStockItems   int64 `json:"out_of_stock_items"`
	PendingReceipts   int64 `json:"pending_receipts"`
	PendingDeliveries int64 `json:"pending_deliveries"`
	PendingTransfers  int64 `json:"pending_transfers"`
}

// FromKPIs converts the domain KPIs.
func FromKPIs(k reports.KPIs) KPIResponse {
	return KPIResponse{
		TotalProducts:     k.TotalProducts,
		LowStockItems:     k.LowStockItems,
		OutOfStockItems:   k.OutOfStockItems,
		PendingReceipts:   k.PendingReceipts,
		PendingDeliveries: k.PendingDeliveries,
		PendingTransfers:  k.PendingTransfers,
	}
}

func validationField(field, message, value string) error {
	return apperror.NewValidation(message).
		WithDetail("field", field).
		WithDetail("value", value)
}

// parseTime accepts RFC 3339 or YYYY-MM-DD. A plain date used as an upper
// bound covers the whole day.
func parseTime(field, value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, validationField(field, "invalid date, expected RFC 3339 or YYYY-MM-DD", value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
