package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// Dashboard provides the dashboard figures.
type Dashboard interface {
	KPIs(ctx context.Context, warehouseID *id.ID) (reports.KPIs, error)
	LowStock(ctx context.Context, warehouseID *id.ID) ([]reports.LowStockItem, error)
	RecentActivity(ctx context.Context, limit int) ([]ledger.Entry, error)
}

// DashboardHandler serves /dashboard.
type DashboardHandler struct {
	*BaseHandler
	service Dashboard
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(base *BaseHandler, service Dashboard) *DashboardHandler {
	return &DashboardHandler{BaseHandler: base, service: service}
}

// KPIs handles GET /dashboard/kpis?warehouse_id.
func (h *DashboardHandler) KPIs(c *gin.Context) {
	warehouseID, ok := h.warehouseQuery(c)
	if !ok {
		return
	}

	kpis, err := h.service.KPIs(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromKPIs(kpis))
}

// LowStock handles GET /dashboard/low-stock?warehouse_id.
func (h *DashboardHandler) LowStock(c *gin.Context) {
	warehouseID, ok := h.warehouseQuery(c)
	if !ok {
		return
	}

	rows, err := h.service.LowStock(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.StockLevelResponse, len(rows))
	for i, row := range rows {
		items[i] = dto.FromStockLevel(row)
	}
	h.OK(c, gin.H{"items": items})
}

// RecentActivities handles GET /dashboard/recent-activities?limit.
func (h *DashboardHandler) RecentActivities(c *gin.Context) {
	entries, err := h.service.RecentActivity(c.Request.Context(), h.ParseIntQuery(c, "limit", 10))
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.LedgerEntryResponse, len(entries))
	for i, e := range entries {
		items[i] = dto.FromLedgerEntry(e)
	}
	h.OK(c, gin.H{"items": items})
}

func (h *DashboardHandler) warehouseQuery(c *gin.Context) (*id.ID, bool) {
	raw := c.Query("warehouse_id")
	warehouseID, err := dto.ParseOptionalID("warehouse_id", &raw)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return warehouseID, true
}
