package handlers

import (
	"stockledger/internal/domain/catalogs/warehouse"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// WarehouseHTTPHandler serves /warehouses.
type WarehouseHTTPHandler = CatalogHandler[
	*warehouse.Warehouse,
	dto.CreateWarehouseRequest,
	dto.UpdateWarehouseRequest,
]

// NewWarehouseHandler creates the warehouse handler.
func NewWarehouseHandler(base *BaseHandler, service *warehouse.Service) *WarehouseHTTPHandler {
	return NewCatalogHandler(base, CatalogHandlerConfig[
		*warehouse.Warehouse,
		dto.CreateWarehouseRequest,
		dto.UpdateWarehouseRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "warehouse",

		MapCreateDTO: func(req dto.CreateWarehouseRequest) *warehouse.Warehouse {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateWarehouseRequest, existing *warehouse.Warehouse) *warehouse.Warehouse {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *warehouse.Warehouse) any {
			return dto.FromWarehouse(entity)
		},
	})
}
