package handlers

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	domainFilter "stockledger/internal/domain/filter"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// CatalogService is the part of domain.CatalogService the handlers use.
type CatalogService[T domain.CatalogEntity] interface {
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
	GetByID(ctx context.Context, entityID id.ID) (T, error)
	Create(ctx context.Context, entity T) error
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, entityID id.ID) error
}

// CatalogHandler provides generic HTTP handlers for catalog entities.
type CatalogHandler[T domain.CatalogEntity, CreateDTO any, UpdateDTO any] struct {
	*BaseHandler
	service    CatalogService[T]
	entityName string

	// Mapper functions
	mapCreateDTO func(dto CreateDTO) T
	mapUpdateDTO func(dto UpdateDTO, existing T) T
	mapToDTO     func(entity T) any

	// listFilters adds entity specific query parameters to the filter
	listFilters func(c *gin.Context, filter *domain.ListFilter)
}

// CatalogHandlerConfig configures the catalog handler.
type CatalogHandlerConfig[T domain.CatalogEntity, CreateDTO any, UpdateDTO any] struct {
	Service      CatalogService[T]
	EntityName   string
	MapCreateDTO func(dto CreateDTO) T
	MapUpdateDTO func(dto UpdateDTO, existing T) T
	MapToDTO     func(entity T) any
	ListFilters  func(c *gin.Context, filter *domain.ListFilter)
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T domain.CatalogEntity, CreateDTO any, UpdateDTO any](
	base *BaseHandler,
	cfg CatalogHandlerConfig[T, CreateDTO, UpdateDTO],
) *CatalogHandler[T, CreateDTO, UpdateDTO] {
	return &CatalogHandler[T, CreateDTO, UpdateDTO]{
		BaseHandler:  base,
		service:      cfg.Service,
		entityName:   cfg.EntityName,
		mapCreateDTO: cfg.MapCreateDTO,
		mapUpdateDTO: cfg.MapUpdateDTO,
		mapToDTO:     cfg.MapToDTO,
		listFilters:  cfg.ListFilters,
	}
}

// List handles GET /{entity} - list with filtering and pagination.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) List(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, h.mapToDTO))
}

// listFilter reads paging, search, ordering and advanced filters from the
// query string.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) listFilter(c *gin.Context) (domain.ListFilter, bool) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("order_by", "name")

	// filter=[{"field":"category","operator":"eq","value":"tools"}]
	if filterJSON := c.Query("filter"); filterJSON != "" {
		var advFilters []domainFilter.Item
		if err := json.Unmarshal([]byte(filterJSON), &advFilters); err != nil {
			h.Error(c, apperror.NewValidation("invalid filter format (json expected)"))
			return filter, false
		}
		filter.AdvancedFilters = advFilters
	}

	if h.listFilters != nil {
		h.listFilters(c, &filter)
	}
	return filter, true
}

// Get handles GET /{entity}/:id - get single entity.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Get(c *gin.Context) {
	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	entity, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.mapToDTO(entity))
}

// Create handles POST /{entity} - create new entity.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Create(c *gin.Context) {
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	entity := h.mapCreateDTO(req)

	if err := h.service.Create(c.Request.Context(), entity); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, h.mapToDTO(entity))
}

// Update handles PUT /{entity}/:id - update existing entity.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Update(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req UpdateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	updated := h.mapUpdateDTO(req, existing)

	if err := h.service.Update(ctx, updated); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.mapToDTO(updated))
}

// Delete handles DELETE /{entity}/:id.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Delete(c *gin.Context) {
	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
