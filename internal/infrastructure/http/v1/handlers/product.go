package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/catalogs/category"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/stock"
	domainFilter "stockledger/internal/domain/filter"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// ProductService creates products with an optional opening quantity.
type ProductService interface {
	CatalogService[*product.Product]
	CreateWithStock(ctx context.Context, p *product.Product, stock *product.InitialStock) error
}

// ProductStock reads the stock figures shown on products.
type ProductStock interface {
	ProductLevels(ctx context.Context, productID id.ID, warehouseID *id.ID) ([]stock.Level, error)
	Totals(ctx context.Context, productIDs []id.ID) (map[id.ID]int64, error)
}

// CategoryService manages the category list.
type CategoryService interface {
	Create(ctx context.Context, name string, description *string) (*category.Category, error)
	List(ctx context.Context) ([]category.Category, error)
}

// ProductHandler serves /products. Create books initial stock through a
// validated receipt. With stock attached, List adds total_stock and Get
// adds the per-warehouse breakdown.
type ProductHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	service    ProductService
	stock      ProductStock
	categories CategoryService
}

// NewProductHandler creates the product handler.
func NewProductHandler(base *BaseHandler, service ProductService) *ProductHandler {
	catalog := NewCatalogHandler(base, CatalogHandlerConfig[
		*product.Product,
		dto.CreateProductRequest,
		dto.UpdateProductRequest,
	]{
		Service:    service,
		EntityName: "product",

		MapCreateDTO: func(req dto.CreateProductRequest) *product.Product {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) *product.Product {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *product.Product) any {
			return dto.FromProduct(entity)
		},

		ListFilters: func(c *gin.Context, filter *domain.ListFilter) {
			if category := c.Query("category"); category != "" {
				filter.AdvancedFilters = append(filter.AdvancedFilters, domainFilter.Eq("category", category))
			}
		},
	})

	return &ProductHandler{CatalogHandler: catalog, service: service}
}

// WithStock attaches the stock reader used by List and Get.
func (h *ProductHandler) WithStock(s ProductStock) *ProductHandler {
	h.stock = s
	return h
}

// WithCategories attaches the category list.
func (h *ProductHandler) WithCategories(s CategoryService) *ProductHandler {
	h.categories = s
	return h
}

// List handles GET /products.
func (h *ProductHandler) List(c *gin.Context) {
	if h.stock == nil {
		h.CatalogHandler.List(c)
		return
	}
	ctx := c.Request.Context()

	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	productIDs := make([]id.ID, len(result.Items))
	for i, p := range result.Items {
		productIDs[i] = p.ID
	}
	totals, err := h.stock.Totals(ctx, productIDs)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, func(p *product.Product) *dto.ProductResponse {
		resp := dto.FromProduct(p)
		total := totals[p.ID]
		resp.TotalStock = &total
		return resp
	}))
}

// Get handles GET /products/:id[?warehouse_id]. The breakdown lists every
// warehouse the product was ever stocked in, zero rows included;
// warehouse_id narrows it to one warehouse. total_stock always covers all
// warehouses.
func (h *ProductHandler) Get(c *gin.Context) {
	if h.stock == nil {
		h.CatalogHandler.Get(c)
		return
	}
	ctx := c.Request.Context()

	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	warehouseParam := c.Query("warehouse_id")
	warehouseID, err := dto.ParseOptionalID("warehouse_id", &warehouseParam)
	if err != nil {
		h.Error(c, err)
		return
	}

	p, err := h.service.GetByID(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	levels, err := h.stock.ProductLevels(ctx, productID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	totals, err := h.stock.Totals(ctx, []id.ID{productID})
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.FromProduct(p)
	total := totals[productID]
	resp.TotalStock = &total
	resp.Stock = make([]dto.StockLevelResponse, len(levels))
	for i, l := range levels {
		resp.Stock[i] = dto.FromStockLevel(l)
	}
	h.OK(c, resp)
}

// ListCategories handles GET /products/categories/list.
func (h *ProductHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.CategoryResponse, len(categories))
	for i, cat := range categories {
		items[i] = dto.FromCategory(cat)
	}
	h.OK(c, gin.H{"items": items})
}

// CreateCategory handles POST /products/categories.
func (h *ProductHandler) CreateCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cat, err := h.categories.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromCategory(*cat))
}

// Create handles POST /products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	stock, err := req.ToInitialStock()
	if err != nil {
		h.Error(c, err)
		return
	}

	p := req.ToEntity()
	if err := h.service.CreateWithStock(c.Request.Context(), p, stock); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromProduct(p))
}
