// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// CatalogRouteHandler defines the interface for catalog handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// DocumentRouteHandler defines the interface for document handlers.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	ReplaceItems(c *gin.Context)
	Transition(c *gin.Context)
}

// DocumentHistoryHandler is an optional interface for documents that expose
// their audit trail.
type DocumentHistoryHandler interface {
	History(c *gin.Context)
}

// CategoryRouteHandler serves the category list of a catalog.
type CategoryRouteHandler interface {
	ListCategories(c *gin.Context)
	CreateCategory(c *gin.Context)
}

// RegisterCategoryRoutes registers the category list next to the catalog
// routes. /categories/list is static, so it wins over /:id.
func RegisterCategoryRoutes(group *gin.RouterGroup, handler CategoryRouteHandler) {
	group.GET("/categories/list", handler.ListCategories)
	group.POST("/categories", handler.CreateCategory)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
//
// Usage:
//
//	repo := catalog_repo.NewWarehouseRepo(txManager)
//	service := warehouse.NewService(repo, txManager)
//	RegisterCatalogRoutes(api.Group("/warehouses"), handlers.NewWarehouseHandler(base, service))
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
}

// RegisterDocumentRoutes registers CRUD, item replacement and status
// transition routes for one document kind.
//
// Usage:
//
//	handler := handlers.NewDocumentHandler(base, documents.KindReceipt, docs, engine)
//	RegisterDocumentRoutes(api.Group("/receipts"), handler)
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.PUT("/:id/items", handler.ReplaceItems)
	group.POST("/:id/transition", handler.Transition)

	if historyHandler, ok := handler.(DocumentHistoryHandler); ok {
		group.GET("/:id/history", historyHandler.History)
	}
}
