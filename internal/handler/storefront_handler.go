package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_catalog/internal/service"
	"github.com/GTDGit/gtd_catalog/internal/utils"
)

// StorefrontHandler serves active products to shoppers.
type StorefrontHandler struct {
	storefrontService *service.StorefrontService
}

// NewStorefrontHandler constructs a StorefrontHandler.
func NewStorefrontHandler(storefrontService *service.StorefrontService) *StorefrontHandler {
	return &StorefrontHandler{storefrontService: storefrontService}
}

// GetProducts returns active products with optional search and pagination.
func (h *StorefrontHandler) GetProducts(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 50)
	if limit > 100 {
		limit = 100
	}

	products, total, err := h.storefrontService.ListProducts(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		writeServiceError(c, err, "Failed to get products")
		return
	}

	utils.SuccessWithPagination(c, 200, "Products retrieved successfully", gin.H{
		"products": products,
	}, page, limit, total)
}

// GetProduct returns one active product with its options and variants.
func (h *StorefrontHandler) GetProduct(c *gin.Context) {
	detail, err := h.storefrontService.GetProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeServiceError(c, err, "Failed to get product")
		return
	}

	utils.Success(c, 200, "Product retrieved successfully", detail)
}
