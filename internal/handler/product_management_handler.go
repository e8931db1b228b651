package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_catalog/internal/service"
	"github.com/GTDGit/gtd_catalog/internal/utils"
)

// ProductManagementHandler handles product CRUD HTTP endpoints.
type ProductManagementHandler struct {
	productMgmtService *service.ProductManagementService
}

// NewProductManagementHandler constructs a ProductManagementHandler.
func NewProductManagementHandler(productMgmtService *service.ProductManagementService) *ProductManagementHandler {
	return &ProductManagementHandler{productMgmtService: productMgmtService}
}

// ListProducts handles GET /v1/admin/products
func (h *ProductManagementHandler) ListProducts(c *gin.Context) {
	filter := &service.ListProductsFilter{
		Search: c.Query("search"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 50),
	}
	if isActive := c.Query("isActive"); isActive != "" {
		active := isActive == "true"
		filter.IsActive = &active
	}

	result, err := h.productMgmtService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve products")
		return
	}

	utils.SuccessWithPagination(c, 200, "Products retrieved", result.Products, result.Page, result.Limit, result.TotalItems)
}

// CreateProduct handles POST /v1/admin/products
func (h *ProductManagementHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productMgmtService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err, "Failed to create product")
		return
	}

	utils.Success(c, 201, "Product created successfully", product)
}

// GetProduct handles GET /v1/admin/products/:id
func (h *ProductManagementHandler) GetProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	product, err := h.productMgmtService.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve product")
		return
	}

	utils.Success(c, 200, "Product retrieved", product)
}

// UpdateProduct handles PUT /v1/admin/products/:id
func (h *ProductManagementHandler) UpdateProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var req service.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productMgmtService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		writeServiceError(c, err, "Failed to update product")
		return
	}

	utils.Success(c, 200, "Product updated successfully", product)
}

// DeleteProduct handles DELETE /v1/admin/products/:id
func (h *ProductManagementHandler) DeleteProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	if err := h.productMgmtService.DeleteProduct(c.Request.Context(), id); err != nil {
		writeServiceError(c, err, "Failed to delete product")
		return
	}

	utils.Success(c, 200, "Product deleted successfully", nil)
}

// productID parses the :id path parameter and writes a 400 response when it is invalid.
func productID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		utils.Error(c, 400, "INVALID_ID", "Invalid product ID")
		return 0, false
	}
	return id, true
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(c *gin.Context, key string, def int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
