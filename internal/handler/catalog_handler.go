package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_catalog/internal/service"
	"github.com/GTDGit/gtd_catalog/internal/utils"
)

// CatalogHandler serves the option and variant endpoints of a product.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// GetOptions handles GET /v1/admin/products/:id/options
func (h *CatalogHandler) GetOptions(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	opts, err := h.catalogService.GetOptions(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve options")
		return
	}

	utils.Success(c, 200, "Options retrieved", gin.H{"options": opts})
}

// SaveOptions handles PUT /v1/admin/products/:id/options
func (h *CatalogHandler) SaveOptions(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var req service.OptionsRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.catalogService.SaveOptions(c.Request.Context(), id, &req)
	if err != nil {
		writeServiceError(c, err, "Failed to save options")
		return
	}

	utils.Success(c, 200, "Options saved", result)
}

// GetVariants handles GET /v1/admin/products/:id/variants
func (h *CatalogHandler) GetVariants(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	variants, err := h.catalogService.GetVariants(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve variants")
		return
	}

	utils.Success(c, 200, "Variants retrieved", gin.H{
		"variants": variants,
		"total":    len(variants),
	})
}

// PreviewVariants handles POST /v1/admin/products/:id/variants/preview
func (h *CatalogHandler) PreviewVariants(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var req service.OptionsRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.catalogService.PreviewVariants(c.Request.Context(), id, &req)
	if err != nil {
		writeServiceError(c, err, "Failed to preview variants")
		return
	}

	utils.Success(c, 200, "Variants previewed", result)
}

// UpdateVariant handles PUT /v1/admin/products/:id/variants/:variantId
func (h *CatalogHandler) UpdateVariant(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var req service.UpdateVariantRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := h.catalogService.UpdateVariant(c.Request.Context(), id, c.Param("variantId"), &req)
	if err != nil {
		writeServiceError(c, err, "Failed to update variant")
		return
	}

	utils.Success(c, 200, "Variant updated", v)
}

// UploadVariantImage handles POST /v1/admin/products/:id/variants/:variantId/image
// (multipart field "image").
func (h *CatalogHandler) UploadVariantImage(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Multipart field 'image' is required")
		return
	}
	file, err := fh.Open()
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Failed to read uploaded file")
		return
	}
	defer file.Close()

	v, err := h.catalogService.UploadVariantImage(c.Request.Context(), id, c.Param("variantId"), service.ImageUpload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Body:     file,
	})
	if err != nil {
		writeServiceError(c, err, "Failed to upload image")
		return
	}

	utils.Success(c, 200, "Variant image uploaded", v)
}

// RemoveVariantImage handles DELETE /v1/admin/products/:id/variants/:variantId/image
func (h *CatalogHandler) RemoveVariantImage(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	v, err := h.catalogService.RemoveVariantImage(c.Request.Context(), id, c.Param("variantId"))
	if err != nil {
		writeServiceError(c, err, "Failed to remove image")
		return
	}

	utils.Success(c, 200, "Variant image removed", v)
}
