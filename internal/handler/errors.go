package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_catalog/internal/utils"
	"github.com/GTDGit/gtd_catalog/internal/variant"
)

// classifyError maps a service error to an HTTP status and API error. ok is false for
// errors that are not part of the API contract.
func classifyError(err error) (status int, info *utils.ErrorInfo, ok bool) {
	var verr *variant.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, &utils.ErrorInfo{Code: "INVALID_OPTIONS", Message: "Invalid options", Fields: verr.Fields}, true
	case errors.Is(err, utils.ErrProductNotFound):
		return http.StatusNotFound, &utils.ErrorInfo{Code: "PRODUCT_NOT_FOUND", Message: "Product not found"}, true
	case errors.Is(err, utils.ErrVariantNotFound):
		return http.StatusNotFound, &utils.ErrorInfo{Code: "VARIANT_NOT_FOUND", Message: "Variant not found"}, true
	case errors.Is(err, utils.ErrSlugExists):
		return http.StatusConflict, &utils.ErrorInfo{Code: "SLUG_EXISTS", Message: "Slug is already used by another product"}, true
	case errors.Is(err, utils.ErrTooManyOptions):
		return http.StatusUnprocessableEntity, &utils.ErrorInfo{Code: "TOO_MANY_OPTIONS", Message: err.Error()}, true
	case errors.Is(err, utils.ErrTooManyValues):
		return http.StatusUnprocessableEntity, &utils.ErrorInfo{Code: "TOO_MANY_VALUES", Message: err.Error()}, true
	case errors.Is(err, utils.ErrTooManyCombinations):
		return http.StatusUnprocessableEntity, &utils.ErrorInfo{Code: "TOO_MANY_COMBINATIONS", Message: err.Error()}, true
	case errors.Is(err, utils.ErrInvalidPrice):
		return http.StatusBadRequest, &utils.ErrorInfo{Code: "INVALID_PRICE", Message: "Price must be non-negative with at most 2 decimals and below 1000000000000; inventory must not be negative"}, true
	case errors.Is(err, utils.ErrInvalidImage):
		return http.StatusUnsupportedMediaType, &utils.ErrorInfo{Code: "INVALID_IMAGE", Message: "Image must be a PNG, JPEG, GIF or WebP file"}, true
	case errors.Is(err, utils.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, &utils.ErrorInfo{Code: "IMAGE_TOO_LARGE", Message: "Image exceeds the upload limit"}, true
	case errors.Is(err, utils.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, &utils.ErrorInfo{Code: "STORAGE_UNAVAILABLE", Message: "Image storage is not configured"}, true
	}
	return http.StatusInternalServerError, &utils.ErrorInfo{Code: "INTERNAL_ERROR"}, false
}

// writeServiceError writes err in the response envelope. Unknown errors are logged and
// reported as INTERNAL_ERROR with fallback as message.
func writeServiceError(c *gin.Context, err error, fallback string) {
	status, info, ok := classifyError(err)
	if !ok {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(fallback)
		info.Message = fallback
	}
	utils.ErrorWithFields(c, status, info.Code, info.Message, info.Fields)
}
