package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_catalog/internal/utils"
)

func init() {
	// Prices go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// bindJSON binds the request body into dst and writes a 400 response on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeBindError(c, err)
		return false
	}
	return true
}

func writeBindError(c *gin.Context, err error) {
	if fields := FromBindError(err); len(fields) > 0 {
		utils.ErrorWithFields(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", fields)
		return
	}
	utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
}

// FromBindError converts validator errors into a map of JSON field path to message.
// Other errors (malformed JSON, wrong types) yield nil.
func FromBindError(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		fields[path] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return "is invalid"
	}
}
