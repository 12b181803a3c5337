package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ihcportal/booking-backend/internal/services"
	"github.com/ihcportal/booking-backend/internal/utils"
)

var registerOnce sync.Once

// registerValidators teaches gin's validator the portal's rules and makes
// field errors report JSON names
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		// notblank rejects values that are empty once markup and spaces are stripped
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return utils.SanitizeText(fl.Field().String()) != ""
		})
	})
}

// respondInvalidBody reports a bind failure. Field errors keep the service
// error codes; anything else is a malformed body.
func respondInvalidBody(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    codeInvalidRequest,
		})
		return
	}

	fe := fieldErrs[0]
	resp := ErrorResponse{Error: "validation_error"}
	switch fe.Tag() {
	case "email":
		resp.Code = services.CodeInvalidEmail
		resp.Message = "Email address is not valid"
	case "min":
		resp.Code = services.CodeWeakPassword
		resp.Message = fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		resp.Code = services.CodeWeakPassword
		resp.Message = fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		resp.Code = services.CodeMissingField
		resp.Message = "Missing required field: " + fe.Field()
	}
	c.JSON(http.StatusBadRequest, resp)
}
