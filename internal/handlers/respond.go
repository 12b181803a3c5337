package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ihcportal/booking-backend/internal/services"
	"github.com/ihcportal/booking-backend/internal/utils"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

const codeInvalidRequest = "INVALID_REQUEST"

var statusByKind = map[services.ErrorKind]int{
	services.KindValidation:  http.StatusBadRequest,
	services.KindAuth:        http.StatusUnauthorized,
	services.KindForbidden:   http.StatusForbidden,
	services.KindNotFound:    http.StatusNotFound,
	services.KindConflict:    http.StatusConflict,
	services.KindRateLimited: http.StatusTooManyRequests,
}

// respondError writes err in the single error shape. Errors that are not
// service errors are logged and reported as a generic 500.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	if svcErr, ok := services.AsError(err); ok {
		if status, known := statusByKind[svcErr.Kind]; known {
			resp := ErrorResponse{
				Error:   svcErr.Kind.String(),
				Message: svcErr.Message,
				Code:    svcErr.Code,
			}
			if svcErr.Kind == services.KindRateLimited {
				resp.RetryAfter = int(svcErr.RetryAfter.Seconds())
			}
			c.JSON(status, resp)
			return
		}
	}

	_ = c.Error(err)
	logger.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"error":  err.Error(),
	}).Error("Unhandled error")

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An unexpected error occurred",
	})
}

func requestMeta(c *gin.Context) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}
}
