// internal/interfaces/http/handlers/response.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/tailor-marketplace/internal/interfaces/http/middleware"
	"github.com/your-org/tailor-marketplace/internal/pkg/apperror"
)

// statusFor maps an error code to its HTTP status
func statusFor(code string) int {
	switch code {
	case "validation_error", "configuration_error":
		return http.StatusBadRequest
	case "stock_conflict", "price_changed":
		return http.StatusConflict
	case "not_found":
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a typed domain error. Internal errors are logged and
// their message is withheld from the client.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	code := apperror.Code(err)
	status := statusFor(code)

	if status == http.StatusInternalServerError {
		logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(status, gin.H{
			"error": "Internal server error",
			"code":  code,
		})
		return
	}

	body := gin.H{
		"error": err.Error(),
		"code":  code,
	}
	if details := apperror.Details(err); details != nil {
		body["details"] = details
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"code":    "validation_error",
		"details": err.Error(),
	})
}

// customerID reads the authenticated user, aborting with 401 when absent
func customerID(c *gin.Context) (uint, bool) {
	id, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
	return id, ok
}

// uintParam parses a positive numeric path parameter
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
			"code":  "validation_error",
		})
		return 0, false
	}
	return uint(v), true
}
