package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
)

// RequireCapability resolves the acting user's role once per request
// and aborts with 403 unless the role carries the named capability.
func RequireCapability(resolver portssvc.CapabilityResolver, cap domain.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		userID, ok := GetUserIDFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		allowed, err := resolver.Can(c.Request.Context(), userID, cap)
		if err != nil {
			logger.Error("Capability resolution failed", slog.String("capability", string(cap)), slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve permissions"})
			return
		}
		if !allowed {
			logger.Warn("Capability denied", slog.String("capability", string(cap)))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}

		c.Next()
	}
}
