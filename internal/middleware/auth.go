package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docproc/internal/domain"
	"docproc/internal/logging"
	"docproc/internal/service"
)

const ContextKeyPrincipal = "principal"

// Auth resolves the bearer credential before any handler runs, so rejected
// requests never have their body read.
func Auth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}

		principal, err := authService.Authenticate(token)
		if err != nil {
			logging.FromContext(c.Request.Context()).Warn("Auth failed", "error", err)
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  domain.StatusUnauthorized,
				"message": "Invalid authentication credentials",
			})
			return
		}

		c.Set(ContextKeyPrincipal, principal)
		ctx := c.Request.Context()
		c.Request = c.Request.WithContext(logging.WithContext(ctx,
			logging.FromContext(ctx).With("principal", principal.Username)))
		c.Next()
	}
}

// GetPrincipal returns the authenticated caller, if any.
func GetPrincipal(c *gin.Context) (*domain.Principal, error) {
	val, exists := c.Get(ContextKeyPrincipal)
	if !exists {
		return nil, domain.ErrUnauthorized
	}
	p, ok := val.(*domain.Principal)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return p, nil
}
