package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docproc/internal/domain"
	"docproc/internal/middleware"
	"docproc/internal/service"
)

const (
	defaultTokenTTL = time.Hour
	maxTokenTTL     = 24 * time.Hour
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// IssueToken handles POST /api/v1/auth/token
// @Summary Exchange the shared secret for a JWT
// @Description Callers authenticated with the shared secret (or with auth disabled) can mint
// @Description short-lived HS256 tokens. Tokens cannot be used to mint further tokens.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Token subject and lifetime"
// @Success 200 {object} Response{data=TokenResponse}
// @Failure 400 {object} Response "Invalid request"
// @Failure 401 {object} Response "Unauthorized"
// @Failure 403 {object} Response "Token-authenticated callers cannot mint tokens"
// @Security BearerAuth
// @Router /api/v1/auth/token [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	if principal.Method == "jwt" {
		RespondError(c, http.StatusForbidden, domain.StatusUnauthorized, "Token-authenticated callers cannot mint tokens")
		return
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, domain.StatusInvalidInput, err.Error())
		return
	}
	ttl := defaultTokenTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}
	if ttl > maxTokenTTL {
		ttl = maxTokenTTL
	}

	token, err := h.authService.IssueToken(req.Subject, ttl)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Status:  domain.StatusOK,
		Message: "Token issued successfully",
		Data: TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(ttl.Seconds()),
		},
	})
}
