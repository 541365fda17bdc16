package handlers

import (
	"net/http"

	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/01moynul/fvcommerce-golang/internal/service"
	"github.com/gin-gonic/gin"
)

// --- User Registration ---

// Register creates an account. Gin respects the `json:"-"` tag on the
// password hash, so the stored credential is never echoed.
func (h *Handlers) Register(c *gin.Context) {
	// 1. --- Bind JSON ---
	var input service.RegisterInput
	if !bindJSON(c, &input) {
		return
	}

	// 2. --- Create User ---
	user, err := h.Services.Identity.Register(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}

	// 3. --- Send Success Response ---
	c.JSON(http.StatusCreated, user)
}

// --- Login ---

// TokenInput accepts either a JSON body or an OAuth2-style password form.
type TokenInput struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Token exchanges credentials for a bearer token.
func (h *Handlers) Token(c *gin.Context) {
	var input TokenInput
	if err := c.ShouldBind(&input); err != nil {
		fail(c, apperr.Validation("invalid request body: "+err.Error()))
		return
	}

	user, err := h.Services.Identity.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		fail(c, err)
		return
	}

	token, err := h.Tokens.GenerateToken(user.Username)
	if err != nil {
		fail(c, apperr.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user_role":    user.Role,
		"expires_in":   int(h.Tokens.TTL().Seconds()),
	})
}

// Me returns the authenticated user.
func (h *Handlers) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}
