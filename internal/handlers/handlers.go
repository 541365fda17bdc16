package handlers

import (
	"strconv"

	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/01moynul/fvcommerce-golang/internal/auth"
	"github.com/01moynul/fvcommerce-golang/internal/middleware"
	"github.com/01moynul/fvcommerce-golang/internal/models"
	"github.com/01moynul/fvcommerce-golang/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Services *service.Services
	Tokens   *auth.TokenManager
	Logger   zerolog.Logger
}

func New(services *service.Services, tokens *auth.TokenManager, logger zerolog.Logger) *Handlers {
	return &Handlers{Services: services, Tokens: tokens, Logger: logger}
}

// fail writes err as the JSON error response.
func fail(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// bindJSON decodes the request body. Field rules are checked by the service.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, apperr.Validation("invalid request body: "+err.Error()))
		return false
	}
	return true
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, apperr.Validationf("%s must be a positive integer", name))
		return 0, false
	}
	return id, true
}

// pageQuery reads ?skip=&limit=.
func pageQuery(c *gin.Context) (service.Page, bool) {
	var page service.Page
	for _, p := range []struct {
		name string
		dst  *int
	}{{"skip", &page.Offset}, {"limit", &page.Limit}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			fail(c, apperr.Validationf("%s must be an integer", p.name))
			return page, false
		}
		*p.dst = n
	}
	return page, true
}

// currentUser returns the caller set by AuthMiddleware.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, apperr.Unauthorized("not authenticated"))
	}
	return user, ok
}
