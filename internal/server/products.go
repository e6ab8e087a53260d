package server

import (
	"net/http"
	"strconv"

	productdomain "github.com/clashcoffee/storefront/internal/product/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListProducts(c *gin.Context) {
	activeOnly := true
	if raw := c.Query("active_only"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err == nil {
			activeOnly = parsed
		}
	}

	result, err := s.productSvc.List(c.Request.Context(), productdomain.ListRequest{
		ActiveOnly: activeOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) SyncProducts(c *gin.Context) {
	result, err := s.productSvc.Sync(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
