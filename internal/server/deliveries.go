package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	deliverydomain "github.com/clashcoffee/storefront/internal/delivery/domain"
	"github.com/gin-gonic/gin"
)

type LogDeliveryRequest struct {
	Items     string     `json:"items"`
	ShippedAt *time.Time `json:"shipped_at"`
}

func (s *Server) LogDelivery(c *gin.Context) {
	var req LogDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	logReq := deliverydomain.LogRequest{
		SubscriberID: c.Param("id"),
		Items:        req.Items,
	}
	if req.ShippedAt != nil {
		logReq.ShippedAt = *req.ShippedAt
	}

	entry, err := s.deliverySvc.Log(c.Request.Context(), logReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (s *Server) ListDeliveries(c *gin.Context) {
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	result, err := s.deliverySvc.List(c.Request.Context(), deliverydomain.ListRequest{
		SubscriberID: c.Param("id"),
		PageToken:    strings.TrimSpace(c.Query("page_token")),
		PageSize:     pageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
