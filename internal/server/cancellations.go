package server

import (
	"net/http"
	"strconv"
	"strings"

	cancellationdomain "github.com/clashcoffee/storefront/internal/cancellation/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListCancellations(c *gin.Context) {
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	result, err := s.cancellationSvc.List(c.Request.Context(), cancellationdomain.ListRequest{
		PageToken:    strings.TrimSpace(c.Query("page_token")),
		PageSize:     pageSize,
		SubscriberID: strings.TrimSpace(c.Query("subscriber_id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
