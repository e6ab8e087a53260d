package server

import (
	"errors"
	"io"
	"net/http"

	lifecycledomain "github.com/clashcoffee/storefront/internal/lifecycle/domain"
	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

func (s *Server) HandleLifecycleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err = s.lifecycleSvc.IngestWebhook(c.Request.Context(), payload, c.Request.Header)
	if err != nil {
		// A redelivery of an applied event is acknowledged, not retried.
		if errors.Is(err, lifecycledomain.ErrEventAlreadyProcessed) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
