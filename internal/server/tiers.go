package server

import (
	"net/http"

	"github.com/clashcoffee/storefront/internal/tier"
	"github.com/gin-gonic/gin"
)

type TierView struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	PriceCents int64    `json:"price_cents"`
	Features   []string `json:"features"`
}

func (s *Server) ListTiers(c *gin.Context) {
	defs := tier.All()
	tiers := make([]TierView, 0, len(defs))
	for _, def := range defs {
		tiers = append(tiers, TierView{
			ID:         string(def.ID),
			Name:       def.Name,
			PriceCents: def.PriceCents,
			Features:   def.Features,
		})
	}
	c.JSON(http.StatusOK, gin.H{"tiers": tiers})
}
