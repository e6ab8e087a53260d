package server

import (
	"net/http"

	cancellationdomain "github.com/clashcoffee/storefront/internal/cancellation/domain"
	deliverydomain "github.com/clashcoffee/storefront/internal/delivery/domain"
	subscriberdomain "github.com/clashcoffee/storefront/internal/subscriber/domain"
	"github.com/clashcoffee/storefront/internal/tier"
	"github.com/gin-gonic/gin"
)

type SubscriptionView struct {
	Tier              *TierView             `json:"tier,omitempty"`
	Status            *string               `json:"status,omitempty"`
	CancelAtPeriodEnd bool                  `json:"cancel_at_period_end"`
	DeliveryStatus    deliverydomain.Status `json:"delivery_status"`
}

func (s *Server) GetSubscription(c *gin.Context) {
	principal := currentSubscriber(c)
	if principal == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	view := SubscriptionView{
		Status:            principal.SubscriptionStatus,
		CancelAtPeriodEnd: principal.CancelAtPeriodEnd,
	}
	if principal.SubscriptionTier != nil {
		if def, err := tier.ByID(*principal.SubscriptionTier); err == nil {
			view.Tier = &TierView{
				ID:         string(def.ID),
				Name:       def.Name,
				PriceCents: def.PriceCents,
				Features:   def.Features,
			}
		}
	}

	status, err := s.deliverySvc.StatusFor(c.Request.Context(), principal.ID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	view.DeliveryStatus = status

	c.JSON(http.StatusOK, view)
}

type CancelSubscriptionRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) CancelSubscription(c *gin.Context) {
	principal := currentSubscriber(c)
	if principal == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req CancelSubscriptionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	result, err := s.cancellationSvc.Cancel(c.Request.Context(), cancellationdomain.CancelRequest{
		SubscriberID: principal.ID.String(),
		Reason:       req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type UpdateAddressRequest struct {
	Street     string `json:"street"`
	Unit       string `json:"unit"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (s *Server) UpdateAddress(c *gin.Context) {
	principal := currentSubscriber(c)
	if principal == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req UpdateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.subscriberSvc.UpdateAddress(c.Request.Context(), subscriberdomain.UpdateAddressRequest{
		ID: principal.ID.String(),
		Address: subscriberdomain.Address{
			Street:     req.Street,
			Unit:       req.Unit,
			City:       req.City,
			State:      req.State,
			PostalCode: req.PostalCode,
			Country:    req.Country,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
