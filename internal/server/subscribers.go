package server

import (
	"net/http"
	"strconv"
	"strings"

	deliverydomain "github.com/clashcoffee/storefront/internal/delivery/domain"
	subscriberdomain "github.com/clashcoffee/storefront/internal/subscriber/domain"
	"github.com/clashcoffee/storefront/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type SubscriberView struct {
	subscriberdomain.Subscriber
	DeliveryStatus deliverydomain.Status `json:"delivery_status"`
}

type ListSubscribersResponse struct {
	pagination.PageInfo
	Subscribers []SubscriberView `json:"subscribers"`
}

// ListSubscribers returns the admin roster with the derived delivery status
// attached to each row.
func (s *Server) ListSubscribers(c *gin.Context) {
	subscribedOnly, _ := strconv.ParseBool(c.Query("subscribed_only"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	result, err := s.subscriberSvc.List(c.Request.Context(), subscriberdomain.ListRequest{
		PageToken:      strings.TrimSpace(c.Query("page_token")),
		PageSize:       pageSize,
		Email:          strings.TrimSpace(c.Query("email")),
		SubscribedOnly: subscribedOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]SubscriberView, 0, len(result.Subscribers))
	for _, sub := range result.Subscribers {
		status, err := s.deliverySvc.StatusFor(c.Request.Context(), sub.ID.String())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		views = append(views, SubscriberView{Subscriber: sub, DeliveryStatus: status})
	}

	c.JSON(http.StatusOK, ListSubscribersResponse{
		PageInfo:    result.PageInfo,
		Subscribers: views,
	})
}

type SetMerchSentRequest struct {
	MerchSent bool `json:"merch_sent"`
}

func (s *Server) SetMerchSent(c *gin.Context) {
	var req SetMerchSentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.subscriberSvc.SetMerchSent(c.Request.Context(), subscriberdomain.SetMerchSentRequest{
		ID:        c.Param("id"),
		MerchSent: req.MerchSent,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
