package server

import (
	"net/http"
	"strings"

	checkoutdomain "github.com/clashcoffee/storefront/internal/checkout/domain"
	"github.com/gin-gonic/gin"
)

type StartCheckoutRequest struct {
	Email string `json:"email"`
	Tier  string `json:"tier"`
}

// StartCheckout opens a hosted checkout session. A logged-in caller's
// account email wins over whatever the body carries.
func (s *Server) StartCheckout(c *gin.Context) {
	var req StartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	email := strings.TrimSpace(req.Email)
	if principal := currentSubscriber(c); principal != nil {
		email = principal.Email
	}
	if email == "" {
		AbortWithError(c, newValidationError("email", "invalid_email", "email is required"))
		return
	}

	result, err := s.checkoutSvc.Start(c.Request.Context(), checkoutdomain.StartRequest{
		Email: email,
		Tier:  req.Tier,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
