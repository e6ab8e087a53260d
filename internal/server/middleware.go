package server

import (
	subscriberdomain "github.com/clashcoffee/storefront/internal/subscriber/domain"
	"github.com/gin-gonic/gin"
)

const contextSubscriberKey = "subscriber"

// AuthRequired resolves the session cookie to a subscriber and rejects the
// request when there is none.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextSubscriberKey, principal)
		c.Next()
	}
}

// AuthOptional resolves the session cookie when present and continues
// anonymously otherwise.
func (s *Server) AuthOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			c.Next()
			return
		}

		principal, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err == nil {
			c.Set(contextSubscriberKey, principal)
		}
		c.Next()
	}
}

func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := currentSubscriber(c)
		if principal == nil || principal.Role != subscriberdomain.RoleAdmin {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func currentSubscriber(c *gin.Context) *subscriberdomain.Subscriber {
	value, ok := c.Get(contextSubscriberKey)
	if !ok {
		return nil
	}
	principal, ok := value.(*subscriberdomain.Subscriber)
	if !ok {
		return nil
	}
	return principal
}
