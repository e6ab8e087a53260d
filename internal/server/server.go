// Package server wires the HTTP surface: storefront APIs, webhook intake
// and the admin console endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/clashcoffee/storefront/internal/auth"
	authdomain "github.com/clashcoffee/storefront/internal/auth/domain"
	"github.com/clashcoffee/storefront/internal/auth/session"
	"github.com/clashcoffee/storefront/internal/cancellation"
	cancellationdomain "github.com/clashcoffee/storefront/internal/cancellation/domain"
	"github.com/clashcoffee/storefront/internal/checkout"
	checkoutdomain "github.com/clashcoffee/storefront/internal/checkout/domain"
	"github.com/clashcoffee/storefront/internal/config"
	"github.com/clashcoffee/storefront/internal/delivery"
	deliverydomain "github.com/clashcoffee/storefront/internal/delivery/domain"
	"github.com/clashcoffee/storefront/internal/lifecycle"
	lifecycledomain "github.com/clashcoffee/storefront/internal/lifecycle/domain"
	"github.com/clashcoffee/storefront/internal/observability"
	obsmiddleware "github.com/clashcoffee/storefront/internal/observability/logger"
	obstracing "github.com/clashcoffee/storefront/internal/observability/tracing"
	"github.com/clashcoffee/storefront/internal/product"
	productdomain "github.com/clashcoffee/storefront/internal/product/domain"
	paymentprovider "github.com/clashcoffee/storefront/internal/providers/payment"
	"github.com/clashcoffee/storefront/internal/subscriber"
	subscriberdomain "github.com/clashcoffee/storefront/internal/subscriber/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	auth.Module,
	subscriber.Module,
	paymentprovider.Module,
	checkout.Module,
	lifecycle.Module,
	cancellation.Module,
	delivery.Module,
	product.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	authsvc         authdomain.Service
	sessions        *session.Manager
	subscriberSvc   subscriberdomain.Service
	checkoutSvc     checkoutdomain.Service
	lifecycleSvc    lifecycledomain.Service
	cancellationSvc cancellationdomain.Service
	deliverySvc     deliverydomain.Service
	productSvc      productdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Authsvc         authdomain.Service
	Sessions        *session.Manager
	SubscriberSvc   subscriberdomain.Service
	CheckoutSvc     checkoutdomain.Service
	LifecycleSvc    lifecycledomain.Service
	CancellationSvc cancellationdomain.Service
	DeliverySvc     deliverydomain.Service
	ProductSvc      productdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		authsvc:         p.Authsvc,
		sessions:        p.Sessions,
		subscriberSvc:   p.SubscriberSvc,
		checkoutSvc:     p.CheckoutSvc,
		lifecycleSvc:    p.LifecycleSvc,
		cancellationSvc: p.CancellationSvc,
		deliverySvc:     p.DeliverySvc,
		productSvc:      p.ProductSvc,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.Signup)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/tiers", s.ListTiers)
	api.GET("/products", s.ListProducts)

	api.POST("/checkout", s.AuthOptional(), s.StartCheckout)
	api.POST("/webhooks/stripe", s.HandleLifecycleWebhook)

	api.GET("/subscription", s.AuthRequired(), s.GetSubscription)
	api.POST("/subscription/cancel", s.AuthRequired(), s.CancelSubscription)
	api.PUT("/me/address", s.AuthRequired(), s.UpdateAddress)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.Use(s.AuthRequired(), s.AdminRequired())

	admin.GET("/subscribers", s.ListSubscribers)
	admin.GET("/subscribers/:id/deliveries", s.ListDeliveries)
	admin.POST("/subscribers/:id/deliveries", s.LogDelivery)
	admin.PATCH("/subscribers/:id/merch", s.SetMerchSent)
	admin.GET("/cancellations", s.ListCancellations)
	admin.POST("/products/sync", s.SyncProducts)
}

func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, payload := mapError(err)
	switch {
	case status >= 500:
		return "server_error", payload.Type
	case status >= 400:
		return "client_error", payload.Type
	default:
		return "", payload.Type
	}
}
