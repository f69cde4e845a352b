// Package api serves the REST surface over fiber.
package api

import (
	"context"
	"strings"

	"tradehub/internal/common/config"
	"tradehub/internal/common/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	app    *fiber.App
	deps   Deps
	logger logger.Logger
}

func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = 50
	}

	s := &Server{
		deps:   deps,
		logger: deps.Logger.WithFields(map[string]interface{}{"component": "api"}),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "tradehub",
		CaseSensitive:         true,
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit(deps.Config),
		ReadTimeout:           config.GetDuration(deps.Config.ReadTimeout),
		WriteTimeout:          config.GetDuration(deps.Config.WriteTimeout),
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(s.observe)
	if len(deps.Config.CORSOrigins) > 0 {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(deps.Config.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		}))
	}

	if deps.Realtime != nil {
		deps.Realtime.Mount(s.app)
	}
	s.routes()
	return s
}

func bodyLimit(cfg config.ServerConfig) int {
	if cfg.BodyLimit > 0 {
		return cfg.BodyLimit
	}
	return 1 << 20
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("HTTP server listening", map[string]interface{}{"addr": addr})
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	s.app.Get("/health", s.health)
	s.app.Get("/ready", s.ready)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := s.app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", s.register)
	authGroup.Post("/login", s.login)
	authGroup.Get("/me", s.authenticate, s.me)

	buyers := api.Group("/buyers", s.authenticate)
	buyers.Get("/me", requireRole(roleBuyer), s.getMyBuyer)
	buyers.Patch("/me", requireRole(roleBuyer), s.updateMyBuyer)
	buyers.Get("/me/matches", requireRole(roleBuyer), s.myMatches)
	buyers.Get("/:id", requireRole(roleAdmin), s.getBuyer)
	buyers.Get("/:id/matches", requireRole(roleAdmin), s.buyerMatches)

	sellers := api.Group("/sellers", s.authenticate)
	sellers.Get("/me", requireRole(roleSeller), s.getMySeller)
	sellers.Patch("/me", requireRole(roleSeller), s.updateMySeller)
	sellers.Get("/:id", s.getSeller)

	products := api.Group("/products", s.authenticate)
	products.Get("/search", s.searchProducts)
	products.Get("/", s.listProducts)
	products.Post("/", requireRole(roleSeller), s.createProduct)
	products.Get("/:id", s.getProduct)
	products.Patch("/:id", requireRole(roleSeller), s.updateProduct)
	products.Delete("/:id", requireRole(roleSeller), s.deleteProduct)

	orders := api.Group("/orders", s.authenticate)
	orders.Post("/", requireRole(roleBuyer), s.createOrder)
	orders.Get("/", s.listOrders)
	orders.Get("/:id", s.getOrder)
	orders.Patch("/:id/status", s.updateOrderStatus)

	quotes := api.Group("/quotes", s.authenticate)
	quotes.Post("/", requireRole(roleBuyer), s.requestQuote)
	quotes.Get("/", s.listQuotes)
	quotes.Post("/:id/respond", requireRole(roleSeller), s.respondQuote)
	quotes.Post("/:id/accept", requireRole(roleBuyer), s.acceptQuote)
	quotes.Post("/:id/reject", requireRole(roleBuyer), s.rejectQuote)

	conversations := api.Group("/conversations", s.authenticate)
	conversations.Get("/", s.listConversations)
	conversations.Get("/:peerId/messages", s.conversationHistory)
	conversations.Post("/:peerId/messages", s.sendMessage)

	subs := api.Group("/subscriptions", s.authenticate)
	subs.Get("/me", s.mySubscription)
	subs.Put("/:userId", requireRole(roleAdmin), s.upsertSubscription)
}
