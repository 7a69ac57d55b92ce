package server

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"storefront-checkout/internal/handler"
	"storefront-checkout/internal/middleware"
	"storefront-checkout/internal/service"
)

type Server struct {
	echo            *echo.Echo
	checkoutHandler *handler.CheckoutHandler
}

func NewServer(checkoutService service.CheckoutService, jwtSecret string) *Server {
	e := echo.New()

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.Auth(jwtSecret))

	s := &Server{
		echo:            e,
		checkoutHandler: handler.NewCheckoutHandler(checkoutService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- checkout --------
	checkout := api.Group("/checkout")
	checkout.POST("/sessions", s.checkoutHandler.CreateSession)
	checkout.GET("/sessions/:id", s.checkoutHandler.LoadSession)
	checkout.GET("/sessions/:id/snapshot", s.checkoutHandler.Snapshot)
	checkout.POST("/sessions/:id/method", s.checkoutHandler.SelectMethod)
	checkout.POST("/sessions/:id/coupon", s.checkoutHandler.ApplyCoupon)
	checkout.DELETE("/sessions/:id/coupon", s.checkoutHandler.RemoveCoupon)
	checkout.POST("/sessions/:id/card-token", s.checkoutHandler.TokenizeCard)
	checkout.POST("/sessions/:id/submit", s.checkoutHandler.Submit)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
