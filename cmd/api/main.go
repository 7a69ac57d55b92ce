package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"storefront-checkout/internal/client"
	"storefront-checkout/internal/config"
	"storefront-checkout/internal/repository"
	"storefront-checkout/internal/server"
	"storefront-checkout/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	db := client.InitSqliteClient(cfg.DatabaseURL)

	gatewayClient := client.NewGatewayClient(&cfg.Gateway)
	couponClient := client.NewCouponClient(&cfg.Coupon)
	tokenizerClient := client.NewTokenizerClient(&cfg.Tokenizer)

	sessionRepo := repository.NewSessionRepository(db)
	productRepo := repository.NewProductRepository(db)

	checkoutService := service.NewCheckoutService(
		cfg.Checkout, cfg.BaseURL,
		sessionRepo,
		productRepo,
		gatewayClient,
		couponClient,
		tokenizerClient,
		service.NewLogNotifier(),
	)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(checkoutService, cfg.Auth.JWTSecret)

	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	// Stop session watchers and confirmation pollers before closing.
	checkoutService.Close()

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}
