package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"storefront.db"`

	Auth      Auth      `envPrefix:"AUTH_"`
	Gateway   Gateway   `envPrefix:"GATEWAY_"`
	Coupon    Coupon    `envPrefix:"COUPON_"`
	Tokenizer Tokenizer `envPrefix:"TOKENIZER_"`
	Checkout  Checkout  `envPrefix:"CHECKOUT_"`
}

type Gateway struct {
	BaseApiURL string        `env:"BASE_API_URL"`
	APIKey     string        `env:"API_KEY"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type Coupon struct {
	BaseApiURL string        `env:"BASE_API_URL"`
	APIKey     string        `env:"API_KEY"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type Tokenizer struct {
	BaseApiURL string        `env:"BASE_API_URL"`
	PublicKey  string        `env:"PUBLIC_KEY"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

type Checkout struct {
	// SessionWindow is the fixed lifetime of a checkout session.
	SessionWindow time.Duration `env:"SESSION_WINDOW" envDefault:"30m"`
	// WarningThreshold is the remaining time at which the one-shot
	// expiring-soon notification fires.
	WarningThreshold time.Duration `env:"WARNING_THRESHOLD" envDefault:"60s"`
	TickInterval     time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	PollInterval     time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	// DirectTokenization enables in-page card tokenization; set it only when
	// the deployment terminates genuine TLS. Card entry falls back to the
	// gateway-hosted page otherwise.
	DirectTokenization bool `env:"DIRECT_TOKENIZATION" envDefault:"false"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
