// Package config collects every environment-driven setting into one struct
// built once at startup and passed by reference to the handlers that need it.
// Missing webhook secrets or price IDs are reported at startup but only cause
// the dependent endpoint to fail closed at request time.
package config

import (
	"fmt"
	"strings"

	"github.com/omniagency/omniagency/internal/pkg/env"
)

type Config struct {
	AppHost string
	AppPort string

	// PublicBaseURL is used to build checkout/portal redirect URLs.
	PublicBaseURL string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	CacheHost string
	CachePort string

	StripeSecretKey     string
	StripeWebhookSecret string

	ClerkWebhookSecret string
	ClerkIssuer        string
	ClerkJWKSURL       string

	// Stripe price IDs per paid plan tier.
	BasicPriceID      string
	ProPriceID        string
	EnterprisePriceID string
}

// Load builds the configuration from the environment. It never fails: absent
// values are surfaced by Warnings and enforced per-endpoint at request time.
func Load() *Config {
	cfg := &Config{
		AppHost:       env.GetEnv("APP_HOST", "localhost"),
		AppPort:       env.GetEnv("APP_PORT", "4000"),
		PublicBaseURL: strings.TrimRight(env.GetEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),

		DBUser:     env.GetEnv("DB_USER", ""),
		DBPassword: env.GetEnv("DB_PASSWORD", ""),
		DBHost:     env.GetEnv("DB_HOST", "127.0.0.1"),
		DBPort:     env.GetEnv("DB_PORT", "3306"),
		DBName:     env.GetEnv("DB_NAME", ""),

		CacheHost: env.GetEnv("CACHE_HOST", "localhost"),
		CachePort: env.GetEnv("CACHE_PORT", "6379"),

		StripeSecretKey:     env.GetEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),

		ClerkWebhookSecret: env.GetEnv("CLERK_WEBHOOK_SECRET", ""),
		ClerkIssuer:        env.GetEnv("CLERK_ISSUER", ""),
		ClerkJWKSURL:       env.GetEnv("CLERK_JWKS_URL", ""),

		BasicPriceID:      env.GetEnv("STRIPE_BASIC_PRICE_ID", ""),
		ProPriceID:        env.GetEnv("STRIPE_PRO_PRICE_ID", ""),
		EnterprisePriceID: env.GetEnv("STRIPE_ENTERPRISE_PRICE_ID", ""),
	}
	if cfg.ClerkJWKSURL == "" && cfg.ClerkIssuer != "" {
		cfg.ClerkJWKSURL = strings.TrimRight(cfg.ClerkIssuer, "/") + "/.well-known/jwks.json"
	}
	return cfg
}

// Warnings lists configuration gaps worth logging at startup. Each missing
// value makes its dependent endpoint reject requests instead of crashing the
// process.
func (c *Config) Warnings() []string {
	var warns []string
	check := func(val, name, endpoint string) {
		if val == "" {
			warns = append(warns, fmt.Sprintf("%s not set: %s will fail closed", name, endpoint))
		}
	}
	check(c.StripeSecretKey, "STRIPE_SECRET_KEY", "billing checkout/portal")
	check(c.StripeWebhookSecret, "STRIPE_WEBHOOK_SECRET", "POST /webhooks/stripe")
	check(c.ClerkWebhookSecret, "CLERK_WEBHOOK_SECRET", "POST /webhooks/clerk")
	check(c.ClerkIssuer, "CLERK_ISSUER", "authenticated dashboard API")
	check(c.BasicPriceID, "STRIPE_BASIC_PRICE_ID", "basic plan checkout")
	check(c.ProPriceID, "STRIPE_PRO_PRICE_ID", "pro plan checkout")
	return warns
}

// BillingRedirectURL builds an absolute URL on the public base for
// checkout/portal redirects.
func (c *Config) BillingRedirectURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.PublicBaseURL + path
}
