// Package venue builds the configured exchange client.
package venue

import (
	"fmt"
	"os"
	"strings"

	"lorentzian-trading-bot/internal/interfaces"
	"lorentzian-trading-bot/internal/store"
	"lorentzian-trading-bot/internal/venue/binance"
	"lorentzian-trading-bot/internal/venue/paper"
	"lorentzian-trading-bot/internal/venue/venueobs"
)

// ConfigError is returned for an unknown venue or missing credentials.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "venue configuration: " + e.Reason }

// New returns the observed venue for cfg. DRY_RUN wraps the exchange in the
// paper simulator so only public market data is read from it.
func New(cfg *store.Config) (interfaces.Venue, error) {
	name := strings.ToLower(cfg.Venue.Name)
	if name != "binance" {
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown venue %q", cfg.Venue.Name)}
	}

	key := os.Getenv(cfg.Venue.APIKeyEnv)
	secret := os.Getenv(cfg.Venue.SecretEnv)
	if cfg.Mode == "LIVE" && (key == "" || secret == "") {
		return nil, &ConfigError{Reason: fmt.Sprintf("%s and %s must be set in LIVE mode", cfg.Venue.APIKeyEnv, cfg.Venue.SecretEnv)}
	}

	exchange := binance.New(binance.Params{
		APIKey:    key,
		APISecret: secret,
		Testnet:   cfg.Venue.Testnet,
	})

	if cfg.Mode == "DRY_RUN" {
		sim := paper.New(exchange, cfg.Venue.QuoteCurrency, cfg.Venue.PaperBalance)
		return venueobs.Wrap(sim, "paper"), nil
	}
	return venueobs.Wrap(exchange, name), nil
}
