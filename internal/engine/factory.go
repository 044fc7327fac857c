package engine

import (
	"errors"

	"lorentzian-trading-bot/internal/interfaces"
)

// CursorFunc returns the deduplicator for a symbol and interval pair.
type CursorFunc func(symbol, interval string) interfaces.Deduplicator

type Deps struct {
	Venue         interfaces.Venue
	Reader        interfaces.SignalReader
	Settings      interfaces.SettingsProvider
	Cursors       CursorFunc
	QuoteCurrency string
}

func New(d Deps) (*Engine, error) {
	switch {
	case d.Venue == nil:
		return nil, errors.New("engine: venue is required")
	case d.Reader == nil:
		return nil, errors.New("engine: signal reader is required")
	case d.Settings == nil:
		return nil, errors.New("engine: settings provider is required")
	case d.Cursors == nil:
		return nil, errors.New("engine: cursor factory is required")
	}
	if d.QuoteCurrency == "" {
		d.QuoteCurrency = "USDT"
	}
	return newEngine(d), nil
}
