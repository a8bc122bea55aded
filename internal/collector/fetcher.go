package collector

import (
	"context"

	"MoveSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchMinuteCandles returns up to limit of the most recent one-minute
	// candles for symbol quoted in quoteCurrency, oldest first.
	FetchMinuteCandles(ctx context.Context, symbol, quoteCurrency string, limit int) (model.Series, error)
	Name() string
}
