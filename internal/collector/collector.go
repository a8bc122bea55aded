package collector

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"MoveSentinel/internal/model"
)

// MockFetcher returns controllable data for development and testing.
// Series registered by symbol are returned as-is; other symbols get a
// generated minute series around Price.
type MockFetcher struct {
	Price  float64
	Series map[string]model.Series
	Err    error

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchMinuteCandles(_ context.Context, symbol, _ string, limit int) (model.Series, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if s, ok := m.Series[symbol]; ok {
		if limit > 0 && len(s) > limit {
			s = s[len(s)-limit:]
		}
		return s, nil
	}
	return generateMockCandles(m.Price, limit, time.Now()), nil
}

// Calls returns how many fetches were made.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func generateMockCandles(basePrice float64, count int, now time.Time) model.Series {
	end := now.Truncate(time.Minute).Unix()
	candles := make(model.Series, count)
	prev := basePrice
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.002*math.Sin(float64(i)/7))
		candles[i] = model.Candle{
			Time:  end - int64((count-1-i)*60),
			Open:  prev,
			High:  math.Max(prev, p) * 1.0005,
			Low:   math.Min(prev, p) * 0.9995,
			Close: p,
		}
		prev = p
	}
	return candles
}

// Collector fetches the target and reference assets for one detection cycle.
type Collector struct {
	Fetcher         Fetcher
	TargetSymbol    string
	ReferenceSymbol string
	QuoteCurrency   string
	Limit           int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, target, reference, quote string, limit int) *Collector {
	return &Collector{
		Fetcher:         fetcher,
		TargetSymbol:    target,
		ReferenceSymbol: reference,
		QuoteCurrency:   quote,
		Limit:           limit,
	}
}

// Collect fetches a fresh batch with the configured limit.
func (c *Collector) Collect(ctx context.Context) (*model.Batch, error) {
	return c.CollectN(ctx, c.Limit)
}

// CollectN fetches a fresh batch of up to limit candles per asset.
func (c *Collector) CollectN(ctx context.Context, limit int) (*model.Batch, error) {
	target, err := c.Fetcher.FetchMinuteCandles(ctx, c.TargetSymbol, c.QuoteCurrency, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %s%s: %w", c.TargetSymbol, c.QuoteCurrency, err)
	}
	reference, err := c.Fetcher.FetchMinuteCandles(ctx, c.ReferenceSymbol, c.QuoteCurrency, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %s%s: %w", c.ReferenceSymbol, c.QuoteCurrency, err)
	}
	return &model.Batch{
		Target:    target,
		Reference: reference,
		FetchedAt: time.Now(),
	}, nil
}
