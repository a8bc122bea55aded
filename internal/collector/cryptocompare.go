package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"MoveSentinel/internal/model"
)

// DefaultCryptoCompareURL is the public CryptoCompare API root.
const DefaultCryptoCompareURL = "https://min-api.cryptocompare.com"

// CryptoCompareFetcher implements Fetcher using the CryptoCompare histominute endpoint.
type CryptoCompareFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	limiter        *rate.Limiter
	maxElapsedTime time.Duration
	logger         zerolog.Logger
}

// NewCryptoCompareFetcher creates a rate-limited fetcher with optional proxy support.
func NewCryptoCompareFetcher(baseURL, apiKey, proxyURL string) *CryptoCompareFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultCryptoCompareURL
	}
	return &CryptoCompareFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter:        rate.NewLimiter(rate.Every(time.Second), 5),
		maxElapsedTime: 30 * time.Second,
		logger:         log.With().Str("component", "cryptocompare").Logger(),
	}
}

func (f *CryptoCompareFetcher) Name() string { return "cryptocompare" }

// histoResponse is the envelope returned by /data/v2/histominute.
type histoResponse struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
	Data     struct {
		TimeFrom int64          `json:"TimeFrom"`
		TimeTo   int64          `json:"TimeTo"`
		Data     []model.Candle `json:"Data"`
	} `json:"Data"`
}

// errAPI marks a well-formed error reply that retrying will not fix.
var errAPI = errors.New("cryptocompare api error")

func (f *CryptoCompareFetcher) FetchMinuteCandles(ctx context.Context, symbol, quoteCurrency string, limit int) (model.Series, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("fsym", symbol)
	q.Set("tsym", quoteCurrency)
	q.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/data/v2/histominute?%s", f.BaseURL, q.Encode())

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if f.APIKey != "" {
			req.Header.Set("Authorization", "Apikey "+f.APIKey)
		}
		resp, err := f.Client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch candles: %w", err)
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("fetch candles: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("fetch candles: status %d, body: %s", resp.StatusCode, string(body)))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = f.maxElapsedTime
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}

	var result histoResponse
	if err := json.Unmarshal(body, &result); err != nil {
		f.logger.Error().Err(err).Str("symbol", symbol).Msg("decode histominute response")
		return nil, fmt.Errorf("decode candles: %w", err)
	}
	if result.Response == "Error" {
		return nil, fmt.Errorf("%w: %s", errAPI, result.Message)
	}

	candles := model.Series(result.Data.Data)
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time < candles[j].Time })
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	f.logger.Debug().Str("symbol", symbol).Int("count", len(candles)).Msg("fetched candles")
	return candles, nil
}
