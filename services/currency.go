package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tripplanner/cache"
	"tripplanner/config"
	"tripplanner/metrics"
)

// ErrUnknownCurrency is returned when neither the live nor the static table has a code.
var ErrUnknownCurrency = errors.New("unknown currency")

type Conversion struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Rate   decimal.Decimal `json:"rate"`
	Result decimal.Decimal `json:"result"`
}

// CurrencyService converts amounts using ExchangeRate-API latest rates.
type CurrencyService struct {
	apiKey     string
	baseURL    string
	ttl        time.Duration
	httpClient *http.Client
	cache      cache.Store
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewCurrencyService(cfg config.CurrencyConfig, store cache.Store, m *metrics.Metrics, logger *zap.Logger) *CurrencyService {
	return &CurrencyService{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		ttl:        cfg.CacheTTL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      store,
		metrics:    m,
		logger:     logger,
	}
}

// Convert converts amount from one currency to another, rounded to 2 places.
func (s *CurrencyService) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (*Conversion, string, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)

	rates, source := s.rates(ctx, from)
	var rate decimal.Decimal
	if source == SourceFallback {
		r, ok := crossRate(from, to)
		if !ok {
			return nil, source, fmt.Errorf("%w: %s/%s", ErrUnknownCurrency, from, to)
		}
		rate = r
	} else {
		r, ok := rates[to]
		if !ok {
			return nil, source, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
		}
		rate = r
	}

	return &Conversion{
		From:   from,
		To:     to,
		Amount: amount,
		Rate:   rate,
		Result: amount.Mul(rate).Round(2),
	}, source, nil
}

// rates returns conversion rates for base, or SourceFallback when they are unavailable.
func (s *CurrencyService) rates(ctx context.Context, base string) (map[string]decimal.Decimal, string) {
	key := "currency:" + base

	var cached map[string]decimal.Decimal
	if cache.GetJSON(ctx, s.cache, key, &cached) && len(cached) > 0 {
		return cached, SourceCache
	}

	rates, err := s.fetch(ctx, base)
	if err != nil {
		s.metrics.Fallback("exchangerate")
		s.logger.Warn("using fallback data", zap.String("provider", "exchangerate"), zap.Error(err))
		return nil, SourceFallback
	}

	if err := cache.SetJSON(ctx, s.cache, key, rates, s.ttl); err != nil {
		s.logger.Debug("currency cache write failed", zap.Error(err))
	}
	return rates, SourceLive
}

func (s *CurrencyService) fetch(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	if s.apiKey == "" {
		return nil, ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/v6/%s/latest/%s", s.baseURL, url.PathEscape(s.apiKey), url.PathEscape(base))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("exchangerate error (%d): %s", resp.StatusCode, body)
	}

	var payload struct {
		Result          string                     `json:"result"`
		ErrorType       string                     `json:"error-type"`
		ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if payload.Result != "success" || len(payload.ConversionRates) == 0 {
		return nil, fmt.Errorf("exchangerate result %q: %s", payload.Result, payload.ErrorType)
	}
	return payload.ConversionRates, nil
}

// usdRates are approximate units per US dollar.
var usdRates = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"EUR": decimal.RequireFromString("0.92"),
	"GBP": decimal.RequireFromString("0.79"),
	"JPY": decimal.RequireFromString("150.5"),
	"CAD": decimal.RequireFromString("1.36"),
	"AUD": decimal.RequireFromString("1.52"),
	"CHF": decimal.RequireFromString("0.88"),
	"CNY": decimal.RequireFromString("7.19"),
	"INR": decimal.RequireFromString("83.1"),
	"MXN": decimal.RequireFromString("17.1"),
	"BRL": decimal.RequireFromString("4.97"),
	"THB": decimal.RequireFromString("35.8"),
	"AED": decimal.RequireFromString("3.67"),
	"TRY": decimal.RequireFromString("32.2"),
	"SEK": decimal.RequireFromString("10.4"),
	"NOK": decimal.RequireFromString("10.6"),
	"ZAR": decimal.RequireFromString("18.7"),
	"SGD": decimal.RequireFromString("1.34"),
}

// crossRate derives from→to through USD using the static table.
func crossRate(from, to string) (decimal.Decimal, bool) {
	f, ok := usdRates[from]
	if !ok {
		return decimal.Zero, false
	}
	t, ok := usdRates[to]
	if !ok {
		return decimal.Zero, false
	}
	return t.DivRound(f, 6), true
}
