package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"tripplanner/cache"
	"tripplanner/config"
	"tripplanner/metrics"
)

type Weather struct {
	City         string  `json:"city"`
	Country      string  `json:"country,omitempty"`
	TemperatureC float64 `json:"temperature_c"`
	FeelsLikeC   float64 `json:"feels_like_c"`
	Humidity     int     `json:"humidity"`
	Condition    string  `json:"condition"`
	Description  string  `json:"description"`
	Icon         string  `json:"icon,omitempty"`
	WindSpeed    float64 `json:"wind_speed"`
}

// WeatherService fetches current conditions from OpenWeatherMap.
type WeatherService struct {
	apiKey     string
	baseURL    string
	ttl        time.Duration
	httpClient *http.Client
	cache      cache.Store
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewWeatherService(cfg config.WeatherConfig, store cache.Store, m *metrics.Metrics, logger *zap.Logger) *WeatherService {
	return &WeatherService{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		ttl:        cfg.CacheTTL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      store,
		metrics:    m,
		logger:     logger,
	}
}

// Current returns the weather for a city and where the data came from.
func (s *WeatherService) Current(ctx context.Context, city string) (*Weather, string) {
	key := "weather:" + strings.ToLower(strings.TrimSpace(city))

	var cached Weather
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		return &cached, SourceCache
	}

	w, err := s.fetch(ctx, city)
	if err != nil {
		s.metrics.Fallback("openweathermap")
		s.logger.Warn("using fallback data", zap.String("provider", "openweathermap"), zap.Error(err))
		return FallbackWeather(city), SourceFallback
	}

	if err := cache.SetJSON(ctx, s.cache, key, w, s.ttl); err != nil {
		s.logger.Debug("weather cache write failed", zap.Error(err))
	}
	return w, SourceLive
}

func (s *WeatherService) fetch(ctx context.Context, city string) (*Weather, error) {
	if s.apiKey == "" {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("units", "metric")
	q.Set("appid", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/data/2.5/weather?"+q.Encode(), nil)
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
		return nil, fmt.Errorf("openweathermap error (%d): %s", resp.StatusCode, body)
	}

	var payload struct {
		Name string `json:"name"`
		Sys  struct {
			Country string `json:"country"`
		} `json:"sys"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode weather: %w", err)
	}

	w := &Weather{
		City:         payload.Name,
		Country:      payload.Sys.Country,
		TemperatureC: round1(payload.Main.Temp),
		FeelsLikeC:   round1(payload.Main.FeelsLike),
		Humidity:     payload.Main.Humidity,
		WindSpeed:    payload.Wind.Speed,
	}
	if w.City == "" {
		w.City = TitleCase(city)
	}
	if len(payload.Weather) > 0 {
		w.Condition = payload.Weather[0].Main
		w.Description = payload.Weather[0].Description
		w.Icon = payload.Weather[0].Icon
	}
	return w, nil
}

type climate struct {
	country   string
	temp      float64
	humidity  int
	condition string
}

var climateTable = map[string]climate{
	"london":    {"GB", 12, 75, "Clouds"},
	"paris":     {"FR", 14, 70, "Clouds"},
	"rome":      {"IT", 19, 60, "Clear"},
	"barcelona": {"ES", 20, 65, "Clear"},
	"lisbon":    {"PT", 19, 68, "Clear"},
	"berlin":    {"DE", 11, 72, "Clouds"},
	"new york":  {"US", 14, 63, "Clear"},
	"tokyo":     {"JP", 17, 65, "Clouds"},
	"dubai":     {"AE", 32, 50, "Clear"},
	"bangkok":   {"TH", 30, 78, "Rain"},
	"sydney":    {"AU", 19, 65, "Clear"},
	"reykjavik": {"IS", 5, 80, "Clouds"},
}

// FallbackWeather returns typical conditions for well-known cities.
func FallbackWeather(city string) *Weather {
	c, ok := climateTable[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		c = climate{temp: 20, humidity: 60, condition: "Clear"}
	}
	return &Weather{
		City:         TitleCase(city),
		Country:      c.country,
		TemperatureC: c.temp,
		FeelsLikeC:   c.temp,
		Humidity:     c.humidity,
		Condition:    c.condition,
		Description:  "typical conditions for this time of year",
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
