package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	HTTP       HTTPConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	OpenAI     OpenAIConfig
	Amadeus    AmadeusConfig
	Stripe     StripeConfig
	Supabase   SupabaseConfig
	Weather    WeatherConfig
	Currency   CurrencyConfig
	Affiliate  AffiliateConfig
	Plans      PlansConfig
	PriceWatch PriceWatchConfig
	RateLimit  RateLimitConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	ShutdownTimeout  time.Duration
	CORSAllowOrigins []string
	TrustedProxies   []string
}

// DatabaseConfig holds Postgres connection settings.
// URL wins over the individual fields when set (Supabase and most hosts hand out a URL).
type DatabaseConfig struct {
	URL             string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
}

// RedisConfig holds Redis connection settings. An empty Addr selects the in-process cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// OpenAIConfig holds chat completion settings
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// AmadeusConfig holds Amadeus Self-Service API settings
type AmadeusConfig struct {
	ClientID     string
	ClientSecret string
	Env          string // test or production
	BaseURL      string
	Timeout      time.Duration
}

// StripeConfig holds Stripe checkout and webhook settings
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

// SupabaseConfig holds Supabase Auth settings
type SupabaseConfig struct {
	URL       string
	AnonKey   string
	JWTSecret string
}

// WeatherConfig holds OpenWeatherMap settings
type WeatherConfig struct {
	APIKey   string
	BaseURL  string
	CacheTTL time.Duration
}

// CurrencyConfig holds ExchangeRate-API settings
type CurrencyConfig struct {
	APIKey   string
	BaseURL  string
	CacheTTL time.Duration
}

// AffiliateConfig holds partner ids and link templates
type AffiliateConfig struct {
	FlightPartnerID   string
	HotelPartnerID    string
	ActivityPartnerID string
	FlightTemplate    string
	HotelTemplate     string
	ActivityTemplate  string
}

// PlansConfig holds subscription plan limits
type PlansConfig struct {
	FreeTripLimit int
}

// PriceWatchConfig holds price watch checker settings
type PriceWatchConfig struct {
	Enabled       bool
	CheckInterval time.Duration
	BatchSize     int
}

// RateLimitConfig holds per-client limits for the AI routes
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
}

// Load loads configuration from a .env file, an optional config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables (e.g. AMADEUS_CLIENT_ID for amadeus.client_id)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	// .env is optional; in production the environment is set directly
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Host-provided names
	_ = v.BindEnv("app.port", "APP_PORT", "PORT")
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("http.cors_allow_origins", "HTTP_CORS_ALLOW_ORIGINS", "FRONTEND_URL")

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			CORSAllowOrigins: splitList(v.GetString("http.cors_allow_origins")),
			TrustedProxies:   splitList(v.GetString("http.trusted_proxies")),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("database.url"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			MigrateOnStart:  v.GetBool("database.migrate_on_start"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		OpenAI: OpenAIConfig{
			APIKey:      v.GetString("openai.api_key"),
			Model:       v.GetString("openai.model"),
			BaseURL:     v.GetString("openai.base_url"),
			Temperature: float32(v.GetFloat64("openai.temperature")),
			Timeout:     v.GetDuration("openai.timeout"),
		},
		Amadeus: AmadeusConfig{
			ClientID:     v.GetString("amadeus.client_id"),
			ClientSecret: v.GetString("amadeus.client_secret"),
			Env:          v.GetString("amadeus.env"),
			BaseURL:      v.GetString("amadeus.base_url"),
			Timeout:      v.GetDuration("amadeus.timeout"),
		},
		Stripe: StripeConfig{
			SecretKey:     v.GetString("stripe.secret_key"),
			WebhookSecret: v.GetString("stripe.webhook_secret"),
			SuccessURL:    v.GetString("stripe.success_url"),
			CancelURL:     v.GetString("stripe.cancel_url"),
		},
		Supabase: SupabaseConfig{
			URL:       v.GetString("supabase.url"),
			AnonKey:   v.GetString("supabase.anon_key"),
			JWTSecret: v.GetString("supabase.jwt_secret"),
		},
		Weather: WeatherConfig{
			APIKey:   v.GetString("weather.api_key"),
			BaseURL:  v.GetString("weather.base_url"),
			CacheTTL: v.GetDuration("weather.cache_ttl"),
		},
		Currency: CurrencyConfig{
			APIKey:   v.GetString("currency.api_key"),
			BaseURL:  v.GetString("currency.base_url"),
			CacheTTL: v.GetDuration("currency.cache_ttl"),
		},
		Affiliate: AffiliateConfig{
			FlightPartnerID:   v.GetString("affiliate.flight_partner_id"),
			HotelPartnerID:    v.GetString("affiliate.hotel_partner_id"),
			ActivityPartnerID: v.GetString("affiliate.activity_partner_id"),
			FlightTemplate:    v.GetString("affiliate.flight_template"),
			HotelTemplate:     v.GetString("affiliate.hotel_template"),
			ActivityTemplate:  v.GetString("affiliate.activity_template"),
		},
		Plans: PlansConfig{
			FreeTripLimit: v.GetInt("plans.free_trip_limit"),
		},
		PriceWatch: PriceWatchConfig{
			Enabled:       v.GetBool("price_watch.enabled"),
			CheckInterval: v.GetDuration("price_watch.check_interval"),
			BatchSize:     v.GetInt("price_watch.batch_size"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           !v.IsSet("rate_limit.enabled") || v.GetBool("rate_limit.enabled"),
			RequestsPerMinute: v.GetInt("rate_limit.requests_per_minute"),
			Burst:             v.GetInt("rate_limit.burst"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "tripplanner"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// AI completions can take a while
		cfg.HTTP.WriteTimeout = 90 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "tripplanner"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 5 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.OpenAI.Temperature == 0 {
		cfg.OpenAI.Temperature = 0.7
	}
	if cfg.OpenAI.Timeout == 0 {
		cfg.OpenAI.Timeout = 60 * time.Second
	}
	if cfg.Amadeus.Env == "" {
		cfg.Amadeus.Env = "test"
	}
	if cfg.Amadeus.BaseURL == "" {
		cfg.Amadeus.BaseURL = "https://test.api.amadeus.com"
		if cfg.Amadeus.Env == "production" {
			cfg.Amadeus.BaseURL = "https://api.amadeus.com"
		}
	}
	if cfg.Amadeus.Timeout == 0 {
		cfg.Amadeus.Timeout = 30 * time.Second
	}
	if cfg.Stripe.SuccessURL == "" {
		cfg.Stripe.SuccessURL = "http://localhost:3000/bookings/success?session_id={CHECKOUT_SESSION_ID}"
	}
	if cfg.Stripe.CancelURL == "" {
		cfg.Stripe.CancelURL = "http://localhost:3000/bookings/cancelled"
	}
	if cfg.Weather.BaseURL == "" {
		cfg.Weather.BaseURL = "https://api.openweathermap.org"
	}
	if cfg.Weather.CacheTTL == 0 {
		cfg.Weather.CacheTTL = 10 * time.Minute
	}
	if cfg.Currency.BaseURL == "" {
		cfg.Currency.BaseURL = "https://v6.exchangerate-api.com"
	}
	if cfg.Currency.CacheTTL == 0 {
		cfg.Currency.CacheTTL = time.Hour
	}
	if cfg.Affiliate.FlightTemplate == "" {
		cfg.Affiliate.FlightTemplate = "https://www.skyscanner.net/transport/flights/{origin}/{destination}/{depart}/{return}/?adultsv2={adults}&associateid={partner}"
	}
	if cfg.Affiliate.HotelTemplate == "" {
		cfg.Affiliate.HotelTemplate = "https://www.booking.com/searchresults.html?ss={city}&checkin={checkin}&checkout={checkout}&group_adults={adults}&aid={partner}"
	}
	if cfg.Affiliate.ActivityTemplate == "" {
		cfg.Affiliate.ActivityTemplate = "https://www.getyourguide.com/s/?q={city}&partner_id={partner}"
	}
	if cfg.Plans.FreeTripLimit == 0 {
		cfg.Plans.FreeTripLimit = 3
	}
	if cfg.PriceWatch.CheckInterval == 0 {
		cfg.PriceWatch.CheckInterval = 6 * time.Hour
	}
	if cfg.PriceWatch.BatchSize == 0 {
		cfg.PriceWatch.BatchSize = 50
	}
	if cfg.RateLimit.RequestsPerMinute == 0 {
		cfg.RateLimit.RequestsPerMinute = 20
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 5
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Plans.FreeTripLimit < 0 {
		return fmt.Errorf("plans.free_trip_limit cannot be negative")
	}
	if c.Amadeus.Env != "test" && c.Amadeus.Env != "production" {
		return fmt.Errorf("amadeus.env must be 'test' or 'production', got %q", c.Amadeus.Env)
	}

	if c.IsProduction() {
		if c.Supabase.JWTSecret == "" && c.Supabase.URL == "" {
			return fmt.Errorf("supabase.jwt_secret or supabase.url is required in production")
		}
		if c.Stripe.SecretKey != "" && c.Stripe.WebhookSecret == "" {
			return fmt.Errorf("stripe.webhook_secret is required when stripe.secret_key is set")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("http.cors_allow_origins cannot be '*' in production")
			}
		}
	}

	return nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
