package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string
	NATSURL     string
	NATSSubject string
	JWTSecret   string
	CORSOrigins string

	AuthCookieName string

	CertificatePrefix       string
	VerifyCacheTTL          time.Duration
	EmailRetrySchedule      string
	EmailRetryWindow        time.Duration
	MailAPIKey              string
	MailBaseURL             string
	MailFrom                string
	AccountURL              string
	DefaultPassingScore     int
	CompletionMinProgress   int
	CompletionMinTimeRatio  float64
	CompletionMinElapsed    time.Duration
	GuardAllowMissingCourse bool
	GuardLoginURL           string
	GuardCatalogURL         string
	GuardContentDir         string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// MailEnabled reports whether a transactional mail provider is configured.
func (c Config) MailEnabled() bool {
	return c.MailAPIKey != "" && c.MailFrom != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CEU")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "DrTroy CE API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject", "ceu")
	v.SetDefault("cors.allow_origins", "https://drtroy.com,https://www.drtroy.com")
	v.SetDefault("auth.cookie_name", "sb-auth-token")
	v.SetDefault("certificate.prefix", "DRTROY")
	v.SetDefault("certificate.verify_cache_ttl", "5m")
	v.SetDefault("certificate.email_retry_schedule", "@every 15m")
	v.SetDefault("certificate.email_retry_window", "72h")
	v.SetDefault("mail.base_url", "https://api.resend.com")
	v.SetDefault("mail.account_url", "https://drtroy.com/my-account.html")
	v.SetDefault("exam.passing_score", 70)
	v.SetDefault("completion.min_progress_percent", 0)
	v.SetDefault("completion.min_time_ratio", 0)
	v.SetDefault("completion.min_elapsed", "0s")
	v.SetDefault("guard.allow_missing_course", true)
	v.SetDefault("guard.login_url", "/my-account.html?auth=required")
	v.SetDefault("guard.catalog_url", "/course-catalog.html?access=denied")
	v.SetDefault("guard.content_dir", "./courses")
}

func fromViper(v *viper.Viper) (Config, error) {
	verifyTTL, err := parseDuration(v, "certificate.verify_cache_ttl", "5m")
	if err != nil {
		return Config{}, err
	}

	retryWindow, err := parseDuration(v, "certificate.email_retry_window", "72h")
	if err != nil {
		return Config{}, err
	}

	minElapsed, err := parseDuration(v, "completion.min_elapsed", "0s")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                 v.GetString("app.name"),
		AppEnv:                  v.GetString("app.env"),
		AppPort:                 v.GetString("app.port"),
		DatabaseURL:             v.GetString("database.url"),
		RedisURL:                v.GetString("redis.url"),
		NATSURL:                 v.GetString("nats.url"),
		NATSSubject:             v.GetString("nats.subject"),
		JWTSecret:               v.GetString("jwt.secret"),
		CORSOrigins:             v.GetString("cors.allow_origins"),
		AuthCookieName:          v.GetString("auth.cookie_name"),
		CertificatePrefix:       strings.ToUpper(strings.TrimSpace(v.GetString("certificate.prefix"))),
		VerifyCacheTTL:          verifyTTL,
		EmailRetrySchedule:      v.GetString("certificate.email_retry_schedule"),
		EmailRetryWindow:        retryWindow,
		MailAPIKey:              v.GetString("mail.api_key"),
		MailBaseURL:             v.GetString("mail.base_url"),
		MailFrom:                v.GetString("mail.from"),
		AccountURL:              v.GetString("mail.account_url"),
		DefaultPassingScore:     v.GetInt("exam.passing_score"),
		CompletionMinProgress:   v.GetInt("completion.min_progress_percent"),
		CompletionMinTimeRatio:  v.GetFloat64("completion.min_time_ratio"),
		CompletionMinElapsed:    minElapsed,
		GuardAllowMissingCourse: v.GetBool("guard.allow_missing_course"),
		GuardLoginURL:           v.GetString("guard.login_url"),
		GuardCatalogURL:         v.GetString("guard.catalog_url"),
		GuardContentDir:         v.GetString("guard.content_dir"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.CertificatePrefix == "" {
		cfg.CertificatePrefix = "DRTROY"
	}

	if cfg.DefaultPassingScore <= 0 || cfg.DefaultPassingScore > 100 {
		cfg.DefaultPassingScore = 70
	}

	if cfg.CompletionMinProgress < 0 || cfg.CompletionMinProgress > 100 {
		return Config{}, fmt.Errorf("completion min progress must be between 0 and 100")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key, fallback string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		raw = fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return d, nil
}
