// Package config defines the process configuration and its layered loading.
//
// Precedence (low -> high): defaults, optional YAML file named by RACEALERT_CONFIG,
// environment variables. Application settings use the RACEALERT_ prefix; credentials keep
// the TWILIO_ and EMAIL_ names the service has always been deployed with.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shanehull/racealert/internal/ai"
	"github.com/shanehull/racealert/internal/history"
	"github.com/shanehull/racealert/internal/notify"
	"github.com/shanehull/racealert/internal/source"
	"github.com/shanehull/racealert/internal/watch"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultTrackedNames is the partnership's watchlist.
var DefaultTrackedNames = []string{
	"velocity", "air force red", "silversmith",
	"la ville lumiere", "julia street", "toodles",
	"cultural", "ariri", "needlepoint", "diver",
	"speed shopper", "auntie",
}

type TwilioConfig struct {
	SID       string `koanf:"sid"`
	AuthToken string `koanf:"auth_token"`
	// From is a messaging service SID (MG...) or a sender number.
	From string `koanf:"from"`
	// To is a comma-separated list of recipient numbers.
	To string `koanf:"to"`
}

type EmailConfig struct {
	Address  string `koanf:"address"`
	Password string `koanf:"password"`
	// To is a comma-separated list of recipient addresses.
	To       string `koanf:"to"`
	SMTPHost string `koanf:"smtp_host"`
	SMTPPort int    `koanf:"smtp_port"`
}

type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	TrackedNames []string `koanf:"tracked_names"`

	// ChannelMode is one of sms_only, email_only, sms_then_email.
	ChannelMode string `koanf:"channel_mode"`

	PollInterval   time.Duration `koanf:"poll_interval"`
	RequestTimeout time.Duration `koanf:"request_timeout"`

	UpcomingURL string `koanf:"upcoming_url"`
	EntriesURL  string `koanf:"entries_url"`
	// MaxPages bounds how many upcoming pages are fetched per cycle.
	MaxPages int `koanf:"max_pages"`

	CacheFile string `koanf:"cache_file"`

	// MetricsAddr enables a Prometheus /metrics listener when set, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	GeminiAPIKey string `koanf:"gemini_api_key"`
	GeminiModel  string `koanf:"gemini_model"`

	Twilio TwilioConfig `koanf:"twilio"`
	Email  EmailConfig  `koanf:"email"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		TrackedNames:   append([]string(nil), DefaultTrackedNames...),
		ChannelMode:    string(notify.ModeSMSThenEmail),
		PollInterval:   time.Hour,
		RequestTimeout: source.DefaultRequestTimeout,
		UpcomingURL:    source.DefaultUpcomingURL,
		EntriesURL:     source.DefaultEntriesURL,
		MaxPages:       5,
		CacheFile:      history.DefaultPath(),
		GeminiModel:    ai.DefaultModel,
		Email: EmailConfig{
			SMTPHost: notify.DefaultSMTPServer,
			SMTPPort: notify.DefaultSMTPPort,
		},
	}
}

// Validate checks the values the poll loop cannot run without.
func (c *Config) Validate() error {
	if len(watch.NewWatchlist(c.TrackedNames).Names()) == 0 {
		return fmt.Errorf("%w: tracked_names must not be empty", ErrInvalidConfig)
	}
	if _, err := notify.ParseChannelMode(c.ChannelMode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive, got %s", ErrInvalidConfig, c.PollInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive, got %s", ErrInvalidConfig, c.RequestTimeout)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("%w: max_pages must be at least 1, got %d", ErrInvalidConfig, c.MaxPages)
	}
	if c.UpcomingURL == "" || c.EntriesURL == "" {
		return fmt.Errorf("%w: upcoming_url and entries_url must be set", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) Mode() notify.ChannelMode {
	m, _ := notify.ParseChannelMode(c.ChannelMode)
	return m
}

func (c *Config) SMS() notify.SMSConfig {
	return notify.SMSConfig{
		AccountSID: c.Twilio.SID,
		AuthToken:  c.Twilio.AuthToken,
		From:       c.Twilio.From,
		To:         watch.ParseNames(c.Twilio.To),
	}
}

func (c *Config) SMTP() notify.EmailConfig {
	return notify.EmailConfig{
		SMTPServer: c.Email.SMTPHost,
		SMTPPort:   c.Email.SMTPPort,
		SMTPUser:   c.Email.Address,
		SMTPPass:   c.Email.Password,
		FromEmail:  c.Email.Address,
		ToEmails:   watch.ParseNames(c.Email.To),
	}
}

// Diagnostics lists the credential settings with secrets masked, for startup logging.
func (c *Config) Diagnostics() map[string]string {
	return map[string]string{
		"twilio_sid":        c.Twilio.SID,
		"twilio_auth_token": mask(c.Twilio.AuthToken),
		"twilio_from":       c.Twilio.From,
		"twilio_to":         c.Twilio.To,
		"email_address":     c.Email.Address,
		"email_password":    mask(c.Email.Password),
		"email_to":          c.Email.To,
		"gemini_api_key":    mask(c.GeminiAPIKey),
	}
}

// mask keeps the first six characters of a secret.
func mask(secret string) string {
	const visible = 6
	if secret == "" {
		return ""
	}
	r := []rune(secret)
	if len(r) <= visible {
		return strings.Repeat("*", len(r))
	}
	return string(r[:visible]) + "…"
}
