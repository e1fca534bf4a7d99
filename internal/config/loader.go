package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/shanehull/racealert/internal/watch"
)

const (
	appPrefix = "RACEALERT_"
	// FileEnv names the optional YAML config file.
	FileEnv = appPrefix + "CONFIG"

	trackedNamesKey = "tracked_names"
)

// Load builds a Config by layering defaults, the optional YAML file, and the environment.
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// RACEALERT_MAX_PAGES -> max_pages. List values arrive comma-separated.
	appEnv := env.ProviderWithValue(appPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(appPrefix))
		if key == trackedNamesKey {
			return key, watch.ParseNames(value)
		}
		return key, value
	})

	// TWILIO_AUTH_TOKEN -> twilio.auth_token, EMAIL_SMTP_PORT -> email.smtp_port
	nested := func(s string) string {
		return strings.Replace(strings.ToLower(s), "_", ".", 1)
	}

	// GEMINI_API_KEY -> gemini_api_key
	flat := strings.ToLower

	providers := []*env.Env{
		appEnv,
		env.Provider("TWILIO_", ".", nested),
		env.Provider("EMAIL_", ".", nested),
		env.Provider("GEMINI_", ".", flat),
	}
	for _, p := range providers {
		if err := k.Load(p, nil); err != nil {
			return nil, fmt.Errorf("failed to load environment: %w", err)
		}
	}

	cfg := *base
	if k.Exists(trackedNamesKey) {
		cfg.TrackedNames = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
