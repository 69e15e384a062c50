// Package config loads widget configuration from the environment.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/pkg/errors"
)

// Config aggregates every tunable of the widget and the dev stub server.
type Config struct {
	// APIBaseURL is the chat backend the gateway clients talk to.
	APIBaseURL string `env:"CHAT_API_BASE_URL" envDefault:"https://pandac.in"`
	// AdviceURL is the third-party fallback endpoint.
	AdviceURL string `env:"CHAT_ADVICE_URL" envDefault:"https://api.adviceslip.com/advice"`

	// StateDir is where persisted widget state lives. Defaults to
	// ~/.sitechat when unset.
	StateDir string `env:"CHAT_STATE_DIR"`

	AutoPopup        bool `env:"CHAT_AUTO_POPUP" envDefault:"true"`
	AutoPopupDelayMS int  `env:"CHAT_AUTO_POPUP_DELAY" envDefault:"3000"`

	RequestTimeout time.Duration `env:"CHAT_REQUEST_TIMEOUT" envDefault:"15s"`

	LogLevel string `env:"CHAT_LOG_LEVEL" envDefault:"info"`

	// DevServerAddr is only used by cmd/devserver.
	DevServerAddr string `env:"CHAT_DEV_SERVER_ADDR" envDefault:":8080"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "resolve home dir")
		}
		cfg.StateDir = filepath.Join(home, ".sitechat")
	}

	return cfg, nil
}

// AutoPopupDelay returns the popup delay as a duration.
func (c *Config) AutoPopupDelay() time.Duration {
	return time.Duration(c.AutoPopupDelayMS) * time.Millisecond
}
