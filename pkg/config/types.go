// Package config provides contract collection loading and server settings.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/stubwire/stubwire/pkg/contract"
)

// Collection is the on-disk contract file format: an ordered list of
// contract records. Order in the file is matching precedence.
type Collection struct {
	// Version identifies the file format version (currently "1", optional).
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Name is an optional display name for the collection.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Contracts are the contract records in precedence order.
	Contracts []*contract.Contract `json:"contracts" yaml:"contracts"`
}

// ServerConfig holds runtime server settings. Values come from environment
// variables with CLI flags taking precedence where set.
type ServerConfig struct {
	// Port is the stub server listen port.
	Port int `env:"STUBWIRE_PORT" envDefault:"4280"`

	// AdminPort is the admin/control API listen port.
	AdminPort int `env:"STUBWIRE_ADMIN_PORT" envDefault:"4290"`

	// LogLevel is the minimum log level: debug, info, warn, error.
	LogLevel string `env:"STUBWIRE_LOG_LEVEL" envDefault:"info"`

	// LogFormat is the log output format: text or json.
	LogFormat string `env:"STUBWIRE_LOG_FORMAT" envDefault:"text"`

	// ReadTimeoutSec / WriteTimeoutSec bound request processing at the
	// transport level.
	ReadTimeoutSec  int `env:"STUBWIRE_READ_TIMEOUT" envDefault:"30"`
	WriteTimeoutSec int `env:"STUBWIRE_WRITE_TIMEOUT" envDefault:"30"`

	// TransitionRetries bounds the match-and-transition retry cycle when a
	// scenario state moves concurrently. Exceeding it surfaces as a conflict
	// error instead of blocking.
	TransitionRetries int `env:"STUBWIRE_TRANSITION_RETRIES" envDefault:"3"`

	// MaxRequestEntries bounds the in-memory request history ring.
	MaxRequestEntries int `env:"STUBWIRE_MAX_REQUEST_ENTRIES" envDefault:"1000"`

	// MaxBodyBytes bounds incoming request bodies (default 10MB).
	MaxBodyBytes int64 `env:"STUBWIRE_MAX_BODY_BYTES" envDefault:"10485760"`
}

// FromEnv loads server settings from environment variables.
func FromEnv() (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// Default returns a ServerConfig with all defaults and no environment lookup.
func Default() *ServerConfig {
	return &ServerConfig{
		Port:              4280,
		AdminPort:         4290,
		LogLevel:          "info",
		LogFormat:         "text",
		ReadTimeoutSec:    30,
		WriteTimeoutSec:   30,
		TransitionRetries: 3,
		MaxRequestEntries: 1000,
		MaxBodyBytes:      10 << 20,
	}
}
