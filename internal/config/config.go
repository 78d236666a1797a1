// Package config reads the configuration of abilityd from the environment
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/supremind/ability/types"
)

// Config of abilityd
type Config struct {
	ListenAddr  string `env:"ABILITY_LISTEN_ADDR" envDefault:":8080"`
	DatabaseURL string `env:"ABILITY_DATABASE_URL,required"`
	RulesView   string `env:"ABILITY_RULES_VIEW" envDefault:"user_permissions"`
	JWTSecret   string `env:"ABILITY_JWT_SECRET,required"`

	// GuestRulesFile replaces the built in guest rules when set
	GuestRulesFile string `env:"ABILITY_GUEST_RULES_FILE"`

	// rows are cached in redis only when both are set
	RedisAddr    string        `env:"ABILITY_REDIS_ADDR"`
	RuleCacheTTL time.Duration `env:"ABILITY_RULE_CACHE_TTL"`

	SuperUsers   []int64 `env:"ABILITY_SUPER_USERS" envSeparator:","`
	StrictFields bool    `env:"ABILITY_STRICT_FIELDS"`
	LogVerbosity int     `env:"ABILITY_LOG_VERBOSITY" envDefault:"0"`
}

// Load reads the configuration from the process environment
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from the given variables
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if e := env.ParseWithOptions(cfg, opts); e != nil {
		return nil, fmt.Errorf("parse config: %w", e)
	}
	if e := cfg.validate(); e != nil {
		return nil, e
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RuleCacheTTL < 0 {
		return fmt.Errorf("negative rule cache ttl: %s", c.RuleCacheTTL)
	}
	if c.LogVerbosity < 0 {
		return fmt.Errorf("negative log verbosity: %d", c.LogVerbosity)
	}
	for _, id := range c.SuperUsers {
		if !types.Identity(id).Valid() || types.Identity(id).IsGuest() {
			return fmt.Errorf("super user %w: %d", types.ErrUnknownIdentity, id)
		}
	}
	return nil
}

// CacheEnabled tells if rows should be cached in redis
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != "" && c.RuleCacheTTL > 0
}

// SuperUserIdentities returns the identities managing everything
func (c *Config) SuperUserIdentities() []types.Identity {
	ids := make([]types.Identity, 0, len(c.SuperUsers))
	for _, id := range c.SuperUsers {
		ids = append(ids, types.Identity(id))
	}
	return ids
}
