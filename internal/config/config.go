package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/centraunit/scopegraph"
	"github.com/spf13/viper"
)

// Config represents the scopegraph CLI configuration
type Config struct {
	Verbose bool       `mapstructure:"verbose"`
	NoColor bool       `mapstructure:"no_color"`
	Demo    DemoConfig `mapstructure:"demo"`
}

// DemoConfig selects what the demo command builds
type DemoConfig struct {
	Scenario string `mapstructure:"scenario"`
	Scope    string `mapstructure:"scope"`
	Destroy  bool   `mapstructure:"destroy"`
}

// Scenarios lists the demo scenarios the CLI knows how to build.
var Scenarios = []string{"aborter", "deep"}

// Load reads scopegraph.yaml from the working directory when present and
// overlays SCOPEGRAPH_* environment variables and whatever flags were bound
// to v. A nil v starts from an empty viper instance.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	v.SetDefault("verbose", false)
	v.SetDefault("no_color", false)
	v.SetDefault("demo.scenario", "aborter")
	v.SetDefault("demo.scope", string(scopegraph.ScopeContainer))
	v.SetDefault("demo.destroy", false)

	v.SetConfigName("scopegraph")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SCOPEGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	known := false
	for _, s := range Scenarios {
		if cfg.Demo.Scenario == s {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("demo.scenario must be one of %s, got: %q", strings.Join(Scenarios, ", "), cfg.Demo.Scenario)
	}

	if !scopegraph.Scope(cfg.Demo.Scope).Valid() {
		return fmt.Errorf("demo.scope is not a known scope: %q", cfg.Demo.Scope)
	}
	return nil
}
