package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/aduval/bessplan/core/metrics"
)

type Config struct {
	Series    SeriesConfig    `json:"series"`
	Battery   BatteryConfig   `json:"battery"`
	Tariff    TariffConfig    `json:"tariff"`
	Dispatch  DispatchConfig  `json:"dispatch"`
	Horizon   HorizonConfig   `json:"horizon"`
	Economics EconomicsConfig `json:"economics"`
	Sizing    SizingConfig    `json:"sizing"`
	Breakeven BreakevenConfig `json:"breakeven"`
	Compress  CompressConfig  `json:"compress"`
	Metrics   metrics.Config  `json:"metrics"`
	Recorder  RecorderConfig  `json:"recorder"`
	Sentry    SentryConfig    `json:"sentry"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("BESS_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "bess_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Battery.SetDefaults()
	cfg.Horizon.SetDefaults()
	cfg.Economics.SetDefaults()
	cfg.Sizing.SetDefaults()
	cfg.Breakeven.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section, returning the first violation.
func (c Config) Validate() error {
	if err := c.Series.Validate(); err != nil {
		return fmt.Errorf("series: %w", err)
	}
	if err := c.Battery.Validate(); err != nil {
		return fmt.Errorf("battery: %w", err)
	}
	if err := c.Tariff.Validate(); err != nil {
		return fmt.Errorf("tariff: %w", err)
	}
	if err := c.Dispatch.Validate(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if err := c.Horizon.Validate(); err != nil {
		return fmt.Errorf("horizon: %w", err)
	}
	if err := c.Economics.Validate(); err != nil {
		return fmt.Errorf("economics: %w", err)
	}
	if err := c.Sizing.Validate(); err != nil {
		return fmt.Errorf("sizing: %w", err)
	}
	if err := c.Breakeven.Validate(); err != nil {
		return fmt.Errorf("breakeven: %w", err)
	}
	return nil
}
