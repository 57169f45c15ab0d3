package config

import "github.com/aduval/bessplan/core/factory"

// RecorderConfig selects the run persistence backend. An empty type keeps
// runs in memory only (no-op recorder).
type RecorderConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

// ToModule converts the section into a factory module descriptor.
func (c RecorderConfig) ToModule() factory.ModuleConfig {
	return factory.ModuleConfig{Type: c.Type, Conf: c.Conf}
}
