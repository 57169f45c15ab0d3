package config

import "github.com/aduval/bessplan/core/horizon"

// HorizonConfig shapes how the series is cut into dispatch windows.
type HorizonConfig struct {
	// Mode is "committed" (solve and commit whole windows) or "rolling"
	// (re-solve a lookahead, commit the first steps).
	Mode string `json:"mode"`
	// WindowSteps fixes the committed window length; 0 walks calendar months.
	WindowSteps int `json:"window_steps"`
	// LookaheadSteps is the rolling horizon length visible per solve.
	LookaheadSteps int `json:"lookahead_steps"`
	// CommitSteps is how many steps of each rolling solve are kept.
	CommitSteps int `json:"commit_steps"`
}

// SetDefaults applies fallback values for optional fields.
func (c *HorizonConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = string(horizon.ModeCommitted)
	}
}

// ToModel converts the section into the orchestrator configuration.
func (c HorizonConfig) ToModel() horizon.Config {
	return horizon.Config{
		Mode:           horizon.Mode(c.Mode),
		WindowSteps:    c.WindowSteps,
		LookaheadSteps: c.LookaheadSteps,
		CommitSteps:    c.CommitSteps,
	}
}

// Validate delegates to the core horizon validation.
func (c HorizonConfig) Validate() error {
	return c.ToModel().Validate()
}
