package events

import (
	"time"

	"github.com/aduval/bessplan/core/model"
)

// WindowSolved is published after each dispatch window is optimized.
type WindowSolved struct {
	Index    int
	Start    time.Time
	Billing  bool
	Schedule model.DispatchSchedule
	Duration time.Duration
}
