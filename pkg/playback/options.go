package playback

import (
	"time"

	"github.com/creasty/defaults"
)

// Options tunes every controller a Manager creates. Zero fields fall back to
// their defaults.
type Options struct {
	Threshold          float64 `default:"10"`
	SleepCheckInterval int     `default:"4"`
	Clock              Clock
	Dispatcher         Dispatcher
}

func (o Options) withDefaults() Options {
	// defaults.Set only fills zero fields, so it can't fail on this struct.
	_ = defaults.Set(&o)
	if o.Threshold < 0 {
		o.Threshold = DefaultThreshold
	}
	if o.SleepCheckInterval < 1 {
		o.SleepCheckInterval = DefaultSleepCheckInterval
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Dispatcher == nil {
		o.Dispatcher = GoDispatcher
	}
	return o
}
