package scheduler

import "time"

// Config controls the scheduler interval and which jobs run. An empty
// EnabledJobs list enables everything.
type Config struct {
	RunInterval time.Duration
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: 5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	if c.RunInterval <= 0 {
		c.RunInterval = DefaultConfig().RunInterval
	}
	return c
}
