// Package config provides configuration types shared by broker
// implementations.
package config

import (
	"time"
)

// BaseConnConfig provides the connection fields shared by every broker type.
type BaseConnConfig struct {
	// Timeout bounds connection setup and individual publish calls
	Timeout time.Duration `json:"timeout"`
}

// SetConnectionDefaults applies the default timeout when none is set.
// A zero defaultTimeout falls back to 30 seconds.
func (c *BaseConnConfig) SetConnectionDefaults(defaultTimeout time.Duration) {
	if defaultTimeout == 0 {
		defaultTimeout = 30 * time.Second
	}

	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}
