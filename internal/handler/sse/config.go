package sse

import "time"

// Config holds settings for SSE connections.
type Config struct {
	// PingInterval is how often to send comment pings to keep intermediate
	// proxies from timing out an idle stream.
	PingInterval time.Duration
}

// DefaultConfig returns the default SSE configuration. 15 seconds stays well
// under common proxy idle timeouts.
func DefaultConfig() *Config {
	return &Config{
		PingInterval: 15 * time.Second,
	}
}
