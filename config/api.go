package config

import "time"

// APIConfig enables the HTTP plan API when Addr is set.
type APIConfig struct {
	Addr string `json:"addr"`
	// Token, when set, is required as a bearer token.
	Token     string `json:"token"`
	TimeoutMS int    `json:"timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 10000
	}
}

// Timeout returns the per-request planning timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
