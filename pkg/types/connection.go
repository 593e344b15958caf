package types

import "time"

// ConnectionConfig carries the parameters an adapter needs to reach its
// backend. Validation happens inside Connect, before any network attempt,
// with every problem aggregated into a single configuration error.
type ConnectionConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SocketTimeout  time.Duration `yaml:"socket_timeout"`
	PoolSize       int           `yaml:"pool_size"`
	TLSEnabled     bool          `yaml:"tls_enabled"`
}

// WithDefaults fills unset fields with harness defaults.
func (c ConnectionConfig) WithDefaults() ConnectionConfig {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.SocketTimeout == 0 {
		c.SocketTimeout = 30 * time.Second
	}
	if c.PoolSize == 0 {
		c.PoolSize = 8
	}
	if c.Collection == "" {
		c.Collection = "docbench"
	}
	return c
}
