package postgres

import "time"

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds Postgres connection settings.
type ClientConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	SlowThreshold   time.Duration
	AutoMigrate     bool
}

// WithDSN sets the connection string (URL or key=value form).
func WithDSN(dsn string) ClientOption {
	return func(c *ClientConfig) {
		c.DSN = dsn
	}
}

// WithPool sets pool limits.
func WithPool(maxOpen, maxIdle int, lifetime time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.MaxOpenConns = maxOpen
		c.MaxIdleConns = maxIdle
		c.ConnMaxLifetime = lifetime
	}
}

// WithSlowThreshold logs queries slower than d at warn level.
func WithSlowThreshold(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.SlowThreshold = d
	}
}

// WithAutoMigrate creates or alters tables for the given models on connect.
func WithAutoMigrate(enabled bool) ClientOption {
	return func(c *ClientConfig) {
		c.AutoMigrate = enabled
	}
}
