package configuration

import (
	"time"
)

// Config holds the fixed tunables of the HTTP hashing service.
type Config struct {
	ReadHeaderTimeout time.Duration
	ShutdownGrace     time.Duration
}

func Default() Config {
	return Config{
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownGrace:     5 * time.Second,
	}
}
