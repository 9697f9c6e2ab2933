// Package logging carries a log prefix through context so every subsystem
// tags its own lines. Output is opt-in via VERBOSE=1; normal stdout stays
// reserved for computed identifiers.
package logging

import (
	"context"
	"log"
	"os"
)

type logKeyType int

const (
	CLIPrefix    = "cli"
	ServerPrefix = "server"
	CachePrefix  = "cache"
)

const envPrefixKey logKeyType = iota

func WithPrefix(ctx context.Context, prefix string) context.Context {
	return context.WithValue(ctx, envPrefixKey, prefix)
}

func PrefixFrom(ctx context.Context) string {
	if v := ctx.Value(envPrefixKey); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func Logf(ctx context.Context, format string, args ...any) {
	if os.Getenv("VERBOSE") == "1" {
		p := PrefixFrom(ctx)
		log.Printf("[%s] "+format, append([]any{p}, args...)...)
	}
}
