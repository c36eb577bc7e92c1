// Package cli runs a single query or mutation through a configured client.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is read from GQLCACHE_* variables first; flags override it.
type Config struct {
	URL       string        `env:"GQLCACHE_URL"        envDefault:"http://localhost:4000"`
	Endpoint  string        `env:"GQLCACHE_ENDPOINT"   envDefault:"/graphql"`
	Provider  string        `env:"GQLCACHE_PROVIDER"   envDefault:"lru"`
	RedisAddr string        `env:"GQLCACHE_REDIS_ADDR" envDefault:"localhost:6379"`
	Codec     string        `env:"GQLCACHE_CODEC"      envDefault:"json"`
	MaxDecode int           `env:"GQLCACHE_MAX_DECODE" envDefault:"0"`
	TTL       time.Duration `env:"GQLCACHE_TTL"        envDefault:"10m"`
	Namespace string        `env:"GQLCACHE_NAMESPACE"  envDefault:"gqlcache"`
	Metrics   string        `env:"GQLCACHE_METRICS"    envDefault:"none"`
	Mirror    string        `env:"GQLCACHE_MIRROR"`
	LogLevel  string        `env:"GQLCACHE_LOG_LEVEL"  envDefault:"info"`

	Document     string
	Mutation     bool
	Whole        bool
	NoCacheRead  bool
	NoCacheWrite bool
	Delete       bool
	WriteThrough bool
	Repeat       int
	Poll         time.Duration
	PollFor      time.Duration
}

// ParseConfig loads env defaults and then parses args on fs.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.URL, "url", cfg.URL, "GraphQL server base URL")
	fs.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "endpoint path")
	fs.StringVar(&cfg.Provider, "provider", cfg.Provider, "cache provider: lru, ristretto, bigcache, redis")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "redis address (provider=redis)")
	fs.StringVar(&cfg.Codec, "codec", cfg.Codec, "payload codec: json, cbor, msgpack, struct")
	fs.IntVar(&cfg.MaxDecode, "max-decode", cfg.MaxDecode, "refuse cached payloads larger than this (0 = no limit)")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "cache entry TTL")
	fs.StringVar(&cfg.Namespace, "ns", cfg.Namespace, "cache namespace")
	fs.StringVar(&cfg.Metrics, "metrics", cfg.Metrics, "metrics exporter: none, stdout, prometheus")
	fs.StringVar(&cfg.Mirror, "mirror", cfg.Mirror, "sqlite file mirroring every cache change")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn, error")

	fs.BoolVar(&cfg.Mutation, "mutation", false, "send the document as a mutation")
	fs.BoolVar(&cfg.Whole, "whole", false, "whole-query mode (no normalization)")
	fs.BoolVar(&cfg.NoCacheRead, "no-cache-read", false, "skip the cache lookup")
	fs.BoolVar(&cfg.NoCacheWrite, "no-cache-write", false, "do not store the response")
	fs.BoolVar(&cfg.Delete, "delete", false, "mutation removes its cache entry")
	fs.BoolVar(&cfg.WriteThrough, "write-through", false, "let the store perform the mutation round trip")
	fs.IntVar(&cfg.Repeat, "repeat", 1, "run the query this many times")
	fs.DurationVar(&cfg.Poll, "poll", 0, "poll the query on this period")
	fs.DurationVar(&cfg.PollFor, "poll-for", 5*time.Second, "how long to keep polling")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() != 1 {
		return Config{}, errors.New("expected exactly one document argument (use - for stdin)")
	}
	cfg.Document = fs.Arg(0)
	if cfg.Repeat < 1 {
		cfg.Repeat = 1
	}
	return cfg, nil
}
