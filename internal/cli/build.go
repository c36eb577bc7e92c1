package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/gqlcache"
	"github.com/unkn0wn-root/gqlcache/codec"
	"github.com/unkn0wn-root/gqlcache/genstore"
	zaplog "github.com/unkn0wn-root/gqlcache/log/zap"
	sqlitemirror "github.com/unkn0wn-root/gqlcache/mirror/sqlite"
	"github.com/unkn0wn-root/gqlcache/provider"
	"github.com/unkn0wn-root/gqlcache/provider/bigcache"
	"github.com/unkn0wn-root/gqlcache/provider/lru"
	"github.com/unkn0wn-root/gqlcache/provider/redis"
	"github.com/unkn0wn-root/gqlcache/provider/ristretto"
	asyncsink "github.com/unkn0wn-root/gqlcache/telemetry/async"
	otelsink "github.com/unkn0wn-root/gqlcache/telemetry/otel"
	"github.com/unkn0wn-root/gqlcache/transport"
)

// app is everything Run needs, plus how to release it.
type app struct {
	client  *gqlcache.Client
	log     *zap.Logger
	closers []func(context.Context) error
}

func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.log.Sync()
	return errors.Join(errs...)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

func newProvider(cfg Config) (provider.Provider, goredis.UniversalClient, error) {
	switch cfg.Provider {
	case "lru", "":
		p, err := lru.New(0)
		return p, nil, err
	case "ristretto":
		p, err := ristretto.New(ristretto.Config{
			NumCounters: 1e5,
			MaxCost:     64 << 20,
			BufferItems: 64,
			Metrics:     true,
		})
		return p, nil, err
	case "bigcache":
		p, err := bigcache.New(bigcache.Config{LifeWindow: cfg.TTL})
		return p, nil, err
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		p, err := redis.New(redis.Config{Client: rdb})
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return p, rdb, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func newCodec(cfg Config) (codec.Codec[gqlcache.Response], error) {
	var c codec.Codec[gqlcache.Response]
	switch cfg.Codec {
	case "json", "":
		c = codec.JSON[gqlcache.Response]{}
	case "cbor":
		cb, err := codec.NewCBOR[gqlcache.Response](false)
		if err != nil {
			return nil, err
		}
		c = cb
	case "msgpack":
		c = codec.Msgpack[gqlcache.Response]{}
	case "struct":
		c = codec.Struct{}
	default:
		return nil, fmt.Errorf("unknown codec %q", cfg.Codec)
	}
	if cfg.MaxDecode > 0 {
		c = codec.LimitCodec[gqlcache.Response]{Inner: c, MaxDecode: cfg.MaxDecode}
	}
	return c, nil
}

func build(cfg Config) (_ *app, err error) {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	a := &app{log: logger}
	defer func() {
		if err != nil {
			_ = a.close(context.Background())
		}
	}()
	lg := zaplog.New(logger)

	tr, err := transport.New(transport.Config{BaseURL: cfg.URL})
	if err != nil {
		return nil, err
	}

	prov, rdb, err := newProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}
	cd, err := newCodec(cfg)
	if err != nil {
		return nil, err
	}
	sopts := gqlcache.StoreOptions{
		Namespace: cfg.Namespace,
		Provider:  prov,
		Codec:     cd,
		Transport: tr,
		Logger:    lg,
		TTL:       cfg.TTL,
	}
	if rdb != nil {
		gs, err := genstore.NewRedisGenStore(genstore.RedisConfig{
			Client:    rdb,
			Namespace: cfg.Namespace,
			TTL:       defaultGenTTL,
		})
		if err != nil {
			return nil, err
		}
		sopts.GenStore = gs
	}
	store, err := gqlcache.NewStore(sopts)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(ctx context.Context) error {
		err := store.Close(ctx)
		if rdb != nil {
			_ = rdb.Close()
		}
		return err
	})

	mp, err := otelsink.NewMeterProvider(cfg.Metrics, os.Stderr)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, mp.Shutdown)
	metrics, err := otelsink.New(mp.Meter("github.com/unkn0wn-root/gqlcache"))
	if err != nil {
		return nil, err
	}
	sink := asyncsink.New(metrics, 1, 1024)
	a.closers = append(a.closers, func(context.Context) error { sink.Close(); return nil })

	opts := gqlcache.Options{
		Store:           store,
		Transport:       tr,
		DefaultEndpoint: cfg.Endpoint,
		Sink:            sink,
		Logger:          lg,
	}
	if cfg.Mirror != "" {
		m, err := sqlitemirror.Open(cfg.Mirror)
		if err != nil {
			return nil, fmt.Errorf("mirror: %w", err)
		}
		opts.Mirror = m
	}
	client, err := gqlcache.New(opts)
	if err != nil {
		if opts.Mirror != nil {
			_ = opts.Mirror.Close()
		}
		return nil, err
	}
	a.client = client
	a.closers = append(a.closers, client.Close)
	return a, nil
}
