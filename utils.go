package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"syscall"

	"github.com/9seconds/geolocator/geolib"
	"github.com/9seconds/geolocator/providers"
)

func makeRootContext() (context.Context, context.CancelFunc) {
	rootCtx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)

	go func() {
		for range sigChan {
			cancel()
		}
	}()

	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	return rootCtx, cancel
}

func makeHTTPClient(conf configHTTP) geolib.HTTPClient {
	jar, err := cookiejar.New(nil)
	if err != nil {
		panic(err)
	}

	httpClient := &http.Client{
		Timeout: conf.GetTimeout(),
		Jar:     jar,
	}

	return geolib.NewHTTPClient(httpClient,
		"geolocator/"+version,
		conf.GetRateLimitInterval(),
		conf.GetRateLimitBurst(),
		conf.GetCircuitBreakerOpenThreshold(),
		conf.GetCircuitBreakerHalfOpenTimeout(),
		conf.GetCircuitBreakerResetFailuresTimeout())
}

func makeStore(conf configCache) (geolib.Store, error) {
	switch conf.GetStore() {
	case storeMemory:
		return geolib.NewMemoryStore(uint(conf.GetSize()))
	case storeLRU:
		return geolib.NewLRUStore(conf.GetSize(), conf.GetTTL()), nil
	case storeTagged:
		return geolib.NewTaggedStore(conf.GetTTL()), nil
	case storeBadger:
		if conf.Directory != "" {
			if err := os.MkdirAll(conf.Directory, 0o750); err != nil {
				return nil, fmt.Errorf("cannot create cache directory: %w", err)
			}
		}

		return geolib.NewBadgerStore(conf.Directory)
	}

	return nil, &geolib.ConfigurationError{
		Param:   "cache.store",
		Message: fmt.Sprintf("unknown store %q", conf.Store),
	}
}

type app struct {
	resolver *geolib.Resolver
	store    geolib.Store
}

func (a *app) Close() {
	a.resolver.Shutdown()

	if closer, ok := a.store.(io.Closer); ok {
		closer.Close() // nolint: errcheck
	}
}

func makeApp(ctx context.Context, conf *config, log geolib.Logger, metrics *geolib.Metrics) (*app, error) {
	provider, err := providers.New(conf.Service,
		makeHTTPClient(conf.HTTP),
		conf.GetServiceParameters())
	if err != nil {
		return nil, fmt.Errorf("cannot create provider: %w", err)
	}

	opts := geolib.ResolverOpts{
		Provider:        provider,
		CacheMode:       conf.Cache.GetMode(),
		CacheTTL:        conf.Cache.GetTTL(),
		DefaultLocation: conf.DefaultLocation.ToLocation(),
		ClientIP:        conf.ClientIP,
		IncludeCurrency: conf.IncludeCurrency,
		LogFailures:     conf.LogFailures,
		Logger:          log,
		Metrics:         metrics,
		WorkerPoolSize:  conf.GetWorkerPoolSize(),
	}

	var store geolib.Store

	if opts.CacheMode != geolib.CacheModeNone {
		store, err = makeStore(conf.Cache)
		if err != nil {
			return nil, fmt.Errorf("cannot create cache store: %w", err)
		}

		opts.Cache = geolib.NewCache(store, conf.Cache.Tags, conf.Cache.Prefix)
	}

	resolver, err := geolib.NewResolver(ctx, opts)
	if err != nil {
		if closer, ok := store.(io.Closer); ok {
			closer.Close() // nolint: errcheck
		}

		return nil, fmt.Errorf("cannot create resolver: %w", err)
	}

	return &app{
		resolver: resolver,
		store:    store,
	}, nil
}
