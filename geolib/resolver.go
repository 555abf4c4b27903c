package geolib

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// CacheMode defines when resolver writes locations into the cache.
type CacheMode string

const (
	// CacheModeNone disables cache completely.
	CacheModeNone CacheMode = "none"

	// CacheModeAll caches every freshly resolved location.
	CacheModeAll CacheMode = "all"

	// CacheModeSome reads from the cache but writes only those
	// locations which were requested with WithCacheWrite option.
	CacheModeSome CacheMode = "some"
)

const (
	DefaultWorkerPoolSize = 64
	DefaultCacheTTL       = 30 * time.Minute

	workerPoolExpireTime = time.Minute
)

// ParseCacheMode converts a string into CacheMode. Empty string means
// CacheModeNone.
func ParseCacheMode(value string) (CacheMode, error) {
	switch mode := CacheMode(value); mode {
	case "":
		return CacheModeNone, nil
	case CacheModeNone, CacheModeAll, CacheModeSome:
		return mode, nil
	}

	return "", &ConfigurationError{
		Param:   "cache.mode",
		Message: fmt.Sprintf("unknown cache mode %q", value),
	}
}

// ResolverOpts defines a set of options for NewResolver.
type ResolverOpts struct {
	// Provider is a provider which is used to resolve IP addresses.
	// It is mandatory.
	Provider Provider

	// Cache is mandatory if CacheMode is not CacheModeNone.
	Cache     *Cache
	CacheMode CacheMode
	CacheTTL  time.Duration

	// DefaultLocation overrides fields of the built-in default
	// location.
	DefaultLocation Location

	// ClientIP is an address used if lookup is done without IP. If
	// empty, it is detected from CGI environment variables.
	ClientIP string

	// IncludeCurrency enables currency lookups for locations which
	// providers have returned without currency.
	IncludeCurrency bool

	// LogFailures enables logging of provider errors.
	LogFailures bool

	Logger         Logger
	Metrics        *Metrics
	WorkerPoolSize int
}

type lookupOptions struct {
	writeCache bool
}

// LookupOption customizes a single lookup.
type LookupOption func(*lookupOptions)

// WithCacheWrite asks resolver to write a result into the cache if cache
// mode is CacheModeSome.
func WithCacheWrite() LookupOption {
	return func(o *lookupOptions) {
		o.writeCache = true
	}
}

// Resolver is a main entity of geolib. It resolves IP addresses with a
// given provider, consults with the cache and falls back to a default
// location if something goes wrong.
//
// All its state is initialized in NewResolver and never changes
// afterwards so it is safe to use it concurrently.
type Resolver struct {
	provider        Provider
	cache           *Cache
	cacheMode       CacheMode
	cacheTTL        time.Duration
	defaultLocation Location
	clientIP        string
	includeCurrency bool
	logFailures     bool
	logger          Logger
	metrics         *Metrics
	usageStats      *UsageStats
	workerPool      *ants.PoolWithFunc
	rwmutex         sync.RWMutex
	closeOnce       sync.Once
	closed          bool
}

type locateTask struct {
	ctx    context.Context
	ip     string
	opts   []LookupOption
	result *Location
	wg     *sync.WaitGroup
}

// GetLocation resolves a given IP address. If ip is empty, an address
// of the current client is used. This method never fails: if location
// cannot be resolved, it returns a default location.
func (r *Resolver) GetLocation(ctx context.Context, ip string, opts ...LookupOption) Location {
	options := lookupOptions{}

	for _, opt := range opts {
		opt(&options)
	}

	if ip == "" {
		ip = r.clientIP
	}

	location := r.find(ctx, ip)

	if r.shouldCache(location, options) {
		r.cache.Set(ip, location, r.cacheTTL) // nolint: errcheck
	}

	return location
}

// LocateAll resolves a list of IP addresses concurrently using a worker
// pool. Results have the same order as ips.
func (r *Resolver) LocateAll(ctx context.Context, ips []string, opts ...LookupOption) ([]Location, error) {
	r.rwmutex.RLock()
	defer r.rwmutex.RUnlock()

	if r.closed {
		return nil, ErrResolverShutdown
	}

	rv := make([]Location, len(ips))
	wg := &sync.WaitGroup{}

	var err error

	for i := range ips {
		if ctx.Err() != nil {
			err = ErrContextIsClosed

			break
		}

		wg.Add(1)

		task := &locateTask{
			ctx:    ctx,
			ip:     ips[i],
			opts:   opts,
			result: &rv[i],
			wg:     wg,
		}

		if invokeErr := r.workerPool.Invoke(task); invokeErr != nil {
			wg.Done()

			err = fmt.Errorf("cannot schedule a task: %w", invokeErr)

			break
		}
	}

	wg.Wait()

	if err != nil {
		return nil, err
	}

	return rv, nil
}

// Update refreshes a dataset of the provider. If provider does not
// support updates, it returns a message about that and no error.
func (r *Resolver) Update(ctx context.Context) (string, error) {
	name := r.provider.Name()

	updater, ok := r.provider.(Updater)
	if !ok {
		return fmt.Sprintf("the current service %q does not support updating", name), nil
	}

	msg, err := updater.Update(ctx)

	r.metrics.update(name, err)

	if err != nil {
		r.logger.UpdateError(name, err)

		return "", fmt.Errorf("cannot update %s: %w", name, err)
	}

	r.usageStats.Updated()
	r.logger.UpdateInfo(name, msg)

	return msg, nil
}

// FlushCache removes all items stored under the tags of the cache. It
// returns ErrCacheTagsNotSupported if the cache is not tagged.
func (r *Resolver) FlushCache() error {
	if r.cache == nil || !r.cache.SupportsTags() {
		return ErrCacheTagsNotSupported
	}

	return r.cache.Flush()
}

// CurrentClientIP returns an address which is used for lookups without
// IP.
func (r *Resolver) CurrentClientIP() string {
	return r.clientIP
}

// CurrencyFor returns a currency code for a given country code. If
// currencies are disabled, UnknownPlaceholder is returned.
func (r *Resolver) CurrencyFor(isoCode string) string {
	if !r.includeCurrency {
		return UnknownPlaceholder
	}

	return CurrencyFor(isoCode)
}

// Cache returns a cache of the resolver. It can be nil.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Provider returns an active provider.
func (r *Resolver) Provider() Provider {
	return r.provider
}

// UsageStats returns statistics of the active provider.
func (r *Resolver) UsageStats() *UsageStats {
	return r.usageStats
}

// DefaultLocation returns a copy of the default location.
func (r *Resolver) DefaultLocation() Location {
	return r.defaultLocation.clone()
}

// Shutdown stops worker pool and closes the provider if it is
// closeable.
func (r *Resolver) Shutdown() {
	r.rwmutex.Lock()
	defer r.rwmutex.Unlock()

	r.closeOnce.Do(func() {
		r.closed = true

		r.workerPool.Release()

		if closer, ok := r.provider.(io.Closer); ok {
			closer.Close() // nolint: errcheck
		}
	})
}

func (r *Resolver) find(ctx context.Context, ip string) Location {
	if r.cacheMode != CacheModeNone {
		location, ok := r.cache.Get(ip)

		r.metrics.cache(ok)

		if ok {
			r.usageStats.CacheHit()

			location.Cached = true

			return location
		}
	}

	if !IsValidIP(ip) {
		r.usageStats.Fallback()

		return r.DefaultLocation()
	}

	name := r.provider.Name()
	location, err := r.provider.Locate(ctx, ip)

	r.metrics.lookup(name, err)
	r.usageStats.Used(err)

	if err != nil {
		if r.logFailures {
			r.logger.LookupError(ip, name, err)
		}

		r.usageStats.Fallback()

		return r.DefaultLocation()
	}

	return r.enrich(ip, location)
}

func (r *Resolver) enrich(ip string, location Location) Location {
	if location.IP == "" {
		location.IP = ip
	}

	if location.Country == "" {
		location.Country = CountryName(location.ISOCode)
	}

	if location.Currency == "" {
		location.Currency = r.CurrencyFor(location.ISOCode)
	}

	if location.Continent == "" {
		location.Continent = UnknownPlaceholder
	}

	location.Default = false
	location.Cached = false

	return location
}

func (r *Resolver) shouldCache(location Location, options lookupOptions) bool {
	if !location.Cacheable() {
		return false
	}

	switch r.cacheMode {
	case CacheModeAll:
		return true
	case CacheModeSome:
		return options.writeCache
	}

	return false
}

// NewResolver creates a new resolver and boots a given provider. All
// errors returned by this function are fatal.
func NewResolver(ctx context.Context, opts ResolverOpts) (*Resolver, error) {
	if opts.Provider == nil {
		return nil, &ConfigurationError{
			Param:   "service",
			Message: "provider is not set",
		}
	}

	cacheMode, err := ParseCacheMode(string(opts.CacheMode))
	if err != nil {
		return nil, err
	}

	if cacheMode != CacheModeNone && opts.Cache == nil {
		return nil, &ConfigurationError{
			Param:   "cache",
			Message: fmt.Sprintf("cache mode %s requires a cache", cacheMode),
		}
	}

	if err := opts.Provider.Boot(ctx); err != nil {
		return nil, fmt.Errorf("cannot boot provider %s: %w", opts.Provider.Name(), err)
	}

	rv := &Resolver{
		provider:        opts.Provider,
		cache:           opts.Cache,
		cacheMode:       cacheMode,
		cacheTTL:        opts.CacheTTL,
		clientIP:        opts.ClientIP,
		includeCurrency: opts.IncludeCurrency,
		logFailures:     opts.LogFailures,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
		usageStats: &UsageStats{
			Name: opts.Provider.Name(),
		},
	}

	if rv.cacheTTL <= 0 {
		rv.cacheTTL = DefaultCacheTTL
	}

	if rv.logger == nil {
		rv.logger = noopLogger{}
	}

	if rv.clientIP == "" {
		rv.clientIP = NewEnvClientIPDetector().Detect()
	}

	rv.defaultLocation = DefaultLocation().Merge(opts.DefaultLocation)
	rv.defaultLocation.IP = rv.clientIP
	rv.defaultLocation.Default = true
	rv.defaultLocation.Cached = false

	poolSize := opts.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = DefaultWorkerPoolSize
	}

	pool, err := ants.NewPoolWithFunc(poolSize, func(arg interface{}) {
		task := arg.(*locateTask)

		defer task.wg.Done()

		*task.result = rv.GetLocation(task.ctx, task.ip, task.opts...)
	}, ants.WithExpiryDuration(workerPoolExpireTime))
	if err != nil {
		return nil, fmt.Errorf("cannot create a worker pool: %w", err)
	}

	rv.workerPool = pool

	return rv, nil
}
