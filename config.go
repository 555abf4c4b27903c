package main

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/hjson/hjson-go/v4"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	DefaultListen                          = "127.0.0.1:8000"
	DefaultHTTPTimeout                     = 10 * time.Second
	DefaultRateLimitInterval               = 100 * time.Millisecond
	DefaultRateLimitBurst                  = 10
	DefaultCircuitBreakerOpenThreshold     = 5
	DefaultCircuitBreakerHalfOpenTimeout   = time.Minute
	DefaultCircuitBreakerResetFailuresTime = 20 * time.Second
	DefaultCacheStore                      = "memory"
	DefaultCacheSize                       = 10000

	envPrefix = "GEOLOCATOR"
)

// durations have to be strings like "30m". mapstructure treats bare
// numbers as nanoseconds.
var durationKeys = []string{
	"cache.ttl",
	"update_every",
	"http.timeout",
	"http.rate_limit_interval",
	"http.circuit_breaker_half_open_timeout",
	"http.circuit_breaker_reset_failures_timeout",
}

const (
	storeMemory = "memory"
	storeLRU    = "lru"
	storeTagged = "tagged"
	storeBadger = "badger"
)

type config struct {
	Service         string                       `mapstructure:"service"`
	Services        map[string]map[string]string `mapstructure:"services"`
	Cache           configCache                  `mapstructure:"cache"`
	DefaultLocation configLocation               `mapstructure:"default_location"`
	ClientIP        string                       `mapstructure:"client_ip"`
	IncludeCurrency bool                         `mapstructure:"include_currency"`
	LogFailures     bool                         `mapstructure:"log_failures"`
	Listen          string                       `mapstructure:"listen"`
	BasicAuth       configBasicAuth              `mapstructure:"basic_auth"`
	UpdateEvery     time.Duration                `mapstructure:"update_every"`
	HTTP            configHTTP                   `mapstructure:"http"`
	WorkerPoolSize  uint                         `mapstructure:"worker_pool_size"`
}

func (c config) GetListen() string {
	if c.Listen == "" {
		return DefaultListen
	}

	return c.Listen
}

func (c config) GetWorkerPoolSize() int {
	if c.WorkerPoolSize == 0 {
		return geolib.DefaultWorkerPoolSize
	}

	return int(c.WorkerPoolSize)
}

// GetServiceParameters returns parameters of the selected service.
// Keys are case-insensitive in config files so they are lowercased.
func (c config) GetServiceParameters() map[string]string {
	rv := map[string]string{}

	for k, v := range c.Services[c.Service] {
		rv[strings.ToLower(k)] = v
	}

	return rv
}

type configCache struct {
	Mode      string        `mapstructure:"mode"`
	TTL       time.Duration `mapstructure:"ttl"`
	Tags      []string      `mapstructure:"tags"`
	Prefix    string        `mapstructure:"prefix"`
	Store     string        `mapstructure:"store"`
	Size      uint          `mapstructure:"size"`
	Directory string        `mapstructure:"directory"`
}

func (c configCache) GetMode() geolib.CacheMode {
	mode, _ := geolib.ParseCacheMode(c.Mode)

	return mode
}

func (c configCache) GetTTL() time.Duration {
	if c.TTL <= 0 {
		return geolib.DefaultCacheTTL
	}

	return c.TTL
}

func (c configCache) GetStore() string {
	if c.Store == "" {
		return DefaultCacheStore
	}

	return strings.ToLower(c.Store)
}

func (c configCache) GetSize() int {
	if c.Size == 0 {
		return DefaultCacheSize
	}

	return int(c.Size)
}

type configLocation struct {
	ISOCode    string  `mapstructure:"iso_code"`
	Country    string  `mapstructure:"country"`
	City       string  `mapstructure:"city"`
	State      string  `mapstructure:"state"`
	StateName  string  `mapstructure:"state_name"`
	PostalCode string  `mapstructure:"postal_code"`
	Latitude   float64 `mapstructure:"lat"`
	Longitude  float64 `mapstructure:"lon"`
	Timezone   string  `mapstructure:"timezone"`
	Continent  string  `mapstructure:"continent"`
	Currency   string  `mapstructure:"currency"`
}

func (c configLocation) ToLocation() geolib.Location {
	return geolib.Location{
		ISOCode:    c.ISOCode,
		Country:    c.Country,
		City:       c.City,
		State:      c.State,
		StateName:  c.StateName,
		PostalCode: c.PostalCode,
		Latitude:   c.Latitude,
		Longitude:  c.Longitude,
		Timezone:   c.Timezone,
		Continent:  c.Continent,
		Currency:   c.Currency,
	}
}

type configBasicAuth struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

func (c configBasicAuth) Enabled() bool {
	return c.User != "" || c.Password != ""
}

type configHTTP struct {
	Timeout                            time.Duration `mapstructure:"timeout"`
	RateLimitInterval                  time.Duration `mapstructure:"rate_limit_interval"`
	RateLimitBurst                     uint          `mapstructure:"rate_limit_burst"`
	CircuitBreakerOpenThreshold        uint32        `mapstructure:"circuit_breaker_open_threshold"`
	CircuitBreakerHalfOpenTimeout      time.Duration `mapstructure:"circuit_breaker_half_open_timeout"`
	CircuitBreakerResetFailuresTimeout time.Duration `mapstructure:"circuit_breaker_reset_failures_timeout"`
}

func (c configHTTP) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultHTTPTimeout
	}

	return c.Timeout
}

func (c configHTTP) GetRateLimitInterval() time.Duration {
	if c.RateLimitInterval <= 0 {
		return DefaultRateLimitInterval
	}

	return c.RateLimitInterval
}

func (c configHTTP) GetRateLimitBurst() int {
	if c.RateLimitBurst == 0 {
		return DefaultRateLimitBurst
	}

	return int(c.RateLimitBurst)
}

func (c configHTTP) GetCircuitBreakerOpenThreshold() uint32 {
	if c.CircuitBreakerOpenThreshold == 0 {
		return DefaultCircuitBreakerOpenThreshold
	}

	return c.CircuitBreakerOpenThreshold
}

func (c configHTTP) GetCircuitBreakerHalfOpenTimeout() time.Duration {
	if c.CircuitBreakerHalfOpenTimeout <= 0 {
		return DefaultCircuitBreakerHalfOpenTimeout
	}

	return c.CircuitBreakerHalfOpenTimeout
}

func (c configHTTP) GetCircuitBreakerResetFailuresTimeout() time.Duration {
	if c.CircuitBreakerResetFailuresTimeout <= 0 {
		return DefaultCircuitBreakerResetFailuresTime
	}

	return c.CircuitBreakerResetFailuresTimeout
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("service", "")
	v.SetDefault("client_ip", "")
	v.SetDefault("cache.mode", string(geolib.CacheModeNone))
	v.SetDefault("cache.ttl", geolib.DefaultCacheTTL)
	v.SetDefault("cache.tags", []string{})
	v.SetDefault("cache.prefix", "")
	v.SetDefault("cache.store", DefaultCacheStore)
	v.SetDefault("cache.size", DefaultCacheSize)
	v.SetDefault("cache.directory", "")
	v.SetDefault("include_currency", true)
	v.SetDefault("log_failures", true)
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("basic_auth.user", "")
	v.SetDefault("basic_auth.password", "")
	v.SetDefault("update_every", time.Duration(0))
	v.SetDefault("http.timeout", DefaultHTTPTimeout)
	v.SetDefault("http.rate_limit_interval", DefaultRateLimitInterval)
	v.SetDefault("http.rate_limit_burst", DefaultRateLimitBurst)
	v.SetDefault("http.circuit_breaker_open_threshold", DefaultCircuitBreakerOpenThreshold)
	v.SetDefault("http.circuit_breaker_half_open_timeout", DefaultCircuitBreakerHalfOpenTimeout)
	v.SetDefault("http.circuit_breaker_reset_failures_timeout", DefaultCircuitBreakerResetFailuresTime)
	v.SetDefault("worker_pool_size", geolib.DefaultWorkerPoolSize)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func parseConfig(fs afero.Fs, path string) (*config, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}

	rawMap := map[string]interface{}{}

	if err := hjson.Unmarshal(content, &rawMap); err != nil {
		return nil, fmt.Errorf("cannot parse hjson: %w", err)
	}

	v := newViper()

	if err := v.MergeConfigMap(rawMap); err != nil {
		return nil, fmt.Errorf("cannot merge config: %w", err)
	}

	if err := validateDurations(v); err != nil {
		return nil, err
	}

	conf := &config{}

	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}

	if err := validateConfig(conf); err != nil {
		return nil, err
	}

	return conf, nil
}

func validateDurations(v *viper.Viper) error {
	for _, key := range durationKeys {
		switch value := v.Get(key).(type) {
		case float64, int, int64, uint, uint64:
			return &geolib.ConfigurationError{
				Param:   key,
				Message: fmt.Sprintf("duration %v has no unit, use a string like \"30m\"", value),
			}
		}
	}

	return nil
}

func validateConfig(conf *config) error {
	conf.Service = strings.ToLower(strings.TrimSpace(conf.Service))

	if conf.Service == "" {
		return &geolib.ConfigurationError{
			Param:   "service",
			Message: "service is not set",
		}
	}

	if _, err := geolib.ParseCacheMode(conf.Cache.Mode); err != nil {
		return err
	}

	switch conf.Cache.GetStore() {
	case storeMemory, storeLRU, storeTagged, storeBadger:
	default:
		return &geolib.ConfigurationError{
			Param:   "cache.store",
			Message: fmt.Sprintf("unknown store %q", conf.Cache.Store),
		}
	}

	if _, _, err := net.SplitHostPort(conf.GetListen()); err != nil {
		return &geolib.ConfigurationError{
			Param:   "listen",
			Message: fmt.Sprintf("incorrect host:port %q: %v", conf.GetListen(), err),
		}
	}

	if conf.ClientIP != "" && net.ParseIP(conf.ClientIP) == nil {
		return &geolib.ConfigurationError{
			Param:   "client_ip",
			Message: fmt.Sprintf("incorrect IP address %q", conf.ClientIP),
		}
	}

	return nil
}
