package geolib

import (
	"context"
	"net/http"
	"time"
)

// HTTPClient is an interface of the client which is used by providers
// to access remote services.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Provider is an interface for all geolocation backends.
//
// Boot is called once before any lookup. This is a place to open
// databases or load auxiliary tables. Locate should never return
// partially filled records with nil errors: if something is wrong, it
// has to return an error.
type Provider interface {
	Name() string
	Boot(context.Context) error
	Locate(context.Context, string) (Location, error)
}

// Updater is implemented by providers which have datasets that could
// be refreshed. Update returns a human-readable status message.
type Updater interface {
	Update(context.Context) (string, error)
}

// Logger is an interface for a logger which is used by Resolver.
type Logger interface {
	LookupError(ip, provider string, err error)
	UpdateInfo(provider, msg string)
	UpdateError(provider string, err error)
}

// Store is a key/value storage used by Cache.
//
// Stores which do not support tags return themselves from Tags method.
// Flush of a tagged store removes only those items which were stored
// under the same set of tags.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte, ttl time.Duration) error
	Flush() error
	SupportsTags() bool
	Tags(tags []string) Store
}

type noopLogger struct{}

func (n noopLogger) LookupError(_, _ string, _ error) {}
func (n noopLogger) UpdateInfo(_, _ string)          {}
func (n noopLogger) UpdateError(_ string, _ error)   {}
