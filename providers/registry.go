package providers

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/9seconds/geolocator/geolib"
	"github.com/xrash/smetrics"
)

// Parameters is a set of provider settings from configuration file.
type Parameters map[string]string

// Get returns a value of the parameter or defaultValue if it is empty.
func (p Parameters) Get(key, defaultValue string) string {
	if value := strings.TrimSpace(p[key]); value != "" {
		return value
	}

	return defaultValue
}

// List returns a comma-separated value as a list. Empty chunks are
// skipped.
func (p Parameters) List(key string, defaultValue []string) []string {
	rv := []string{}

	for _, chunk := range strings.Split(p[key], ",") {
		if chunk = strings.TrimSpace(chunk); chunk != "" {
			rv = append(rv, chunk)
		}
	}

	if len(rv) == 0 {
		return defaultValue
	}

	return rv
}

// Bool returns a boolean value of the parameter. Incorrect values are
// treated as false.
func (p Parameters) Bool(key string) bool {
	value, _ := strconv.ParseBool(strings.TrimSpace(p[key]))

	return value
}

func (p Parameters) require(provider string, keys ...string) error {
	for _, key := range keys {
		if p.Get(key, "") == "" {
			return &geolib.ConfigurationError{
				Provider: provider,
				Param:    key,
				Message:  "parameter is required",
			}
		}
	}

	return nil
}

// Constructor builds a new provider from its parameters.
type Constructor func(geolib.HTTPClient, Parameters) (geolib.Provider, error)

// Constructors maps names of providers to their constructors.
var Constructors = map[string]Constructor{
	NameIPAPI:           NewIPAPI,
	NameIPData:          NewIPData,
	NameIPFinder:        NewIPFinder,
	NameIPGeolocation:   NewIPGeolocation,
	NameMaxmindDatabase: NewMaxmindDatabase,
	NameMaxmindAPI:      NewMaxmindAPI,
}

// Names returns a sorted list of registered providers.
func Names() []string {
	rv := make([]string, 0, len(Constructors))

	for k := range Constructors {
		rv = append(rv, k)
	}

	sort.Strings(rv)

	return rv
}

// New creates a provider with a given name. If name is unknown, the
// error matches both ErrUnknownProvider and geolib.ConfigurationError.
func New(name string, client geolib.HTTPClient, params Parameters) (geolib.Provider, error) {
	constructor, ok := Constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrUnknownProvider, &geolib.ConfigurationError{
			Param:   "service",
			Message: fmt.Sprintf("%q is unknown, did you mean %q?", name, suggestName(name)),
		})
	}

	if params == nil {
		params = Parameters{}
	}

	return constructor(client, params)
}

func suggestName(name string) string {
	rv := ""
	bestDistance := -1

	for _, v := range Names() {
		distance := smetrics.WagnerFischer(strings.ToLower(name), v, 1, 1, 2)
		if bestDistance < 0 || distance < bestDistance {
			rv = v
			bestDistance = distance
		}
	}

	return rv
}
