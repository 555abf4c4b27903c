package geolib

// UnknownPlaceholder is used for enrichment fields (currency and
// continent) which cannot be resolved.
const UnknownPlaceholder = "Unknown"

// DefaultClientIP is used as an IP address of a client if it is not
// possible to detect it.
const DefaultClientIP = "127.0.0.0"

// Localization contains names localized for some language.
type Localization struct {
	Country   string `json:"country"`
	StateName string `json:"state_name"`
	City      string `json:"city"`
}

// Location is a result of IP geolocation.
//
// Default is set only for fallback records, Cached is set only for
// records which were taken from the cache. Localizations are filled
// only by providers which support multiple locales.
type Location struct {
	IP            string                  `json:"ip"`
	ISOCode       string                  `json:"iso_code"`
	Country       string                  `json:"country"`
	City          string                  `json:"city"`
	State         string                  `json:"state"`
	StateName     string                  `json:"state_name"`
	PostalCode    string                  `json:"postal_code"`
	Latitude      float64                 `json:"lat"`
	Longitude     float64                 `json:"lon"`
	Timezone      string                  `json:"timezone"`
	Continent     string                  `json:"continent"`
	Currency      string                  `json:"currency"`
	Default       bool                    `json:"default"`
	Cached        bool                    `json:"cached"`
	Localizations map[string]Localization `json:"localizations,omitempty"`
}

// Cacheable tells if this record can be written into the cache.
func (l Location) Cacheable() bool {
	return !l.Default && !l.Cached
}

// Merge returns a copy of the location with non-empty fields of
// override applied on top. Flags are never taken from override.
func (l Location) Merge(override Location) Location {
	mergeString(&l.IP, override.IP)
	mergeString(&l.ISOCode, override.ISOCode)
	mergeString(&l.Country, override.Country)
	mergeString(&l.City, override.City)
	mergeString(&l.State, override.State)
	mergeString(&l.StateName, override.StateName)
	mergeString(&l.PostalCode, override.PostalCode)
	mergeString(&l.Timezone, override.Timezone)
	mergeString(&l.Continent, override.Continent)
	mergeString(&l.Currency, override.Currency)

	if override.Latitude != 0 {
		l.Latitude = override.Latitude
	}

	if override.Longitude != 0 {
		l.Longitude = override.Longitude
	}

	if len(override.Localizations) > 0 {
		l.Localizations = override.Localizations
	}

	return l.clone()
}

func (l Location) clone() Location {
	if l.Localizations == nil {
		return l
	}

	localizations := make(map[string]Localization, len(l.Localizations))

	for k, v := range l.Localizations {
		localizations[k] = v
	}

	l.Localizations = localizations

	return l
}

// DefaultLocation returns a built-in fallback location.
func DefaultLocation() Location {
	return Location{
		IP:         DefaultClientIP,
		ISOCode:    "US",
		Country:    "United States",
		City:       "New Haven",
		State:      "CT",
		StateName:  "Connecticut",
		PostalCode: "06510",
		Latitude:   41.31,
		Longitude:  -72.92,
		Timezone:   "America/New_York",
		Continent:  "NA",
		Currency:   "USD",
		Default:    true,
	}
}

func mergeString(target *string, value string) {
	if value != "" {
		*target = value
	}
}
