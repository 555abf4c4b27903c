package providers

import (
	"github.com/9seconds/geolocator/geolib"
	"github.com/oschwald/geoip2-golang"
)

var maxmindDefaultLocales = []string{"en"}

// maxmindRecord is a common denominator of database records and web
// service responses.
type maxmindRecord struct {
	countryCode      string
	countryNames     map[string]string
	cityNames        map[string]string
	subdivisionCode  string
	subdivisionNames map[string]string
	postalCode       string
	latitude         float64
	longitude        float64
	timezone         string
	continentCode    string
}

func (m maxmindRecord) toLocation(ip string, locales []string) geolib.Location {
	rv := geolib.Location{
		IP:         ip,
		ISOCode:    m.countryCode,
		State:      m.subdivisionCode,
		PostalCode: m.postalCode,
		Latitude:   m.latitude,
		Longitude:  m.longitude,
		Timezone:   m.timezone,
		Continent:  m.continentCode,
	}

	if len(locales) == 0 {
		locales = maxmindDefaultLocales
	}

	rv.Country = m.countryNames[locales[0]]
	rv.City = m.cityNames[locales[0]]
	rv.StateName = m.subdivisionNames[locales[0]]

	if len(locales) > 1 {
		rv.Localizations = make(map[string]geolib.Localization, len(locales))

		for _, lang := range locales {
			rv.Localizations[lang] = geolib.Localization{
				Country:   m.countryNames[lang],
				StateName: m.subdivisionNames[lang],
				City:      m.cityNames[lang],
			}
		}
	}

	return rv
}

func newMaxmindRecordFromCity(city *geoip2.City) maxmindRecord {
	rv := maxmindRecord{
		countryCode:   city.Country.IsoCode,
		countryNames:  city.Country.Names,
		cityNames:     city.City.Names,
		postalCode:    city.Postal.Code,
		latitude:      city.Location.Latitude,
		longitude:     city.Location.Longitude,
		timezone:      city.Location.TimeZone,
		continentCode: city.Continent.Code,
	}

	if size := len(city.Subdivisions); size > 0 {
		rv.subdivisionCode = city.Subdivisions[size-1].IsoCode
		rv.subdivisionNames = city.Subdivisions[size-1].Names
	}

	return rv
}
