package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/9seconds/geolocator/geolib"
)

type maxmindAPINames map[string]string

type maxmindAPIResponse struct {
	City struct {
		Names maxmindAPINames `json:"names"`
	} `json:"city"`
	Continent struct {
		Code string `json:"code"`
	} `json:"continent"`
	Country struct {
		IsoCode string          `json:"iso_code"`
		Names   maxmindAPINames `json:"names"`
	} `json:"country"`
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		TimeZone  string  `json:"time_zone"`
	} `json:"location"`
	Postal struct {
		Code string `json:"code"`
	} `json:"postal"`
	Subdivisions []struct {
		IsoCode string          `json:"iso_code"`
		Names   maxmindAPINames `json:"names"`
	} `json:"subdivisions"`
}

func (m *maxmindAPIResponse) record() maxmindRecord {
	rv := maxmindRecord{
		countryCode:   m.Country.IsoCode,
		countryNames:  m.Country.Names,
		cityNames:     m.City.Names,
		postalCode:    m.Postal.Code,
		latitude:      m.Location.Latitude,
		longitude:     m.Location.Longitude,
		timezone:      m.Location.TimeZone,
		continentCode: m.Continent.Code,
	}

	if size := len(m.Subdivisions); size > 0 {
		rv.subdivisionCode = m.Subdivisions[size-1].IsoCode
		rv.subdivisionNames = m.Subdivisions[size-1].Names
	}

	return rv
}

type maxmindAPIProvider struct {
	client     geolib.HTTPClient
	userID     string
	licenseKey string
	locales    []string
}

func (m maxmindAPIProvider) Name() string {
	return NameMaxmindAPI
}

func (m maxmindAPIProvider) Boot(_ context.Context) error {
	return nil
}

func (m maxmindAPIProvider) Locate(ctx context.Context, ip string) (geolib.Location, error) {
	resp := maxmindAPIResponse{}

	err := getJSON(ctx, m.client, m.buildURL(ip), &resp, func(req *http.Request) {
		req.SetBasicAuth(m.userID, m.licenseKey)
		req.Header.Set("Accept-Language", strings.Join(m.locales, ","))
	})
	if err != nil {
		return geolib.Location{}, m.convertError(ip, err)
	}

	return resp.record().toLocation(ip, m.locales), nil
}

func (m maxmindAPIProvider) convertError(ip string, err error) error {
	requestErr := &geolib.RequestFailedError{}

	if !errors.As(err, &requestErr) {
		return err
	}

	switch requestErr.Errors()["code"] {
	case "IP_ADDRESS_NOT_FOUND", "IP_ADDRESS_RESERVED":
		return fmt.Errorf("%w: %w", &geolib.AddressNotFoundError{IP: ip}, err)
	}

	return err
}

func (m maxmindAPIProvider) buildURL(ip string) string {
	urlStruct := url.URL{
		Scheme: "https",
		Host:   "geoip.maxmind.com",
		Path:   "/geoip/v2.1/city/" + ip,
	}

	return urlStruct.String()
}

// NewMaxmindAPI returns a provider which uses MaxMind GeoIP2 Precision
// web service.
//
//   Identifier: maxmind_api
//   Website: https://maxmind.com
//   Parameters: user_id (required), license_key (required), locales
//
// If more than one locale is set, locations have localizations for
// each of them.
func NewMaxmindAPI(client geolib.HTTPClient, params Parameters) (geolib.Provider, error) {
	if err := params.require(NameMaxmindAPI, "user_id", "license_key"); err != nil {
		return nil, err
	}

	return maxmindAPIProvider{
		client:     client,
		userID:     params.Get("user_id", ""),
		licenseKey: params.Get("license_key", ""),
		locales:    params.List("locales", maxmindDefaultLocales),
	}, nil
}
