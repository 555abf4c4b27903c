package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/9seconds/geolocator/geolib"
)

type ipgeolocationResponse struct {
	Message       string `json:"message"`
	CountryCode2  string `json:"country_code2"`
	CountryName   string `json:"country_name"`
	City          string `json:"city"`
	StateCode     string `json:"state_code"`
	StateProv     string `json:"state_prov"`
	Zipcode       string `json:"zipcode"`
	Latitude      string `json:"latitude"`
	Longitude     string `json:"longitude"`
	ContinentCode string `json:"continent_code"`
	TimeZone      struct {
		Name string `json:"name"`
	} `json:"time_zone"`
	Currency struct {
		Code string `json:"code"`
	} `json:"currency"`
}

type ipgeolocationProvider struct {
	client geolib.HTTPClient
	key    string
}

func (i ipgeolocationProvider) Name() string {
	return NameIPGeolocation
}

func (i ipgeolocationProvider) Boot(_ context.Context) error {
	return nil
}

func (i ipgeolocationProvider) Locate(ctx context.Context, ip string) (geolib.Location, error) {
	rv := geolib.Location{}
	resp := ipgeolocationResponse{}

	if err := getJSON(ctx, i.client, i.buildURL(ip), &resp); err != nil {
		return rv, err
	}

	if resp.Message != "" && resp.CountryCode2 == "" {
		return rv, &geolib.RequestFailedError{
			StatusCode: http.StatusOK,
			Payload: map[string]interface{}{
				"message": resp.Message,
			},
			Err: fmt.Errorf("ipgeolocation.io has responded with error: %s", resp.Message),
		}
	}

	rv.IP = ip
	rv.ISOCode = resp.CountryCode2
	rv.Country = resp.CountryName
	rv.City = resp.City
	rv.State = resp.StateCode
	rv.StateName = resp.StateProv
	rv.PostalCode = resp.Zipcode
	rv.Latitude, _ = strconv.ParseFloat(resp.Latitude, 64)
	rv.Longitude, _ = strconv.ParseFloat(resp.Longitude, 64)
	rv.Timezone = resp.TimeZone.Name
	rv.Continent = resp.ContinentCode
	rv.Currency = resp.Currency.Code

	return rv, nil
}

func (i ipgeolocationProvider) buildURL(ip string) string {
	queryValues := url.Values{}

	queryValues.Set("apiKey", i.key)
	queryValues.Set("ip", ip)

	urlStruct := url.URL{
		Scheme:   "https",
		Host:     "api.ipgeolocation.io",
		Path:     "/ipgeo",
		RawQuery: queryValues.Encode(),
	}

	return urlStruct.String()
}

// NewIPGeolocation returns a provider which uses ipgeolocation.io.
//
//   Identifier: ipgeolocation
//   Website: https://ipgeolocation.io
//   Parameters: key (required)
//
// Coordinates are sent as strings, incorrect values become zeroes.
func NewIPGeolocation(client geolib.HTTPClient, params Parameters) (geolib.Provider, error) {
	if err := params.require(NameIPGeolocation, "key"); err != nil {
		return nil, err
	}

	return ipgeolocationProvider{
		client: client,
		key:    params.Get("key", ""),
	}, nil
}
