package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/9seconds/geolocator/geolib"
)

type ipfinderResponse struct {
	Success       *bool                  `json:"success"`
	Error         map[string]interface{} `json:"error"`
	CountryCode   string                 `json:"country_code"`
	CountryName   string                 `json:"country_name"`
	City          string                 `json:"city"`
	RegionCode    string                 `json:"region_code"`
	RegionName    string                 `json:"region_name"`
	Zip           string                 `json:"zip"`
	Latitude      float64                `json:"latitude"`
	Longitude     float64                `json:"longitude"`
	ContinentCode string                 `json:"continent_code"`
}

type ipfinderProvider struct {
	client geolib.HTTPClient
	key    string
}

func (i ipfinderProvider) Name() string {
	return NameIPFinder
}

func (i ipfinderProvider) Boot(_ context.Context) error {
	return nil
}

func (i ipfinderProvider) Locate(ctx context.Context, ip string) (geolib.Location, error) {
	rv := geolib.Location{}
	resp := ipfinderResponse{}

	if err := getJSON(ctx, i.client, i.buildURL(ip), &resp); err != nil {
		return rv, err
	}

	if resp.Success != nil && !*resp.Success {
		return rv, &geolib.RequestFailedError{
			StatusCode: http.StatusOK,
			Payload: map[string]interface{}{
				"success": false,
				"error":   resp.Error,
			},
			Err: fmt.Errorf("ipfinder.io has responded with error: %v", resp.Error["info"]),
		}
	}

	rv.IP = ip
	rv.ISOCode = resp.CountryCode
	rv.Country = resp.CountryName
	rv.City = resp.City
	rv.State = resp.RegionCode
	rv.StateName = resp.RegionName
	rv.PostalCode = resp.Zip
	rv.Latitude = resp.Latitude
	rv.Longitude = resp.Longitude
	rv.Continent = resp.ContinentCode

	return rv, nil
}

func (i ipfinderProvider) buildURL(ip string) string {
	queryValues := url.Values{}

	queryValues.Set("token", i.key)

	urlStruct := url.URL{
		Scheme:   "https",
		Host:     "api.ipfinder.io",
		Path:     "/v1/" + ip,
		RawQuery: queryValues.Encode(),
	}

	return urlStruct.String()
}

// NewIPFinder returns a provider which uses ipfinder.io.
//
//   Identifier: ipfinder
//   Website: https://ipfinder.io
//   Parameters: key (required)
func NewIPFinder(client geolib.HTTPClient, params Parameters) (geolib.Provider, error) {
	if err := params.require(NameIPFinder, "key"); err != nil {
		return nil, err
	}

	return ipfinderProvider{
		client: client,
		key:    params.Get("key", ""),
	}, nil
}
