package providers

import (
	"context"
	"net/url"

	"github.com/9seconds/geolocator/geolib"
)

type ipdataResponse struct {
	CountryCode   string  `json:"country_code"`
	CountryName   string  `json:"country_name"`
	City          string  `json:"city"`
	RegionCode    string  `json:"region_code"`
	Region        string  `json:"region"`
	Postal        string  `json:"postal"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ContinentCode string  `json:"continent_code"`
	TimeZone      struct {
		Name string `json:"name"`
	} `json:"time_zone"`
	Currency struct {
		Code string `json:"code"`
	} `json:"currency"`
}

type ipdataProvider struct {
	client geolib.HTTPClient
	key    string
}

func (i ipdataProvider) Name() string {
	return NameIPData
}

func (i ipdataProvider) Boot(_ context.Context) error {
	return nil
}

func (i ipdataProvider) Locate(ctx context.Context, ip string) (geolib.Location, error) {
	rv := geolib.Location{}
	resp := ipdataResponse{}

	if err := getJSON(ctx, i.client, i.buildURL(ip), &resp); err != nil {
		return rv, err
	}

	rv.IP = ip
	rv.ISOCode = resp.CountryCode
	rv.Country = resp.CountryName
	rv.City = resp.City
	rv.State = resp.RegionCode
	rv.StateName = resp.Region
	rv.PostalCode = resp.Postal
	rv.Latitude = resp.Latitude
	rv.Longitude = resp.Longitude
	rv.Timezone = resp.TimeZone.Name
	rv.Continent = resp.ContinentCode
	rv.Currency = resp.Currency.Code

	return rv, nil
}

func (i ipdataProvider) buildURL(ip string) string {
	queryValues := url.Values{}

	queryValues.Set("api-key", i.key)

	urlStruct := url.URL{
		Scheme:   "https",
		Host:     "api.ipdata.co",
		Path:     "/" + ip,
		RawQuery: queryValues.Encode(),
	}

	return urlStruct.String()
}

// NewIPData returns a provider which uses ipdata.co.
//
//   Identifier: ipdata
//   Website: https://ipdata.co
//   Parameters: key (required)
func NewIPData(client geolib.HTTPClient, params Parameters) (geolib.Provider, error) {
	if err := params.require(NameIPData, "key"); err != nil {
		return nil, err
	}

	return ipdataProvider{
		client: client,
		key:    params.Get("key", ""),
	}, nil
}
