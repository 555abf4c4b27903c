package providers

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/9seconds/geolocator/geolib"
	"github.com/spf13/afero"
)

const (
	ipapiFields              = "49663"
	ipapiDefaultContinentURL = "https://dev.maxmind.com/static/csv/codes/country_continent.csv"
)

type ipapiResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	CountryCode string  `json:"countryCode"`
	Country     string  `json:"country"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	Zip         string  `json:"zip"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
}

type ipapiProvider struct {
	client        geolib.HTTPClient
	fs            afero.Fs
	key           string
	lang          string
	secure        bool
	continentPath string
	continentURL  string

	continents     map[string]string
	continentsLock sync.RWMutex
}

func (i *ipapiProvider) Name() string {
	return NameIPAPI
}

// Boot loads a table of continents. Absent file means there are no
// continents.
func (i *ipapiProvider) Boot(_ context.Context) error {
	if i.continentPath == "" {
		return nil
	}

	exists, err := geolib.FileExists(i.fs, i.continentPath)
	if err != nil || !exists {
		return err
	}

	data, err := afero.ReadFile(i.fs, i.continentPath)
	if err != nil {
		return fmt.Errorf("cannot read continent file: %w", err)
	}

	continents := map[string]string{}

	if err := json.Unmarshal(data, &continents); err != nil {
		return fmt.Errorf("cannot parse continent file: %w", err)
	}

	i.setContinents(continents)

	return nil
}

func (i *ipapiProvider) Locate(ctx context.Context, ip string) (geolib.Location, error) {
	rv := geolib.Location{}
	resp := ipapiResponse{}

	if err := getJSON(ctx, i.client, i.buildURL(ip), &resp); err != nil {
		return rv, err
	}

	if resp.Status != "success" {
		return rv, &geolib.RequestFailedError{
			StatusCode: http.StatusOK,
			Payload: map[string]interface{}{
				"status":  resp.Status,
				"message": resp.Message,
			},
			Err: fmt.Errorf("failed ip-api.com response: %s", resp.Message),
		}
	}

	rv.IP = ip
	rv.ISOCode = resp.CountryCode
	rv.Country = resp.Country
	rv.City = resp.City
	rv.State = resp.Region
	rv.StateName = resp.RegionName
	rv.PostalCode = resp.Zip
	rv.Latitude = resp.Lat
	rv.Longitude = resp.Lon
	rv.Timezone = resp.Timezone
	rv.Continent = i.getContinent(resp.CountryCode)

	return rv, nil
}

// Update downloads a fresh table of continents.
func (i *ipapiProvider) Update(ctx context.Context) (string, error) {
	if i.continentPath == "" {
		return "", &geolib.ConfigurationError{
			Provider: NameIPAPI,
			Param:    "continent_path",
			Message:  "parameter is required for updates",
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.continentURL, nil)
	if err != nil {
		return "", fmt.Errorf("cannot build a request: %w", err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cannot download continents: %w", err)
	}

	defer flushResponse(resp.Body)

	continents, err := i.parseContinents(resp.Body)
	if err != nil {
		return "", fmt.Errorf("cannot parse continents: %w", err)
	}

	err = geolib.WriteFileAtomically(i.fs, i.continentPath, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(continents)
	})
	if err != nil {
		return "", fmt.Errorf("cannot write continent file: %w", err)
	}

	i.setContinents(continents)

	return fmt.Sprintf("continent file (%s) updated", i.continentPath), nil
}

func (i *ipapiProvider) parseContinents(body io.Reader) (map[string]string, error) {
	reader := csv.NewReader(bufio.NewReader(body))
	rv := map[string]string{}

	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	if _, err := reader.Read(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("cannot read a header: %w", err)
	}

	for {
		record, err := reader.Read()

		switch {
		case errors.Is(err, io.EOF):
			return rv, nil
		case err != nil:
			return nil, fmt.Errorf("cannot read a line: %w", err)
		case len(record) < 2:
			continue
		}

		rv[record[0]] = record[1]
	}
}

func (i *ipapiProvider) getContinent(countryCode string) string {
	i.continentsLock.RLock()
	defer i.continentsLock.RUnlock()

	return i.continents[countryCode]
}

func (i *ipapiProvider) setContinents(continents map[string]string) {
	i.continentsLock.Lock()
	i.continents = continents
	i.continentsLock.Unlock()
}

func (i *ipapiProvider) buildURL(ip string) string {
	queryValues := url.Values{}

	queryValues.Set("fields", ipapiFields)
	queryValues.Set("lang", i.lang)

	urlStruct := url.URL{
		Scheme: "http",
		Host:   "ip-api.com",
		Path:   "/json/" + ip,
	}

	if i.key != "" {
		urlStruct.Host = "pro.ip-api.com"

		queryValues.Set("key", i.key)

		if i.secure {
			urlStruct.Scheme = "https"
		}
	}

	urlStruct.RawQuery = queryValues.Encode()

	return urlStruct.String()
}

// NewIPAPI returns a provider which uses ip-api.com.
//
//   Identifier: ipapi
//   Website: https://ip-api.com
//   Parameters: key, secure, lang, continent_path, continent_url
//
// Free tier is rate limited and works only over plain HTTP. If key is
// set, pro endpoint is used. ip-api.com does not return continents so
// they are taken from a local JSON file which is refreshed by Update.
func NewIPAPI(client geolib.HTTPClient, params Parameters) (geolib.Provider, error) {
	return &ipapiProvider{
		client:        client,
		fs:            afero.NewOsFs(),
		key:           params.Get("key", ""),
		lang:          params.Get("lang", "en"),
		secure:        params.Bool("secure"),
		continentPath: params.Get("continent_path", ""),
		continentURL:  params.Get("continent_url", ipapiDefaultContinentURL),
		continents:    map[string]string{},
	}, nil
}
