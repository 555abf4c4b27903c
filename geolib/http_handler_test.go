package geolib_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type httpResultJSON struct {
	Result geolib.Location `json:"result"`
}

type httpResultsJSON struct {
	Results []geolib.Location `json:"results"`
}

type httpErrorJSON struct {
	Error struct {
		Message string `json:"message"`
		Context string `json:"context"`
	} `json:"error"`
}

type HTTPHandlerTestSuite struct {
	suite.Suite

	provider *ProviderMock
	store    geolib.Store
	opts     geolib.ResolverOpts
}

func (suite *HTTPHandlerTestSuite) SetupTest() {
	suite.provider = &ProviderMock{}
	suite.store = geolib.NewTaggedStore(time.Minute)

	suite.provider.On("Name").Return("mock").Maybe()
	suite.provider.On("Boot", mock.Anything).Return(nil).Maybe()

	suite.opts = geolib.ResolverOpts{
		Provider:        suite.provider,
		Cache:           geolib.NewCache(suite.store, []string{"geoip"}, ""),
		CacheMode:       geolib.CacheModeSome,
		CacheTTL:        time.Minute,
		ClientIP:        "81.2.69.142",
		IncludeCurrency: true,
	}
}

func (suite *HTTPHandlerTestSuite) TearDownTest() {
	suite.provider.AssertExpectations(suite.T())
}

func (suite *HTTPHandlerTestSuite) Serve(req *http.Request) *httptest.ResponseRecorder {
	resolver, err := geolib.NewResolver(context.Background(), suite.opts)

	suite.Require().NoError(err)

	defer resolver.Shutdown()

	rec := httptest.NewRecorder()

	geolib.NewHTTPHandler(resolver).ServeHTTP(rec, req)

	return rec
}

func (suite *HTTPHandlerTestSuite) Decode(rec *httptest.ResponseRecorder, target interface{}) {
	suite.Equal("application/json", rec.Header().Get("Content-Type"))
	suite.NoError(json.NewDecoder(rec.Body).Decode(target))
}

func (suite *HTTPHandlerTestSuite) TestGetIP() {
	suite.provider.
		On("Locate", mock.Anything, "81.2.69.142").
		Return(geolib.Location{ISOCode: "GB", City: "London"}, nil).
		Once()

	rec := suite.Serve(httptest.NewRequest(http.MethodGet, "/81.2.69.142", nil))

	suite.Equal(http.StatusOK, rec.Code)

	resp := httpResultJSON{}
	suite.Decode(rec, &resp)

	suite.Equal("81.2.69.142", resp.Result.IP)
	suite.Equal("United Kingdom", resp.Result.Country)
	suite.Equal("London", resp.Result.City)
	suite.Equal("GBP", resp.Result.Currency)
	suite.False(resp.Result.Default)
}

func (suite *HTTPHandlerTestSuite) TestGetIncorrectIP() {
	rec := suite.Serve(httptest.NewRequest(http.MethodGet, "/not-an-ip", nil))

	suite.Equal(http.StatusBadRequest, rec.Code)

	resp := httpErrorJSON{}
	suite.Decode(rec, &resp)

	suite.Equal("Incorrect IP address", resp.Error.Message)
	suite.provider.AssertNotCalled(suite.T(), "Locate", mock.Anything, mock.Anything)
}

func (suite *HTTPHandlerTestSuite) TestGetPrivateIP() {
	rec := suite.Serve(httptest.NewRequest(http.MethodGet, "/10.0.0.1", nil))

	suite.Equal(http.StatusOK, rec.Code)

	resp := httpResultJSON{}
	suite.Decode(rec, &resp)

	suite.True(resp.Result.Default)
	suite.provider.AssertNotCalled(suite.T(), "Locate", mock.Anything, mock.Anything)
}

func (suite *HTTPHandlerTestSuite) TestGetSelf() {
	suite.provider.
		On("Locate", mock.Anything, "203.0.113.9").
		Return(geolib.Location{ISOCode: "US"}, nil).
		Once()

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	req.Header.Set("X-Forwarded-For", "10.0.0.5, 203.0.113.9")

	rec := suite.Serve(req)

	suite.Equal(http.StatusOK, rec.Code)

	resp := httpResultJSON{}
	suite.Decode(rec, &resp)

	suite.Equal("203.0.113.9", resp.Result.IP)
	suite.Equal("USD", resp.Result.Currency)
}

func (suite *HTTPHandlerTestSuite) TestPostBadContentType() {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ips": ["1.1.1.1"]}`))

	req.Header.Set("Content-Type", "text/plain")

	rec := suite.Serve(req)

	suite.Equal(http.StatusUnsupportedMediaType, rec.Code)
}

func (suite *HTTPHandlerTestSuite) TestPostBadSchema() {
	bodies := []string{
		`{}`,
		`{"ips": []}`,
		`{"ips": ["1.1.1.1"], "extra": 1}`,
		`{"ips": ["1.1.1.1"], "cache": "yes"}`,
		`[`,
	}

	for _, v := range bodies {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(v))

		req.Header.Set("Content-Type", "application/json")

		rec := suite.Serve(req)

		suite.Equal(http.StatusBadRequest, rec.Code, v)
	}
}

func (suite *HTTPHandlerTestSuite) TestPost() {
	suite.provider.
		On("Locate", mock.Anything, "81.2.69.142").
		Return(geolib.Location{ISOCode: "GB"}, nil).
		Once()
	suite.provider.
		On("Locate", mock.Anything, "8.8.8.8").
		Return(geolib.Location{ISOCode: "US"}, nil).
		Once()

	req := httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader(`{"ips": ["81.2.69.142", "8.8.8.8"], "cache": true}`))

	req.Header.Set("Content-Type", "application/json")

	rec := suite.Serve(req)

	suite.Equal(http.StatusOK, rec.Code)

	resp := httpResultsJSON{}
	suite.Decode(rec, &resp)

	suite.Len(resp.Results, 2)
	suite.Equal("GB", resp.Results[0].ISOCode)
	suite.Equal("US", resp.Results[1].ISOCode)

	cache := geolib.NewCache(suite.store, []string{"geoip"}, "")

	_, ok := cache.Get("8.8.8.8")

	suite.True(ok)
}

func (suite *HTTPHandlerTestSuite) TestStats() {
	rec := suite.Serve(httptest.NewRequest(http.MethodGet, "/stats", nil))

	suite.Equal(http.StatusOK, rec.Code)

	resp := struct {
		Result usageStatsJSON `json:"result"`
	}{}
	suite.Decode(rec, &resp)

	suite.Equal("mock", resp.Result.Name)
}

func (suite *HTTPHandlerTestSuite) TestDeleteCache() {
	rec := suite.Serve(httptest.NewRequest(http.MethodDelete, "/cache", nil))

	suite.Equal(http.StatusNoContent, rec.Code)
}

func (suite *HTTPHandlerTestSuite) TestDeleteCacheUntagged() {
	suite.opts.Cache = geolib.NewCache(geolib.NewLRUStore(10, time.Minute), []string{"geoip"}, "")

	rec := suite.Serve(httptest.NewRequest(http.MethodDelete, "/cache", nil))

	suite.Equal(http.StatusConflict, rec.Code)

	resp := httpErrorJSON{}
	suite.Decode(rec, &resp)

	suite.Equal(geolib.ErrCacheTagsNotSupported.Error(), resp.Error.Context)
}

func TestHTTPHandler(t *testing.T) {
	suite.Run(t, &HTTPHandlerTestSuite{})
}
