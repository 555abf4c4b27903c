package geolib_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/mccutchen/go-httpbin/v2/httpbin"
	"github.com/stretchr/testify/suite"
)

type HTTPClientTestSuite struct {
	suite.Suite

	httpbinEndpoint *httptest.Server
	c               geolib.HTTPClient
}

func (suite *HTTPClientTestSuite) SetupSuite() {
	suite.httpbinEndpoint = httptest.NewServer(httpbin.New())
}

func (suite *HTTPClientTestSuite) TearDownSuite() {
	suite.httpbinEndpoint.Close()
}

func (suite *HTTPClientTestSuite) SetupTest() {
	suite.c = geolib.NewHTTPClient(suite.httpbinEndpoint.Client(),
		"geolocator-test",
		100*time.Millisecond,
		1,
		5,
		time.Minute,
		time.Minute)
}

func (suite *HTTPClientTestSuite) TestRateLimiter() {
	now := time.Now()
	wg := &sync.WaitGroup{}

	wg.Add(10)

	for i := 0; i < 10; i++ {
		go func() {
			defer wg.Done()

			req, _ := http.NewRequest(http.MethodGet, suite.httpbinEndpoint.URL+"/get", nil)
			resp, err := suite.c.Do(req)

			if suite.NoError(err) {
				resp.Body.Close()
				suite.Equal(http.StatusOK, resp.StatusCode)
			}
		}()
	}

	wg.Wait()

	suite.True(time.Since(now) > 700*time.Millisecond)
	suite.WithinDuration(now, time.Now(), 12*100*time.Millisecond)
}

func (suite *HTTPClientTestSuite) TestUserAgent() {
	req, _ := http.NewRequest(http.MethodGet, suite.httpbinEndpoint.URL+"/user-agent", nil)
	resp, err := suite.c.Do(req)

	suite.Require().NoError(err)

	defer resp.Body.Close()

	body := struct {
		UserAgent string `json:"user-agent"`
	}{}

	suite.NoError(json.NewDecoder(resp.Body).Decode(&body))
	suite.Equal("geolocator-test", body.UserAgent)
}

func (suite *HTTPClientTestSuite) TestBadStatus() {
	req, _ := http.NewRequest(http.MethodGet, suite.httpbinEndpoint.URL+"/status/500", nil)
	_, err := suite.c.Do(req)

	requestErr := &geolib.RequestFailedError{}

	suite.True(errors.As(err, &requestErr))
	suite.Equal(http.StatusInternalServerError, requestErr.StatusCode)
	suite.Empty(requestErr.Errors())
}

func (suite *HTTPClientTestSuite) TestCannotDial() {
	req, _ := http.NewRequest(http.MethodGet, suite.httpbinEndpoint.URL+"1"+"/status/500", nil)
	_, err := suite.c.Do(req)

	requestErr := &geolib.RequestFailedError{}

	suite.True(errors.As(err, &requestErr))
	suite.Equal(0, requestErr.StatusCode)
}

func (suite *HTTPClientTestSuite) TestErrorPayload() {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "invalid api key"}`)) // nolint: errcheck
	}))
	defer endpoint.Close()

	req, _ := http.NewRequest(http.MethodGet, endpoint.URL, nil)
	_, err := suite.c.Do(req)

	requestErr := &geolib.RequestFailedError{}

	suite.True(errors.As(err, &requestErr))
	suite.Equal(http.StatusForbidden, requestErr.StatusCode)
	suite.Equal("invalid api key", requestErr.Errors()["message"])
}

func (suite *HTTPClientTestSuite) TestCircuitBreakerOpens() {
	client := geolib.NewHTTPClient(suite.httpbinEndpoint.Client(),
		"geolocator-test",
		time.Millisecond,
		10,
		1,
		time.Minute,
		time.Minute)

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, suite.httpbinEndpoint.URL+"/status/503", nil)
		client.Do(req) // nolint: errcheck
	}

	req, _ := http.NewRequest(http.MethodGet, suite.httpbinEndpoint.URL+"/get", nil)
	_, err := client.Do(req)

	suite.ErrorIs(err, geolib.ErrCircuitBreakerOpened)
}

func TestHTTPClient(t *testing.T) {
	suite.Run(t, &HTTPClientTestSuite{})
}
