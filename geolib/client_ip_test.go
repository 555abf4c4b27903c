package geolib_test

import (
	"net/http/httptest"
	"testing"

	"github.com/9seconds/geolocator/geolib"
	"github.com/stretchr/testify/suite"
)

type ClientIPDetectorTestSuite struct {
	suite.Suite

	values map[string]string
}

func (suite *ClientIPDetectorTestSuite) SetupTest() {
	suite.values = map[string]string{}
}

func (suite *ClientIPDetectorTestSuite) detect() string {
	return geolib.NewClientIPDetector(func(source string) string {
		return suite.values[source]
	}).Detect()
}

func (suite *ClientIPDetectorTestSuite) TestNothing() {
	suite.Equal(geolib.DefaultClientIP, suite.detect())
}

func (suite *ClientIPDetectorTestSuite) TestProxyChain() {
	suite.values["HTTP_X_FORWARDED_FOR"] = "10.0.0.5, 203.0.113.9"

	suite.Equal("203.0.113.9", suite.detect())
}

func (suite *ClientIPDetectorTestSuite) TestOrder() {
	suite.values["REMOTE_ADDR"] = "8.8.8.8"
	suite.values["HTTP_CLIENT_IP"] = "1.1.1.1"
	suite.values["HTTP_X_FORWARDED_IP"] = "192.168.1.1"

	suite.Equal("1.1.1.1", suite.detect())
}

func (suite *ClientIPDetectorTestSuite) TestOnlyInvalid() {
	suite.values["HTTP_X_FORWARDED_FOR"] = "10.0.0.5, 127.0.0.1"
	suite.values["REMOTE_ADDR"] = "garbage"

	suite.Equal(geolib.DefaultClientIP, suite.detect())
}

func (suite *ClientIPDetectorTestSuite) TestRequestHeaders() {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "8.8.8.8:41000"

	req.Header.Set("X-Forwarded-For", "10.0.0.5, 203.0.113.9")

	suite.Equal("203.0.113.9", geolib.NewRequestClientIPDetector(req).Detect())
}

func (suite *ClientIPDetectorTestSuite) TestRequestRemoteAddr() {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "8.8.8.8:41000"

	suite.Equal("8.8.8.8", geolib.NewRequestClientIPDetector(req).Detect())
}

func (suite *ClientIPDetectorTestSuite) TestRequestCloudflare() {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "127.0.0.1:41000"

	req.Header.Set("Cf-Connecting-Ip", "81.2.69.142")

	suite.Equal("81.2.69.142", geolib.NewRequestClientIPDetector(req).Detect())
}

func TestClientIPDetector(t *testing.T) {
	suite.Run(t, &ClientIPDetectorTestSuite{})
}
