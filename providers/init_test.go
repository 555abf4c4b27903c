package providers_test

import (
	"net/http"
	"os"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/suite"
)

type ProviderTestSuite struct {
	suite.Suite

	http          geolib.HTTPClient
	baseDirectory string
}

func (suite *ProviderTestSuite) SetupTest() {
	suite.http = geolib.NewHTTPClient(&http.Client{},
		"test-agent",
		time.Millisecond,
		100,
		100,
		time.Minute,
		time.Minute)

	dir, err := os.MkdirTemp("", "geolocator_test_")
	if err != nil {
		panic(err)
	}

	suite.baseDirectory = dir
}

func (suite *ProviderTestSuite) TearDownTest() {
	os.RemoveAll(suite.baseDirectory)
}

type MockedProviderTestSuite struct {
	ProviderTestSuite
}

func (suite *MockedProviderTestSuite) SetupSuite() {
	httpmock.Activate()
}

func (suite *MockedProviderTestSuite) TearDownSuite() {
	httpmock.DeactivateAndReset()
}

func (suite *MockedProviderTestSuite) TearDownTest() {
	httpmock.Reset()
	suite.ProviderTestSuite.TearDownTest()
}
