package providers

const (
	// Identifier for ip-api.com.
	NameIPAPI = "ipapi"

	// Identifier for ipdata.co.
	NameIPData = "ipdata"

	// Identifier for ipfinder.io.
	NameIPFinder = "ipfinder"

	// Identifier for ipgeolocation.io.
	NameIPGeolocation = "ipgeolocation"

	// Identifier for local MaxMind databases.
	NameMaxmindDatabase = "maxmind_database"

	// Identifier for MaxMind GeoIP2 web service.
	NameMaxmindAPI = "maxmind_api"
)
