package providers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/9seconds/geolocator/geolib"
)

func flushResponse(resp io.ReadCloser) {
	io.Copy(io.Discard, resp) // nolint: errcheck
	resp.Close()
}

// getJSON sends a GET request and decodes a response into target.
// Every failure is returned as geolib.RequestFailedError.
func getJSON(ctx context.Context, client geolib.HTTPClient, endpoint string,
	target interface{}, modifiers ...func(*http.Request)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("cannot build a request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	for _, modify := range modifiers {
		modify(req)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("cannot send a request: %w", err)
	}

	defer flushResponse(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &geolib.RequestFailedError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	if err := json.NewDecoder(bufio.NewReader(resp.Body)).Decode(target); err != nil {
		return &geolib.RequestFailedError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("cannot parse a response: %w", err),
		}
	}

	return nil
}
