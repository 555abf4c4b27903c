package geolib

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/qri-io/jsonschema"
)

var handlePostRequestJSONSchema = func() *jsonschema.Schema {
	data := `{
        "type": "object",
        "required": [
            "ips"
        ],
        "additionalProperties": false,
        "properties": {
            "ips": {
                "type": "array",
                "minItems": 1,
                "items": {
                    "anyOf": [
                        {
                            "type": "string",
                            "format": "ipv4",
                            "minLength": 7,
                            "maxLength": 15
                        },
                        {
                            "type": "string",
                            "format": "ipv6",
                            "minLength": 2,
                            "maxLength": 39
                        }
                    ]
                }
            },
            "cache": {
                "type": "boolean"
            }
        }
    }`

	rv := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(data), rv); err != nil {
		panic(err)
	}

	return rv
}()

type handlePostRequest struct {
	IPs   []string `json:"ips"`
	Cache bool     `json:"cache"`
}

type httpHandler struct {
	resolver *Resolver
}

func (h httpHandler) handleGetSelf(w http.ResponseWriter, req *http.Request) {
	ip := NewRequestClientIPDetector(req).Detect()

	h.sendLocation(w, req, ip)
}

func (h httpHandler) handleGetIP(w http.ResponseWriter, req *http.Request) {
	ip := chi.URLParam(req, "ip")

	if net.ParseIP(ip) == nil {
		h.sendError(w, nil, "Incorrect IP address", http.StatusBadRequest)

		return
	}

	h.sendLocation(w, req, ip)
}

func (h httpHandler) handlePost(w http.ResponseWriter, req *http.Request) {
	if !strings.Contains(req.Header.Get("Content-Type"), "application/json") {
		h.sendError(w, nil, "Incorrect content type", http.StatusUnsupportedMediaType)

		return
	}

	bodyBytes, err := io.ReadAll(req.Body)

	req.Body.Close()

	if err != nil {
		h.sendError(w, err, "Cannot read request body", http.StatusBadRequest)

		return
	}

	errs, err := handlePostRequestJSONSchema.ValidateBytes(req.Context(), bodyBytes)
	if err != nil {
		h.sendError(w, err, "Cannot validate body", http.StatusBadRequest)

		return
	}

	if len(errs) > 0 {
		h.sendError(w, errs[0], "Invalid request body", http.StatusBadRequest)

		return
	}

	parsedRequest := handlePostRequest{}
	if err := json.Unmarshal(bodyBytes, &parsedRequest); err != nil {
		h.sendError(w, err, "Cannot parse request JSON", http.StatusBadRequest)

		return
	}

	opts := []LookupOption{}
	if parsedRequest.Cache {
		opts = append(opts, WithCacheWrite())
	}

	locations, err := h.resolver.LocateAll(req.Context(), parsedRequest.IPs, opts...)
	if err != nil {
		h.sendError(w, err, "Cannot resolve given IPs", http.StatusInternalServerError)

		return
	}

	h.encodeJSON(w, struct {
		Results []Location `json:"results"`
	}{
		Results: locations,
	})
}

func (h httpHandler) handleGetStats(w http.ResponseWriter, _ *http.Request) {
	h.encodeJSON(w, struct {
		Result *UsageStats `json:"result"`
	}{
		Result: h.resolver.UsageStats(),
	})
}

func (h httpHandler) handleDeleteCache(w http.ResponseWriter, _ *http.Request) {
	err := h.resolver.FlushCache()

	switch {
	case errors.Is(err, ErrCacheTagsNotSupported):
		h.sendError(w, err, "Cannot flush cache", http.StatusConflict)
	case err != nil:
		h.sendError(w, err, "Cannot flush cache", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h httpHandler) sendLocation(w http.ResponseWriter, req *http.Request, ip string) {
	h.encodeJSON(w, struct {
		Result Location `json:"result"`
	}{
		Result: h.resolver.GetLocation(req.Context(), ip),
	})
}

func (h httpHandler) encodeJSON(w http.ResponseWriter, data interface{}) {
	encoder := json.NewEncoder(w)

	w.Header().Set("Content-Type", "application/json")
	encoder.SetEscapeHTML(false)
	encoder.Encode(data) // nolint: errcheck
}

func (h httpHandler) sendError(w http.ResponseWriter, err error, message string, statusCode int) {
	e := &httpError{
		message:    message,
		statusCode: statusCode,
		err:        err,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode())
	json.NewEncoder(w).Encode(e) // nolint: errcheck
}

// NewHTTPHandler returns an HTTP handler which exposes a given resolver.
//
//   GET    /        - resolve an address of the client
//   GET    /{ip}    - resolve a given address
//   POST   /        - resolve a list of addresses, {"ips": [...]}
//   GET    /stats   - usage statistics of the provider
//   DELETE /cache   - flush tagged cache
func NewHTTPHandler(resolver *Resolver) http.Handler {
	handler := httpHandler{
		resolver: resolver,
	}
	router := chi.NewRouter()

	router.Use(middleware.Recoverer)

	router.Get("/", handler.handleGetSelf)
	router.Post("/", handler.handlePost)
	router.Get("/stats", handler.handleGetStats)
	router.Delete("/cache", handler.handleDeleteCache)
	router.Get("/{ip}", handler.handleGetIP)

	return router
}
