package geolib

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrResolverShutdown is returned if you are trying to use a
	// resolver which was shutdown.
	ErrResolverShutdown = errors.New("resolver was shutdown")

	// ErrContextIsClosed is returned if context was closed during the
	// operation.
	ErrContextIsClosed = errors.New("context is closed")

	// ErrCircuitBreakerOpened is returned by HTTP client if remote
	// service is considered as unavailable.
	ErrCircuitBreakerOpened = errors.New("circuit breaker is opened")

	// ErrCircuitBreakerIgnore is used by callbacks of circuit breaker
	// to mark errors which should not affect its state.
	ErrCircuitBreakerIgnore = errors.New("this error should be ignored by circuit breaker")

	// ErrAddressNotFound is a base error for addresses absent in the
	// local database. Please use errors.Is to check for it.
	ErrAddressNotFound = errors.New("address is not in the database")

	// ErrCacheTagsNotSupported is returned if you are trying to flush a
	// cache which store does not support tags.
	ErrCacheTagsNotSupported = errors.New("default cache system does not support tags")
)

// ConfigurationError is returned on construction of providers and
// resolvers if configuration is incomplete or incorrect. These errors
// are fatal and should never be swallowed.
type ConfigurationError struct {
	Provider string
	Param    string
	Message  string
}

func (c *ConfigurationError) Error() string {
	builder := strings.Builder{}

	builder.WriteString("incorrect configuration")

	if c.Provider != "" {
		builder.WriteString(" of ")
		builder.WriteString(c.Provider)
	}

	if c.Param != "" {
		builder.WriteString(" (")
		builder.WriteString(c.Param)
		builder.WriteString(")")
	}

	if c.Message != "" {
		builder.WriteString(": ")
		builder.WriteString(c.Message)
	}

	return builder.String()
}

// RequestFailedError is returned by providers if remote service has
// responded with an error, transport has failed or response is
// malformed. If remote side has sent a structured error, it is
// available with Errors method.
type RequestFailedError struct {
	StatusCode int
	Payload    map[string]interface{}
	Err        error
}

// Errors returns a decoded error payload sent by the remote side. It
// can be empty.
func (r *RequestFailedError) Errors() map[string]interface{} {
	if r == nil || r.Payload == nil {
		return map[string]interface{}{}
	}

	return r.Payload
}

func (r *RequestFailedError) Unwrap() error {
	if r == nil {
		return nil
	}

	return r.Err
}

func (r *RequestFailedError) Error() string {
	builder := strings.Builder{}

	builder.WriteString("request failed")

	if r.StatusCode != 0 {
		fmt.Fprintf(&builder, " (%d %s)", r.StatusCode, http.StatusText(r.StatusCode))
	}

	if r.Err != nil {
		builder.WriteString(": ")
		builder.WriteString(r.Err.Error())
	}

	return builder.String()
}

// AddressNotFoundError is returned by database providers if given
// address is absent. It matches ErrAddressNotFound with errors.Is.
type AddressNotFoundError struct {
	IP string
}

func (a *AddressNotFoundError) Error() string {
	return "the address " + a.IP + " is not in the database"
}

func (a *AddressNotFoundError) Is(target error) bool {
	return target == ErrAddressNotFound
}

type jsonHTTPError struct {
	Error struct {
		Message string `json:"message"`
		Context string `json:"context"`
	} `json:"error"`
}

type httpError struct {
	message    string
	err        error
	statusCode int
}

func (h *httpError) Message() string {
	if h == nil {
		return ""
	}

	return h.message
}

func (h *httpError) Err() string {
	if err := errors.Unwrap(h); err != nil {
		return err.Error()
	}

	return ""
}

func (h *httpError) StatusCode() int {
	if h != nil && h.statusCode != 0 {
		return h.statusCode
	}

	return http.StatusInternalServerError
}

func (h *httpError) Unwrap() error {
	if h == nil {
		return nil
	}

	return h.err
}

func (h *httpError) Error() string {
	switch {
	case h == nil:
		return ""
	case h.err != nil && h.message != "":
		return h.message + ": " + h.err.Error()
	case h.err != nil:
		return h.err.Error()
	}

	return h.message
}

func (h *httpError) MarshalJSON() ([]byte, error) {
	if h == nil {
		return []byte("null"), nil
	}

	value := jsonHTTPError{}
	value.Error.Message = h.Message()
	value.Error.Context = h.Err()

	return json.Marshal(&value)
}
