// Geolocator is a service which resolves geolocation data (country,
// city, coordinates, currency and so on) for IP addresses.
//
// You have an IP address like 81.2.69.142 and want to know where a
// user comes from. Geolocator asks a configured service (a local
// MaxMind database or one of many remote APIs), caches the answer and
// returns a default location if nothing can be found.
//
// Tool itself is organized into 3 logical parts:
//
// Geolib
//
// geolib is a core library. It has a Resolver which consults with a
// cache and a provider, stores for that cache, client IP detection and
// an HTTP API which can be mounted as http.Handler.
//
// Providers
//
// This package has implementations of services. Each one is
// registered by its name so configuration file selects a service with
// a single string.
//
// Geolocator
//
// A main package wires geolib and providers together. Resulting binary
// can serve HTTP API, resolve addresses from the command line, update
// databases and flush tagged caches.
package main
