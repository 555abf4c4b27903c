// Package geolib provides a set of structs and functions which are used
// to geolocate given IP addresses.
//
// geolib is a core of the geolocator project. You can treat the rest of
// the application as an _example_ on how to use this library: how to
// pass parameters from configuration files, how to wire providers, how
// to choose a cache store.
//
// Resolver is a main entity of the geolib. It takes an IP address and
// returns Location: a uniform record filled by the selected provider.
// Resolver never fails a lookup. If it is not possible to resolve an
// address, it returns a default location with Default flag set. If
// a record was taken from the cache, it has Cached flag set.
//
// Providers are pluggable. Each provider knows how to talk to its own
// backend (remote JSON API, local MaxMind database etc) and how to map
// its response into Location. Some providers also implement Updater
// interface: they have datasets which could be refreshed.
//
// Cache is an optional layer in front of the provider. It works on top
// of a generic Store. Some stores support tags: it is possible to flush
// all records stored under a given set of tags without touching
// unrelated data.
package geolib
