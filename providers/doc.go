// Package providers contains implementations of geolib.Provider.
//
// Each provider is registered in Constructors under its name. A
// provider is configured with a flat map of string parameters which
// usually comes from the services section of the configuration file.
package providers
