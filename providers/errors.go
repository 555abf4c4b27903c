package providers

import "errors"

var (
	// ErrDatabaseIsNotReadyYet returns if you are trying to access
	// an offline provider but it haven't opened a database yet. For
	// example, it is waiting for the first update.
	ErrDatabaseIsNotReadyYet = errors.New("database is not initialized yet")

	// ErrNoFile is returned if provider has downloaded an archive with
	// database but this archive has no database file.
	ErrNoFile = errors.New("database file could not be found within archive")

	// ErrUnknownProvider is returned by New if there is no provider
	// with a given name.
	ErrUnknownProvider = errors.New("unknown provider")
)
