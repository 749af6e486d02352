package store

import (
	"fmt"

	"go.uber.org/zap"
)

// Supported store drivers.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// Open returns the backend named by driver. For DriverSQLite location is the
// database DSN; for DriverFile it is the directory holding the templates.
func Open(driver, location string, log *zap.Logger) (Store, error) {
	switch driver {
	case DriverSQLite:
		return NewSQLiteStore(location, WithLogger(log))
	case DriverFile:
		return NewFileStore(location, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
