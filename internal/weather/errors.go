package weather

import "errors"

var (
	// ErrInvalidArgument reports a bad or unsupported time range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStoreUnavailable reports that the row store could not be queried.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrUnmappableDirection reports a wind direction outside the station's compass table.
	ErrUnmappableDirection = errors.New("invalid wind direction")
)
