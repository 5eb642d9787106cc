package domain

import "errors"

var (
	// ErrNotFound signals a cache or lookup miss. Absent tables on the read
	// path are not errors; stores return nil records instead.
	ErrNotFound = errors.New("not found")

	// ErrTableExists is returned by appends under the FailIfExists policy
	// when the target table has already been provisioned.
	ErrTableExists = errors.New("table already exists")

	// ErrInvalidIdentifier is returned when an exchange, symbol, interval or
	// bar kind is empty or contains characters outside the allow-listed set.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)
