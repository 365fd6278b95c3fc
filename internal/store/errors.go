package store

import (
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Sentinel errors for store operations. Part of the Store's public API;
// check with errors.Is().
var (
	// ErrNotFound indicates the requested chat or message does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey indicates an insert collided with an existing
	// primary key. The identifier generator makes this practically
	// impossible; if it occurs it is an internal consistency failure.
	ErrDuplicateKey = errors.New("duplicate key")
)

// isConstraintViolation reports whether err is a SQLite constraint error
// (primary key or unique collision).
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
