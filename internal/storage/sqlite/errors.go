// ABOUTME: Sentinel errors for store operations
// ABOUTME: Unique-constraint violations are mapped so callers can tell duplicates from failures
package sqlite

import (
	"errors"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrDuplicateURL is returned when a save with the same URL already exists
	ErrDuplicateURL = errors.New("a save with this url already exists")
	// ErrDuplicateCollection is returned when a collection name is already taken
	ErrDuplicateCollection = errors.New("a collection with this name already exists")
	// ErrNotFound is returned when the addressed row does not exist
	ErrNotFound = errors.New("not found")
)

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// target, given as "table.column".
func isUniqueViolation(err error, target string) bool {
	if err == nil {
		return false
	}
	var se *moderncsqlite.Error
	if errors.As(err, &se) && se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+target)
}
