package db

import (
	"strings"

	"github.com/teranos/roomq/errors"
)

// ErrDatabaseClosed marks work attempted after the database was closed
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err comes from using a closed database,
// either marked with ErrDatabaseClosed or raised by database/sql itself.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
