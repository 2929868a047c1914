package repository

import (
	"database/sql"
	"strings"
	"time"
)

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure. The driver does not export a typed error for this, so the check
// goes by message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullTimePtr converts a scanned nullable timestamp to a *time.Time.
func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}
