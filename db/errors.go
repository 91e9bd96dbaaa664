package db

import (
	"errors"

	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation on
// postgres or sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var errs gorm.Errors
	if errors.As(err, &errs) {
		for _, e := range errs {
			if IsUniqueViolation(e) {
				return true
			}
		}
	}
	return false
}

// IsNotFound wraps gorm's record-not-found check so callers don't import gorm
// just for it.
func IsNotFound(err error) bool {
	return gorm.IsRecordNotFoundError(err)
}
