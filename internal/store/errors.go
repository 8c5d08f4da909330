package store

import (
	"errors"
	"fmt"
)

// CodeForeignKeyViolation is the Postgres SQLSTATE for a foreign key violation.
const CodeForeignKeyViolation = "23503"

// ErrNotFound is returned when an update or delete matched no row.
var ErrNotFound = errors.New("store: no matching row")

// Error is a failure reported by the database, in the shape the REST service
// returns it.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s (code %s)", e.Message, e.Code)
	case e.Message != "":
		return e.Message
	case e.Status != 0:
		return fmt.Sprintf("store request failed with status %d", e.Status)
	}
	return "store request failed"
}

// IsForeignKeyViolation reports whether err is a database error with code 23503.
func IsForeignKeyViolation(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeForeignKeyViolation
}
