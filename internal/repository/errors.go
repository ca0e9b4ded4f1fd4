// Package repository holds the MySQL data access for accounts, tokens,
// listings, reservations, reviews and messages.  Lookups of a single row
// return sql.ErrNoRows when nothing matches, except the booking.Store
// implementation which reports absence as a nil pointer.  The sentinel
// values below let handlers and services tell the remaining failure
// scenarios apart.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write collides with existing state, such as
// a second review for the same reservation.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by AccountRepo.Create for a taken email.
var ErrEmailExists = errors.New("email already exists")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
