// Package repository implements MySQL persistence for the booking
// service. Sentinel errors shared across repositories live here so
// handlers can distinguish failure scenarios without string matching.
// Core storage sentinels (missing rows, lost seat races) are defined
// by the booking package, since the repositories implement its Ledger
// and Registry interfaces.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrEmailExists is returned when registering a user whose email is
// already taken. Handlers should translate this into an HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as attempting to delete a
// showtime that still has reservations. Handlers should translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// isDuplicateKey reports whether err is a MySQL duplicate-entry
// violation (error 1062), the signal that a unique constraint fired.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
