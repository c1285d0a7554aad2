// Package repository implements the record store on MySQL.  Sentinel
// errors defined here let higher layers distinguish failure scenarios
// without depending on driver details.
package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the referenced event, order or user does
// not exist.  Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicateKey is returned when an insert violates a unique index
// (event slug or user email).  Callers recover from it; it is never meant
// to reach a client.
var ErrDuplicateKey = errors.New("duplicate key")

// MinTime and MaxTime bound the DATETIME range MySQL can store.  They stand
// in for "unbounded" range queries.
var (
	MinTime = time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
)

const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}
