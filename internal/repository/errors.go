// Package repository implements store.Store on MySQL and provides the
// read-side queries used by the HTTP handlers.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinesocial/internal/store"
)

// ErrNotFound and ErrDuplicate are the store sentinels, re-exported so that
// callers holding only a repository do not need to import store.
var (
	ErrNotFound  = store.ErrNotFound
	ErrDuplicate = store.ErrDuplicate
)

// ErrEmailExists is returned by UserRepo.Create when the email is taken.
var ErrEmailExists = errors.New("email already exists")

const (
	// mysqlDuplicateEntry is ER_DUP_ENTRY.
	mysqlDuplicateEntry = 1062
	// mysqlNoReferencedRow is ER_NO_REFERENCED_ROW_2: a foreign key points
	// at a row that is gone.
	mysqlNoReferencedRow = 1452
)

func isMySQLError(err error, number uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == number
}

func isDuplicateKey(err error) bool { return isMySQLError(err, mysqlDuplicateEntry) }

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case isDuplicateKey(err):
		return ErrDuplicate
	case isMySQLError(err, mysqlNoReferencedRow):
		return ErrNotFound
	}
	return err
}
