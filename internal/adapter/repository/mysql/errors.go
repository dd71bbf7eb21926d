package mysql

import (
	"errors"

	mysqlerr "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"cooploan-backend/internal/domain/apperr"
)

// MySQL server error numbers worth retrying.
const (
	erDupEntry        = 1062
	erLockWaitTimeout = 1205
	erLockDeadlock    = 1213
)

// translate maps driver/ORM errors onto the domain taxonomy.
func translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(err)
	}
	var me *mysqlerr.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case erDupEntry, erLockWaitTimeout, erLockDeadlock:
			return apperr.Conflict(err)
		}
	}
	return apperr.Storage(err)
}

func stateStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
