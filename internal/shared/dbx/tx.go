package dbx

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockForUpdate applies SELECT ... FOR UPDATE on dialects that support it.
// The sqlite driver used in tests serializes writers per transaction, so the
// clause is skipped there (sqlite rejects the syntax).
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// WithTxRetry runs fn inside a transaction, retrying on MySQL deadlock /
// lock-wait-timeout with a small backoff.
func WithTxRetry(ctx context.Context, db *gorm.DB, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error

	for i := 0; i < attempts; i++ {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(tx)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if isRetryableMySQLError(err) && i < attempts-1 {
			time.Sleep(time.Duration(50*(i+1)) * time.Millisecond)
			continue
		}
		return err
	}
	return lastErr
}

func isRetryableMySQLError(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	// 1213 deadlock, 1205 lock wait timeout
	return me.Number == 1213 || me.Number == 1205
}
