package sqlxrepos

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// postgres error codes
const (
	uniqueViolation    = "23505"
	exclusionViolation = "23P01"
)

// validID reports whether id can be looked up: ids are uuid columns, anything else matches no row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isConflict(err error) bool {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Code == uniqueViolation || pqErr.Code == exclusionViolation
	}
	return false
}

// rollback rolls tx back and returns err, wrapped with msg.
func rollback(tx *sqlx.Tx, err error, msg string) error {
	_ = tx.Rollback()
	return errors.Wrap(err, msg)
}
