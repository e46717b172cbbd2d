package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastygo/planner/pkg/dateutil"
)

const uniqueViolation = "23505"

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func marshalJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return nil
	}
	return b
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

// dateArg passes a calendar date as UTC midnight, which pgx maps onto DATE columns.
func dateArg(d dateutil.Date) interface{} {
	if d.IsZero() {
		return nil
	}
	return d.In(time.UTC)
}

func nullDateArg(d *dateutil.Date) interface{} {
	if d == nil {
		return nil
	}
	return dateArg(*d)
}

func nullClockArg(c *dateutil.Clock) interface{} {
	if c == nil {
		return nil
	}
	return c.String()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
