package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/luct/reports/core"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// postgres error classes that are worth a retry by the caller
var transientClasses = map[pq.ErrorClass]bool{
	"08": true, // connection exception
	"53": true, // insufficient resources
	"57": true, // operator intervention
}

const uniqueViolation = "23505"

// base is embedded by every repository.
type base struct {
	db      core.DB
	timeout time.Duration
}

func (b base) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

func (b base) get(ctx context.Context, dest interface{}, qb sq.Sqlizer) error {
	query, args, err := qb.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	return b.db.GetContext(ctx, dest, query, args...)
}

func (b base) selectAll(ctx context.Context, dest interface{}, qb sq.Sqlizer) error {
	query, args, err := qb.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	return b.db.SelectContext(ctx, dest, query, args...)
}

// wrapErr marks store failures the caller may retry as core.TransientError and wraps the rest.
func wrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if isTransient(err) {
		return core.NewTransientError(err, msg)
	}
	return errors.Wrap(err, msg)
}

func isTransient(err error) bool {
	err = errors.Cause(err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return transientClasses[pqErr.Code.Class()]
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(errors.Cause(err), &pqErr) && pqErr.Code == uniqueViolation
}

func orderBy(ordering []core.DBOrdering) []string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		clauses = append(clauses, ord.String())
	}
	return clauses
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
