package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	apperrors "github.com/jwalitptl/scheduling-service/pkg/errors"
	"github.com/jwalitptl/scheduling-service/pkg/metrics"
)

// Row is one result row keyed by column name.
type Row map[string]interface{}

type querier interface {
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Gateway executes parameterised statements against the relational store.
// Statements always take positional $n bind values; callers never splice
// request data into SQL text.
//
// Every failure other than sql.ErrNoRows comes back as a DatabaseError
// (apperrors.ErrInternal). sql.ErrNoRows is returned as is so repositories
// can turn it into a NotFound error.
type Gateway struct {
	db      *sqlx.DB
	q       querier
	metrics *metrics.Metrics
}

// NewGateway wraps db. m may be nil.
func NewGateway(db *sqlx.DB, m *metrics.Metrics) *Gateway {
	return &Gateway{db: db, q: db, metrics: m}
}

// Query runs a statement and returns every row as a column/value map.
// []byte values are converted to strings.
func (g *Gateway) Query(ctx context.Context, query string, args ...interface{}) (rows []Row, err error) {
	defer g.observe("query", time.Now(), &err)

	rs, err := g.q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Database("query", err)
	}
	defer rs.Close()

	for rs.Next() {
		row := Row{}
		if err := rs.MapScan(row); err != nil {
			return nil, apperrors.Database("scan", err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, apperrors.Database("query", err)
	}
	return rows, nil
}

// Select scans every row into dest, a pointer to a slice.
func (g *Gateway) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) (err error) {
	defer g.observe("select", time.Now(), &err)

	if err := g.q.SelectContext(ctx, dest, query, args...); err != nil {
		return apperrors.Database("select", err)
	}
	return nil
}

// Get scans exactly one row into dest.
func (g *Gateway) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) (err error) {
	defer g.observe("get", time.Now(), &err)

	if err := g.q.GetContext(ctx, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return apperrors.Database("get", err)
	}
	return nil
}

// Exec runs a statement and returns the number of affected rows.
func (g *Gateway) Exec(ctx context.Context, query string, args ...interface{}) (affected int64, err error) {
	defer g.observe("exec", time.Now(), &err)

	res, err := g.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.Database("exec", err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return 0, apperrors.Database("exec", err)
	}
	return affected, nil
}

// WithTx runs fn inside a transaction. fn receives a Gateway bound to the
// transaction; it is committed when fn returns nil and rolled back otherwise.
func (g *Gateway) WithTx(ctx context.Context, fn func(tx *Gateway) error) (err error) {
	if g.db == nil {
		return apperrors.Database("begin", errors.New("nested transactions are not supported"))
	}

	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.Database("begin", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Gateway{q: tx, metrics: g.metrics}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, apperrors.Database("rollback", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Database("commit", err)
	}
	return nil
}

// Ping checks connectivity.
func (g *Gateway) Ping(ctx context.Context) error {
	if g.db == nil {
		return nil
	}
	if err := g.db.PingContext(ctx); err != nil {
		return apperrors.Database("ping", err)
	}
	if g.metrics != nil {
		g.metrics.DatabaseConnections.Set(float64(g.db.Stats().OpenConnections))
	}
	return nil
}

func (g *Gateway) observe(op string, start time.Time, err *error) {
	if g.metrics == nil {
		return
	}
	status := "success"
	if *err != nil && !errors.Is(*err, sql.ErrNoRows) {
		status = "error"
	}
	g.metrics.DatabaseOperations.WithLabelValues(op, status).Inc()
	g.metrics.DatabaseLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func notFound(resource string, id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(fmt.Sprintf("%s %d", resource, id), err)
	}
	return err
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
