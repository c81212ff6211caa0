package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quay/pagequery"
)

const appnameKey = `application_name`

// Connect initializes a [pgxpool.Pool] based on the connection string.
//
// The "application_name" runtime parameter is set to applicationName unless
// the connection string already specifies one.
func Connect(ctx context.Context, connString string, applicationName string) (*pgxpool.Pool, error) {
	const op = `datastore/postgres/Connect`
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, &pagequery.Error{
			Op:      op,
			Kind:    pagequery.ErrInvalid,
			Message: "failed to parse connection string",
			Inner: &pagequery.Error{
				// Permanent because the same connection string should always
				// yield an error.
				Kind:  pagequery.ErrPermanent,
				Inner: err,
			},
		}
	}
	return ConnectConfig(ctx, cfg, applicationName)
}

// ConnectConfig is like [Connect], but takes an already parsed configuration.
func ConnectConfig(ctx context.Context, cfg *pgxpool.Config, applicationName string) (*pgxpool.Pool, error) {
	const op = `datastore/postgres/ConnectConfig`
	params := cfg.ConnConfig.RuntimeParams
	if _, ok := params[appnameKey]; !ok {
		params[appnameKey] = applicationName
	}
	cfg.ConnConfig.Tracer = queryTracer{}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &pagequery.Error{
			Op:      op,
			Kind:    pagequery.ErrPrecondition,
			Message: "failed to create connection pool",
			Inner:   err,
		}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &pagequery.Error{
			Op:      op,
			Kind:    pagequery.ErrTransient,
			Message: "unable to reach database",
			Inner:   err,
		}
	}

	err = prometheus.Register(newPoolCollector(pool, params[appnameKey]))
	var are prometheus.AlreadyRegisteredError
	switch {
	case err == nil:
	case errors.As(err, &are):
		slog.InfoContext(ctx, "pool metrics already registered", "application_name", params[appnameKey])
	default:
		slog.WarnContext(ctx, "unable to register pool metrics", "reason", err)
	}

	return pool, nil
}
