package main

import (
	"context"
	"fmt"

	"github.com/quay/pagequery/datastore"
	"github.com/quay/pagequery/datastore/postgres"
	"github.com/quay/pagequery/datastore/sqlite"
)

// OpenStore opens the configured datastore. The returned function releases
// it.
func openStore(ctx context.Context, cfg *DatabaseConfig) (datastore.Pager, func(), error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.DSN, "pagequery")
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStore(pool), pool.Close, nil
	case "sqlite":
		s, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
