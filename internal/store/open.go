package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/access-cli/internal/config"
)

// Open opens and migrates the configured store. Driver "none" returns a nil
// Store and no error; callers skip run recording in that case.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "none", "":
		return nil, nil
	case "sqlite":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, cfg.MaxConns)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
