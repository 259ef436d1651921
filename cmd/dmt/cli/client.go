package cli

import (
	"context"
	"fmt"

	"github.com/primdata/dmt/internal/config"
	"github.com/primdata/dmt/pkg/db/store"
	"github.com/primdata/dmt/pkg/log"
)

// client bundles the pieces every one-shot command needs: the loaded
// configuration, a connected metadata store and a logger.
type client struct {
	cfg *config.BaseConfig
	st  *store.SQLiteStore
	log log.LoggerService
}

func newClient(ctx context.Context) (*client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := log.NewLoggerService("dmt", cfg.Log)

	st, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path: cfg.Metadata.SQLite.Path,
	})
	if err != nil {
		return nil, err
	}
	if err := st.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect metadata store: %w", err)
	}

	return &client{
		cfg: cfg,
		st:  st,
		log: logger,
	}, nil
}

func (c *client) Close() error {
	return c.st.Close()
}
