// Package agent runs the long-lived daemon: it polls for pending tape
// retrievals and watches a drop directory for submission documents.
package agent

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/mwantia/fabric/pkg/container"

	"github.com/primdata/dmt/internal/config"
	"github.com/primdata/dmt/pkg/attrupdate"
	"github.com/primdata/dmt/pkg/db/store"
	"github.com/primdata/dmt/pkg/log"
	"github.com/primdata/dmt/pkg/retrieval"
	"github.com/primdata/dmt/pkg/submission"
)

type DMTAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg *config.BaseConfig
	sc  *container.ServiceContainer
	log log.LoggerService

	st          store.MetadataStore
	retrievals  *retrieval.Service
	submissions *submission.Service
	runner      attrupdate.CommandRunner
}

func NewAgent(cfg *config.BaseConfig) *DMTAgent {
	return &DMTAgent{
		cfg:    cfg,
		sc:     container.NewServiceContainer(),
		log:    log.NewLoggerService("dmt", cfg.Log),
		runner: attrupdate.ExecRunner{},
	}
}

func (a *DMTAgent) setupServices() error {
	errs := container.Errors{}

	a.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](a.sc,
		container.With[log.LoggerService](),
		container.WithInstance(a.log)))

	st, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path: a.cfg.Metadata.SQLite.Path,
	})
	if err != nil {
		return err
	}
	a.st = st

	a.log.Debug("Registering 'MetadataStore'...")
	errs.Add(container.Register[store.SQLiteStore](a.sc,
		container.With[store.MetadataStore](),
		container.WithInstance(st)))

	a.retrievals = retrieval.NewService(st, a.log)
	a.submissions = submission.NewService(st, a.log)

	return errs.Errors()
}

func (a *DMTAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	a.mutex.Lock()

	if err := a.setupServices(); err != nil {
		a.mutex.Unlock()
		return err
	}
	if err := a.st.Connect(ctx); err != nil {
		a.mutex.Unlock()
		return fmt.Errorf("failed to connect metadata store: %w", err)
	}

	interval, err := time.ParseDuration(a.cfg.Agent.PollInterval)
	if err != nil {
		a.mutex.Unlock()
		return fmt.Errorf("invalid poll interval %q: %w", a.cfg.Agent.PollInterval, err)
	}

	a.wait.Add(1)
	go func() {
		defer a.wait.Done()
		a.pollRetrievals(ctx, interval)
	}()

	if a.cfg.Agent.DropDirectory != "" {
		a.wait.Add(1)
		go func() {
			defer a.wait.Done()
			if err := a.watchDropDirectory(ctx); err != nil {
				a.log.Error("drop directory watcher stopped: %s", err)
			}
		}()
	}

	a.mutex.Unlock()
	<-ctx.Done()

	timeout, err := time.ParseDuration(a.cfg.ShutdownTimeout)
	if err != nil {
		timeout = 60 * time.Second
	}

	shutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.sc.Cleanup(shutdown); err != nil {
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}

	a.wait.Wait()
	return a.st.Close()
}
