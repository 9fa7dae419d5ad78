package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ShayCichocki/pharmint/internal/catalog"
	"github.com/ShayCichocki/pharmint/internal/config"
	"github.com/ShayCichocki/pharmint/internal/logging"
	"github.com/ShayCichocki/pharmint/internal/orchestrator"
	"github.com/ShayCichocki/pharmint/internal/report"
	"github.com/ShayCichocki/pharmint/internal/worker"
	"github.com/ShayCichocki/pharmint/pkg/models"
)

// app holds the process-wide dependencies built from config.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	source catalog.Source
	// memory is set for the memory backend; the watcher reloads it in place.
	memory *catalog.Memory
	store  *catalog.SQLStore
}

// loadConfig reads the layered config, applies flag overrides and validates.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads config and builds the app for a command.
func setup() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cfg)
}

func newApp(cfg *config.Config) (*app, error) {
	logger, err := logging.New(logging.Options{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
		JSON:  cfg.Logging.JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	if err := a.openSource(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) openSource() error {
	switch a.cfg.Data.Backend {
	case config.BackendSQLite:
		store, err := catalog.OpenSQL(a.cfg.Data.SQLitePath)
		if err != nil {
			return err
		}
		if err := store.Migrate(); err != nil {
			store.Close()
			return err
		}
		a.store = store
		a.source = store
		a.logger.Debug("catalog opened", zap.String("backend", "sqlite"), zap.String("path", store.Path()))
	default:
		mem, err := loadMemory(a.cfg.Data.Dir)
		if err != nil {
			return err
		}
		a.memory = mem
		a.source = mem
		a.logger.Debug("catalog loaded", zap.String("backend", "memory"), zap.String("dir", a.cfg.Data.Dir), zap.Int("records", mem.Len()))
	}
	return nil
}

// loadMemory reads dir, or the embedded sample dataset when dir is empty.
func loadMemory(dir string) (*catalog.Memory, error) {
	if dir == "" {
		return catalog.Default()
	}
	return catalog.LoadDir(dir)
}

// keys lists the keys of table in the active backend.
func (a *app) keys(ctx context.Context, table catalog.Table) ([]string, error) {
	if a.store != nil {
		return a.store.Keys(ctx, table)
	}
	return a.memory.Keys(table), nil
}

func (a *app) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

// reportConfig returns the report settings from config.
func (a *app) reportConfig() report.Config {
	return report.Config{
		Format: models.ArtifactFormat(a.cfg.Report.Format),
		Dir:    a.cfg.Report.Dir,
		Write:  a.cfg.Report.Write,
	}
}

// runOptions describes one query execution.
type runOptions struct {
	Query    string
	Attach   string
	Report   report.Config
	Recorder orchestrator.Recorder
	// Trace collects orchestrator events for display.
	Trace bool
}

// runResult is what the CLI renders after a query.
type runResult struct {
	Outcome *orchestrator.Outcome
	Events  []orchestrator.Event
	Dropped uint64
}

// execute runs one query through a fresh orchestrator over the app's catalog.
func (a *app) execute(ctx context.Context, opts runOptions) (*runResult, error) {
	orchOpts := []orchestrator.Option{
		orchestrator.WithRegistry(worker.DefaultRegistry(a.source)),
		orchestrator.WithFinalizer(report.NewBuilder(opts.Report, a.logger)),
		orchestrator.WithLogger(a.logger),
	}
	if opts.Recorder != nil {
		orchOpts = append(orchOpts, orchestrator.WithRecorder(opts.Recorder))
	}

	var (
		emitter *orchestrator.EventEmitter
		wg      sync.WaitGroup
		events  []orchestrator.Event
	)
	if opts.Trace {
		emitter = orchestrator.NewEventEmitter(a.cfg.Events.Buffer, a.logger)
		orchOpts = append(orchOpts, orchestrator.WithEmitter(emitter))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range emitter.Events() {
				events = append(events, e)
			}
		}()
	}

	outcome, err := orchestrator.New(orchOpts...).Handle(ctx, orchestrator.Request{
		Query:          opts.Query,
		AttachmentPath: opts.Attach,
	})

	res := &runResult{Outcome: outcome}
	if emitter != nil {
		emitter.Close()
		wg.Wait()
		res.Events = events
		res.Dropped = emitter.DroppedCount()
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
