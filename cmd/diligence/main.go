// Command diligence answers cited questions about property diligence
// documents and writes investment memos.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/diligence/internal/adapters/driven/ai"
	"github.com/custodia-labs/diligence/internal/adapters/driven/config/env"
	"github.com/custodia-labs/diligence/internal/adapters/driven/config/file"
	"github.com/custodia-labs/diligence/internal/adapters/driven/index"
	"github.com/custodia-labs/diligence/internal/adapters/driven/metrics"
	"github.com/custodia-labs/diligence/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/diligence/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/diligence/internal/adapters/driving/cli"
	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/core/services"
	"github.com/custodia-labs/diligence/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup, err := configure(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cli.SetVersion(version)
	err = cli.Execute(ctx)
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}

// configure wires the services and hands them to the CLI. The returned
// function releases them.
func configure(ctx context.Context) (func(), error) {
	configDir := os.Getenv(env.Prefix + "CONFIG_DIR")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".diligence")
	}

	if err := env.LoadDotEnv(env.DefaultDotEnvPaths(configDir)...); err != nil {
		return nil, err
	}

	fileStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(env.New(fileStore), ai.NewConfigValidator())

	cfg := &cli.Config{Settings: settingsService}
	cli.SetConfig(cfg)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	sessions, closers, err := buildSessions(ctx, *settings, configDir)
	if err != nil {
		// Settings commands still work so the configuration can be fixed.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return func() {}, nil
	}

	cfg.Sessions = sessions.manager
	cfg.Metrics = sessions.metrics.Handler()
	cli.SetConfig(cfg)

	return func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		}
	}, nil
}

type wiredSessions struct {
	manager *services.SessionManager
	metrics *metrics.Recorder
}

// buildSessions creates the AI services, index and session manager.
func buildSessions(ctx context.Context, settings domain.AppSettings, configDir string) (*wiredSessions, []func() error, error) {
	var closers []func() error
	fail := func(err error) (*wiredSessions, []func() error, error) {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return nil, nil, errors.Join(append([]error{err}, errs...)...)
	}

	aiServices, err := ai.Init(settings)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, aiServices.Close)

	var store *sqlite.Store
	if settings.Index.Backend == domain.IndexBackendSQLite || settings.Transcript == domain.TranscriptSQLite {
		store, err = sqlite.NewStore(settings.Index.DataDir)
		if err != nil {
			return fail(fmt.Errorf("opening session store: %w", err))
		}
		closers = append(closers, store.Close)
	}

	recorder := metrics.New()

	idx, err := index.New(index.Deps{
		Settings: settings,
		Embedder: aiServices.EmbeddingService,
		Store:    store,
		Metrics:  recorder,
	})
	if err != nil {
		return fail(fmt.Errorf("creating %s index: %w", settings.Index.Backend, err))
	}
	closers = append(closers, idx.Close)

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return fail(fmt.Errorf("opening prompts: %w", err))
	}
	watchCtx, stopWatch := context.WithCancel(ctx)
	closers = append(closers, func() error {
		stopWatch()
		return nil
	})
	go func() {
		if err := prompts.Watch(watchCtx); err != nil {
			logger.Warn("prompt edits will need a restart: %v", err)
		}
	}()

	var transcript driven.TranscriptStore = memory.NewTranscriptStore()
	if settings.Transcript == domain.TranscriptSQLite {
		transcript = store.TranscriptStore()
	}

	manager := services.NewSessionManager(services.SessionDeps{
		Index:      idx,
		LLM:        aiServices.LLMService,
		Prompts:    prompts,
		Transcript: transcript,
		Settings:   settings,
		Metrics:    recorder,
	})
	return &wiredSessions{manager: manager, metrics: recorder}, closers, nil
}
