// Package agent wires the backup and restore passes together: it opens
// the call-log store, reads and writes the incremental state blob, and
// moves entities through the archive transport.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/callvault/internal/agent/config"
	"github.com/dmitrijs2005/callvault/internal/backup"
	"github.com/dmitrijs2005/callvault/internal/codec"
	"github.com/dmitrijs2005/callvault/internal/common"
	"github.com/dmitrijs2005/callvault/internal/eventlog"
	"github.com/dmitrijs2005/callvault/internal/logging"
	"github.com/dmitrijs2005/callvault/internal/repositories/calllog"
	"github.com/dmitrijs2005/callvault/internal/restore"
	"github.com/dmitrijs2005/callvault/internal/telephony"
	"github.com/dmitrijs2005/callvault/internal/transport"
)

type App struct {
	config *config.Config
	logger logging.Logger
	events eventlog.Logger
	store  calllog.Store
	mapper telephony.SubscriptionMapper
	closer func() error
}

// NewApp builds the agent from configuration: structured logging with a
// per-run correlation id, the call-log store for the configured driver,
// and the optional subscription map for phone-account migration.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl).With("run_id", uuid.NewString())

	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mapper := telephony.StaticMapper{}
	if cfg.SubscriptionMapPath != "" {
		mapper, err = telephony.LoadMapperFile(cfg.SubscriptionMapPath)
		if err != nil {
			_ = closer()
			return nil, fmt.Errorf("failed to load subscription map: %w", err)
		}
	}

	return &App{
		config: cfg,
		logger: logger,
		events: eventlog.NewSlogEventLogger(logger),
		store:  store,
		mapper: mapper,
		closer: closer,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (calllog.Store, func() error, error) {
	switch cfg.DatabaseDriver {
	case "sqlite":
		s, err := calllog.OpenSQLite(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "postgres":
		s, err := calllog.OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

// Close releases the store handle.
func (a *App) Close() error {
	return a.closer()
}

// Backup runs one incremental backup pass: load the prior state, read the
// current call log, transmit the delta into the archive, and persist the
// updated state. An unreadable or future-format state blob is replaced
// with a fresh one, which makes the pass transmit everything.
func (a *App) Backup(ctx context.Context) error {
	state := a.loadState(ctx)

	records, err := a.store.QueryAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read call log: %w", err)
	}
	for i := range records {
		if telephony.MigratePhoneAccount(&records[i], a.mapper) {
			a.logger.Debug(ctx, "migrated phone account", "call_id", records[i].ID)
		}
	}

	f, err := os.Create(a.config.ArchivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	runner := backup.NewRunner(a.events, a.logger)
	runner.Run(ctx, state, transport.NewArchiveWriter(f), records)

	if err := a.saveState(state); err != nil {
		return err
	}

	a.logger.Info(ctx, "backup pass finished", "tracked", state.Len())
	return nil
}

// Restore replays the archive into the call-log store under the
// configured dedup mode.
func (a *App) Restore(ctx context.Context) error {
	mode, err := restore.ParseDedupMode(a.config.DedupMode)
	if err != nil {
		return err
	}

	f, err := os.Open(a.config.ArchivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	p := restore.NewPipeline(a.store, a.mapper, a.events, a.logger, mode, a.config.BatchSize)
	return p.Restore(ctx, transport.NewArchiveReader(f), codec.Version, nil)
}

// loadState reads the prior backup state, falling back to a fresh state
// when there is none or it cannot be trusted.
func (a *App) loadState(ctx context.Context) *backup.State {
	f, err := os.Open(a.config.StatePath)
	if errors.Is(err, fs.ErrNotExist) {
		return backup.NewState()
	}
	if err != nil {
		a.logger.Warn(ctx, "failed to open state, starting fresh", "error", err)
		return backup.NewState()
	}
	defer f.Close()

	state, err := backup.ReadState(f)
	if err != nil {
		if errors.Is(err, common.ErrFutureFormat) || errors.Is(err, common.ErrStateCorrupt) {
			a.logger.Warn(ctx, "unusable state, starting fresh", "error", err)
			return backup.NewState()
		}
		a.logger.Warn(ctx, "failed to read state, starting fresh", "error", err)
		return backup.NewState()
	}
	return state
}

func (a *App) saveState(state *backup.State) error {
	f, err := os.Create(a.config.StatePath)
	if err != nil {
		return fmt.Errorf("failed to create state file: %w", err)
	}
	defer f.Close()

	if err := backup.WriteState(f, state); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}
