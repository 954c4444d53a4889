package daemon

import (
	"context"
	"fmt"

	"github.com/matheus3301/teamspace/internal/api"
	"github.com/matheus3301/teamspace/internal/bus"
	"github.com/matheus3301/teamspace/internal/clock"
	"github.com/matheus3301/teamspace/internal/config"
	"github.com/matheus3301/teamspace/internal/filestore"
	"github.com/matheus3301/teamspace/internal/lock"
	"github.com/matheus3301/teamspace/internal/logging"
	"github.com/matheus3301/teamspace/internal/outbox"
	"github.com/matheus3301/teamspace/internal/profile"
	"github.com/matheus3301/teamspace/internal/redisstore"
	"github.com/matheus3301/teamspace/internal/store"
	"github.com/matheus3301/teamspace/internal/sweep"
	"github.com/matheus3301/teamspace/internal/timers"
	"github.com/matheus3301/teamspace/internal/workspace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved workspace configuration passed to the fx module.
type Params struct {
	WorkspaceName string
	Config        *config.Config
	SocketPath    string // optional override for testing; empty = use default
}

// BlobStore is a workspace blob backend that owns a connection or file handle.
type BlobStore interface {
	workspace.BlobStore
	Close() error
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	if p.Config == nil {
		p.Config = config.Default()
	}
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideClock,
			provideLock,
			provideTimers,
			provideBlobStore,
			provideSimulator,
			provideWorkspace,
			provideSweeper,
			provideWorkspaceService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.WorkspaceName), p.WorkspaceName, p.Config.Log.Level)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideClock() clock.Clock {
	return clock.Real{}
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.WorkspaceName); err != nil {
		return nil, err
	}
	logger.Info("acquiring workspace lock", zap.String("workspace", p.WorkspaceName))
	l, err := lock.Acquire(profile.Dir(p.WorkspaceName))
	if err != nil {
		return nil, err
	}
	logger.Info("workspace lock acquired")
	return l, nil
}

func provideTimers(logger *zap.Logger) *timers.Registry {
	return timers.NewRegistry(logger)
}

// provideBlobStore opens the configured backend. It takes the lock so the
// store is never opened by a second daemon.
func provideBlobStore(p Params, _ *lock.Lock, logger *zap.Logger) (BlobStore, error) {
	switch backend := p.Config.Storage.Backend; backend {
	case config.BackendSQLite, "":
		dbPath := profile.BlobDBPath(p.WorkspaceName)
		db, result, err := store.OpenMigrated(dbPath)
		if err != nil {
			return nil, err
		}
		if result.Changed {
			logger.Info("migrations applied", zap.Uint("version", result.Version))
		} else {
			logger.Info("migrations up to date", zap.Uint("version", result.Version))
		}
		var size int64
		blobs, err := db.ListBlobs(context.Background())
		if err != nil {
			logger.Warn("list blobs failed", zap.Error(err))
		}
		for _, b := range blobs {
			size += b.Size
		}
		logger.Info("store initialized",
			zap.String("backend", config.BackendSQLite),
			zap.String("path", dbPath),
			zap.Int("blobs", len(blobs)),
			zap.Int64("bytes", size),
		)
		return db, nil
	case config.BackendRedis:
		s, err := redisstore.Dial(context.Background(), p.Config.Storage.RedisAddr, p.Config.Storage.RedisDB, p.WorkspaceName)
		if err != nil {
			return nil, err
		}
		logger.Info("store initialized", zap.String("backend", backend), zap.String("addr", p.Config.Storage.RedisAddr))
		return s, nil
	case config.BackendFile:
		dir := profile.BlobDir(p.WorkspaceName)
		s, err := filestore.Open(dir)
		if err != nil {
			return nil, err
		}
		logger.Info("store initialized", zap.String("backend", backend), zap.String("path", dir))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func provideSimulator(p Params, reg *timers.Registry, logger *zap.Logger) *outbox.Simulator {
	return outbox.NewSimulator(reg, outbox.Loopback{}, p.Config.Delivery.Delay.Duration, logger)
}

func provideWorkspace(blobs BlobStore, b *bus.Bus, clk clock.Clock, sim *outbox.Simulator, logger *zap.Logger) *workspace.Workspace {
	return workspace.New(workspace.Options{
		Blobs:      blobs,
		Bus:        b,
		Clock:      clk,
		Dispatcher: sim,
		Logger:     logger,
	})
}

func provideSweeper(p Params, ws *workspace.Workspace, logger *zap.Logger) *sweep.Sweeper {
	return sweep.New(ws, p.Config.Meetings.SweepInterval.Duration, logger)
}

func provideWorkspaceService(p Params, ws *workspace.Workspace, b *bus.Bus, reg *timers.Registry, logger *zap.Logger) *api.WorkspaceService {
	backend := p.Config.Storage.Backend
	if backend == "" {
		backend = config.BackendSQLite
	}
	return api.NewWorkspaceService(p.WorkspaceName, backend, ws, b, reg, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, blobs BlobStore, ws *workspace.Workspace, sweeper *sweep.Sweeper, reg *timers.Registry, b *bus.Bus, logger *zap.Logger) {
	var stopToasts func()
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			seeded := ws.Load(ctx)
			if len(seeded) > 0 {
				logger.Info("collections seeded", zap.Int("count", len(seeded)))
			}

			// Surface failed persists and deliveries in the daemon log.
			stopToasts = logToasts(b, logger)

			// Start gRPC server in background.
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			sweeper.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			sweeper.Stop()
			reg.Stop()
			srv.Stop(ctx)
			if stopToasts != nil {
				stopToasts()
			}
			if err := blobs.Close(); err != nil {
				logger.Warn("error closing blob store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}

// logToasts mirrors error toasts into the log until the returned func is called.
func logToasts(b *bus.Bus, logger *zap.Logger) func() {
	ch, unsub := b.Subscribe(bus.KindToastError, 64)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case evt := <-ch:
				if t, ok := evt.Payload.(bus.Toast); ok {
					logger.Warn("error toast", zap.String("title", t.Title), zap.String("description", t.Description))
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		unsub()
	}
}
