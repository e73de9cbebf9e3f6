package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/eloladder/internal/api/sse"
	"github.com/mcoot/eloladder/internal/config"
	"github.com/mcoot/eloladder/internal/dependencies/clock"
	"github.com/mcoot/eloladder/internal/services/elo"
	"github.com/mcoot/eloladder/internal/services/identity"
	"github.com/mcoot/eloladder/internal/services/ladder"
	"github.com/mcoot/eloladder/internal/storage"
	"github.com/mcoot/eloladder/internal/storage/memory"
	redisstorage "github.com/mcoot/eloladder/internal/storage/redis"
	"github.com/mcoot/eloladder/internal/storage/sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock

	// Services
	Engine   *ladder.Engine
	Identity *identity.Service

	// HubManager holds the open event streams the engine publishes to
	HubManager *sse.HubManager
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
	// Ladder holds rating constants. Zero value means ladder.DefaultConfig().
	Ladder ladder.Config
	// Identity holds token and admin key settings
	Identity identity.Config
	// Alerter receives operator alerts (optional, defaults to logging)
	Alerter ladder.Alerter
}

// FromConfig converts loaded server configuration into a factory Config
func FromConfig(cfg config.Config, logger *slog.Logger) Config {
	redisCfg := cfg.Storage.Redis
	return Config{
		Logger:      logger,
		StorageType: cfg.Storage.Type,
		RedisConfig: &redisCfg,
		SQLitePath:  cfg.Storage.SQLitePath,
		Ladder: ladder.Config{
			InitialRating: cfg.Ladder.InitialRating,
			Elo: elo.Config{
				Scale:   cfg.Ladder.Scale,
				KFactor: cfg.Ladder.KFactor,
			},
		},
		Identity: identity.Config{
			Secret:       cfg.Identity.TokenSecret,
			TokenTTL:     cfg.Identity.TokenTTL,
			AdminKeyHash: cfg.Identity.AdminKeyHash,
		},
	}
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	ladderCfg := cfg.Ladder
	if ladderCfg.InitialRating == 0 {
		ladderCfg = ladder.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), ladderCfg, cfg.Identity, cfg.Alerter, logger), nil
}

func openStorage(cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = config.StorageTypeMemory
	}

	switch storageType {
	case config.StorageTypeMemory:
		return memory.New(), nil
	case config.StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case config.StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	ladderCfg ladder.Config,
	identityCfg identity.Config,
	alerter ladder.Alerter,
	logger *slog.Logger,
) *App {
	hubManager := sse.NewHubManager(logger)

	engine := ladder.NewEngine(store, ladderCfg, clk, alerter, logger)
	engine.SetNotifier(sse.NewBroadcaster(hubManager, logger))

	return &App{
		Storage:    store,
		Clock:      clk,
		Engine:     engine,
		Identity:   identity.New(identityCfg, clk),
		HubManager: hubManager,
	}
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Storage.Close()
}
