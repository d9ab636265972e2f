package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/katalyst/internal/api"
	"github.com/verte-zerg/katalyst/internal/catalog"
	"github.com/verte-zerg/katalyst/internal/config"
	"github.com/verte-zerg/katalyst/internal/logger"
	"github.com/verte-zerg/katalyst/internal/progress"
	"github.com/verte-zerg/katalyst/internal/store"
	"github.com/verte-zerg/katalyst/internal/store/redisstore"
)

const (
	defaultAddr      = ":5000"
	defaultStorage   = "memory"
	defaultRedisAddr = "localhost:6379"
	defaultLogMode   = "development"

	storageMemory = "memory"
	storageSQLite = "sqlite"
	storageRedis  = "redis"
)

var (
	serveAddr      string
	serveAPIKey    string
	serveStorage   string
	serveDBPath    string
	serveRedisAddr string
	serveSeed      bool
	serveLogMode   string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the course catalog and progress server",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&serveAPIKey, "server-api-key", defaultAPIKey, "key required in x-api-key")
	cmd.Flags().StringVar(&serveStorage, "storage", defaultStorage, "storage backend: memory, sqlite or redis")
	cmd.Flags().StringVar(&serveDBPath, "server-db-path", config.DefaultServerDBPath(), "SQLite database for --storage=sqlite")
	cmd.Flags().StringVar(&serveRedisAddr, "redis-addr", defaultRedisAddr, "Redis address for --storage=redis")
	cmd.Flags().BoolVar(&serveSeed, "seed", true, "load the built-in courses on start")
	cmd.Flags().StringVar(&serveLogMode, "log-mode", defaultLogMode, "log mode: development or production")
	return cmd
}

func applyServeConfig(cmd *cobra.Command) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	srv := fileCfg.Server
	if !cmd.Flags().Changed("addr") {
		if v := config.EnvAddr(config.EnvPort); v != nil {
			serveAddr = *v
		} else if srv.Addr != nil {
			serveAddr = *srv.Addr
		}
	}
	applyStringConfig(cmd, "server-api-key", &serveAPIKey, config.EnvAPIKey, srv.APIKey)
	applyStringConfig(cmd, "storage", &serveStorage, config.EnvStorage, srv.Storage)
	applyStringConfig(cmd, "server-db-path", &serveDBPath, config.EnvDBPath, srv.DBPath)
	applyStringConfig(cmd, "redis-addr", &serveRedisAddr, config.EnvRedisAddr, srv.RedisAddr)
	applyBoolConfig(cmd, "seed", &serveSeed, "", srv.Seed)
	applyStringConfig(cmd, "log-mode", &serveLogMode, config.EnvLogMode, srv.LogMode)
	return validateServeConfig()
}

func validateServeConfig() error {
	switch serveStorage {
	case storageMemory, storageSQLite, storageRedis:
	default:
		return fmt.Errorf("--storage must be one of %s, %s, %s", storageMemory, storageSQLite, storageRedis)
	}
	if serveAPIKey == "" {
		return fmt.Errorf("--server-api-key must not be empty")
	}
	if serveAddr == "" {
		return fmt.Errorf("--addr must not be empty")
	}
	return nil
}

// backends holds the repositories chosen by --storage and whatever must be
// closed on shutdown.
type backends struct {
	catalog  catalog.Repository
	progress progress.Repository
	closers  []func() error
}

func (b *backends) close(log *logger.Logger) {
	for _, c := range b.closers {
		if err := c(); err != nil {
			log.Warn("failed to close storage", "error", err)
		}
	}
}

func openBackends(ctx context.Context, log *logger.Logger) (*backends, error) {
	switch serveStorage {
	case storageSQLite:
		st, err := store.Open(serveDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		return &backends{catalog: st, progress: st, closers: []func() error{st.Close}}, nil
	case storageRedis:
		repo, err := redisstore.Dial(ctx, serveRedisAddr, log)
		if err != nil {
			return nil, err
		}
		return &backends{
			catalog:  catalog.NewMemoryRepository(),
			progress: repo,
			closers:  []func() error{repo.Close},
		}, nil
	default:
		return &backends{
			catalog:  catalog.NewMemoryRepository(),
			progress: progress.NewMemoryRepository(),
		}, nil
	}
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	if err := applyServeConfig(cmd); err != nil {
		return err
	}
	log, err := logger.New(serveLogMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	if serveLogMode == "production" || serveLogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, log)
	if err != nil {
		return err
	}
	defer b.close(log)

	courses := catalog.NewService(b.catalog, log)
	if serveSeed {
		n, err := courses.Seed(ctx)
		if err != nil {
			return err
		}
		log.Info("catalog seeded", "courses", n)
	}
	handler := api.NewHandler(log, courses, progress.NewService(b.progress, courses, log))
	server := api.NewServer(api.RouterConfig{Handler: handler, APIKey: serveAPIKey, Logger: log})

	log.Info("server starting", "addr", serveAddr, "storage", serveStorage)
	return server.Run(ctx, serveAddr)
}
