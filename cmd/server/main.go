package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"isekai-server/internal/engine"
	"isekai-server/internal/server"
	"isekai-server/internal/version"
	"isekai-server/pkg/logger"
)

// shutdownTimeout - сколько ждем сессии и очередь сохранений при остановке
const shutdownTimeout = 15 * time.Second

type serveFlags struct {
	configPath string
	host       string
	port       int
	seed       int64
	storage    string
	redisURL   string
}

func init() {
	logger.Init()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &serveFlags{}

	rootCmd := &cobra.Command{
		Use:          "isekai-server",
		Short:        "Authoritative server for the isekai multiplayer world",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, flags)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the websocket game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to YAML config")
	pf.StringVar(&flags.host, "host", "", "Listen host (env: ISEKAI_HOST)")
	pf.IntVar(&flags.port, "port", 0, "Listen port (env: ISEKAI_PORT)")
	pf.Int64Var(&flags.seed, "seed", 0, "World seed (0 for random)")
	pf.StringVar(&flags.storage, "storage", "", "Storage backend: memory, redis (env: STORAGE_TYPE)")
	pf.StringVar(&flags.redisURL, "redis-url", "", "Redis URL (env: REDIS_URL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.String())
		},
	})

	return rootCmd
}

// loadConfig: файл -> окружение -> флаги
func loadConfig(cmd *cobra.Command, flags *serveFlags) (engine.Config, error) {
	cfg, err := engine.LoadConfig(flags.configPath)
	if err != nil {
		return engine.Config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("host") {
		cfg.Host = flags.host
	}
	if changed("port") {
		cfg.Port = flags.port
	}
	if changed("seed") && flags.seed != 0 {
		cfg.Seed = flags.seed
	}
	if changed("storage") {
		cfg.Storage.Type = flags.storage
	}
	if changed("redis-url") {
		cfg.Storage.Redis.URL = flags.redisURL
	}
	return cfg, cfg.Validate()
}

func serve(cmd *cobra.Command, flags *serveFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	logger.Log.Info("Starting isekai server...")
	logger.Log.Info(version.String())
	logger.Log.Infof("Using world seed: %d", cfg.Seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := engine.OpenStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	logger.Log.WithField("storage", cfg.Storage.Type).Info("Storage ready")

	gameService, err := engine.NewService(cfg, store)
	if err != nil {
		_ = store.Close()
		return err
	}
	gameService.Start(ctx)

	srv := server.New(gameService, cfg)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Info("Shutting down...")
	case err = <-errCh:
		if err != nil {
			logger.Log.WithError(err).Error("Server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		logger.Log.WithError(serr).Warn("HTTP shutdown incomplete")
	}
	if serr := gameService.Shutdown(shutdownCtx); serr != nil {
		logger.Log.WithError(serr).Warn("Game shutdown incomplete")
	}

	logger.Log.Info("Done.")
	return err
}
