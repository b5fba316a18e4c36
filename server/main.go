package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ponyo877/lanshare/server/adaptor"
	"github.com/ponyo877/lanshare/server/config"
	"github.com/ponyo877/lanshare/server/domain"
	"github.com/ponyo877/lanshare/server/metrics"
	"github.com/ponyo877/lanshare/server/repository"
	"github.com/ponyo877/lanshare/server/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "lanshare-server",
	Short:        "Rendezvous and relay server for sharing content on a local network",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml)")
	flags.String("addr", ":8080", "listen address")
	flags.String("static-dir", "", "directory of static web assets to serve")
	flags.String("access-code", "", "shared access code; empty leaves the server open")
	flags.Int("history-limit", domain.DefaultHistoryLimit, "chat messages kept in memory")
	flags.Int("queue-size", domain.DefaultQueueSize, "outbound events buffered per session")
	flags.String("archive-dsn", ":memory:", "sqlite DSN of the chat archive; empty disables it")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.Bool("trust-proxy", false, "take client addresses from X-Forwarded-For / X-Real-IP")

	viper.BindPFlag(config.AddrKey, flags.Lookup("addr"))
	viper.BindPFlag(config.StaticDirKey, flags.Lookup("static-dir"))
	viper.BindPFlag(config.AccessCodeKey, flags.Lookup("access-code"))
	viper.BindPFlag(config.HistoryLimitKey, flags.Lookup("history-limit"))
	viper.BindPFlag(config.QueueSizeKey, flags.Lookup("queue-size"))
	viper.BindPFlag(config.ArchiveDSNKey, flags.Lookup("archive-dsn"))
	viper.BindPFlag(config.VerboseKey, flags.Lookup("verbose"))
	viper.BindPFlag(config.TrustProxyKey, flags.Lookup("trust-proxy"))
}

func run(ctx context.Context, cfg config.Config) error {
	logger, err := config.NewLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	m := metrics.New(prometheus.DefaultRegisterer)
	broadcaster := domain.NewBroadcaster(cfg.QueueSize, domain.WithEvictHook(func(sessionID string) {
		m.Evicted()
		logger.Warn("Evicted lagging subscriber", zap.String("session_id", sessionID))
	}))
	defer broadcaster.Close()
	state := domain.NewState(cfg.HistoryLimit, broadcaster)

	var repo usecase.Repository
	if cfg.ArchiveDSN != "" {
		db, err := repository.Open(ctx, cfg.ArchiveDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		repo = repository.NewRepository(db, cfg.ArchiveLimit)
	}

	dispatcher := usecase.NewDispatcher(state, logger.Named("dispatcher"),
		usecase.WithRepository(repo),
		usecase.WithMetrics(m))
	uc := usecase.NewUsecase(state, repo)
	ad := adaptor.NewAdaptor(uc, dispatcher, broadcaster, adaptor.Options{
		AccessCode:      cfg.AccessCode,
		StaticDir:       cfg.StaticDir,
		MaxMessageBytes: cfg.MaxMessageBytes,
		PingPeriod:      cfg.PingPeriod,
		PongWait:        cfg.PongWait,
		WriteWait:       cfg.WriteWait,
		TrustProxy:      cfg.TrustProxy,
		Gatherer:        prometheus.DefaultGatherer,
	}, logger.Named("adaptor"), m)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           ad.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server is running",
			zap.String("addr", cfg.Addr),
			zap.Bool("access_code", cfg.AccessCode != ""),
			zap.Bool("archive", repo != nil))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
