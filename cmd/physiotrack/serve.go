package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/physiotrack/internal/catalog"
	"github.com/ayusman/physiotrack/internal/engine"
	"github.com/ayusman/physiotrack/internal/metrics"
	"github.com/ayusman/physiotrack/internal/notify"
	"github.com/ayusman/physiotrack/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pose evaluation server",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides server.host and server.port")
	cmd.Flags().StringVar(&serveStaticDir, "static-dir", "", "directory of static files to serve")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.Database.SeedDefaults {
		added, err := st.SeedIfEmpty(catalog.Defaults())
		if err != nil {
			return fmt.Errorf("seed exercises: %w", err)
		}
		if added > 0 {
			log.Infof("seeded %d built-in exercise(s)", added)
		}
	}

	eng := engine.New(st, engine.Config{InactivityTimeout: cfg.Engine.InactivityTimeout})
	if err := eng.Reload(ctx); err != nil {
		// keep serving with an empty catalog; a later edit or reload can recover
		log.Warnf("initial catalog load failed: %s", err)
	}

	srvCfg := server.Config{
		StaticDir: cfg.Server.StaticDir,
		Store:     st,
		Engine:    eng,
	}
	if serveStaticDir != "" {
		srvCfg.StaticDir = serveStaticDir
	}
	if srvCfg.StaticDir == "" {
		srvCfg.StaticDir = findWebDir()
	}
	if srvCfg.StaticDir != "" {
		log.Infof("serving static files from: %s", srvCfg.StaticDir)
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		srvCfg.Metrics = metrics.NewManager("physiotrack", "server", reg)
		srvCfg.Gatherer = reg
	}

	var redisClient *redis.Client
	origin := uuid.New().String()
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warnf("redis ping [%s]: %s", cfg.Redis.Addr, err)
		}
		srvCfg.Notifier = notify.NewPublisher(redisClient, cfg.Redis.Channel, origin)
	}

	srv := server.New(srvCfg)

	if redisClient != nil {
		sub := notify.NewSubscriber(redisClient, cfg.Redis.Channel, origin, srv.Reloader())
		go func() {
			if err := sub.Run(ctx); err != nil {
				log.Errorf("catalog subscriber stopped: %s", err)
			}
		}()
	}

	addr := cfg.Server.Addr()
	if serveAddr != "" {
		addr = serveAddr
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
