package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/config"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/device"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/errors"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/history"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/logger"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/metrics"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/pid"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/poll"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/server"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/tracing"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/version"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())

	if level, err := logger.ParseLevel(cfg.LogLevel); err == nil && !cfg.Debug && !cfg.Verbose {
		logger.SetLogLevel(level)
	}

	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := run(); err != nil {
		logger.Error().Err(err).Msg("exporter failed")
		os.Exit(1)
	}
}

func run() error {
	errFactory := errors.New()

	if err := pid.Write(); err != nil {
		return err
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove pid file")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Endpoint: cfg.OTLPEndpoint,
		Insecure: cfg.OTLPInsecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shut down tracing")
		}
	}()

	sink := metrics.NewPromSink()

	recorder, err := history.NewService(history.Config{
		Enabled: cfg.History,
		DBPath:  cfg.HistoryDB,
	})
	if err != nil {
		return errFactory.Wrap(errors.ErrInitHistory, err)
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close history store")
		}
	}()

	logger.Info().
		Str("version", version.Version).
		Str("commit", version.Commit).
		Msg("powerwall-exporter starting")

	var (
		sessions []*poll.Session
		loops    []*poll.Loop
	)

	for _, site := range cfg.EffectiveSites() {
		client, err := device.New(device.Options{
			Mode:     device.Mode(site.Mode),
			Host:     site.Host,
			Email:    site.Email,
			Password: site.Password,
			Token:    site.Token,
			SiteID:   site.SiteID,
		})
		if err != nil {
			return errFactory.Wrap(errors.ErrInitDevice, err)
		}

		session := poll.NewSession(site.SiteID, device.Mode(site.Mode), time.Now())
		retrier := poll.NewRetrier(client, sink, poll.DefaultRetryPolicy(), site.SiteID, device.Mode(site.Mode))
		loop := poll.NewLoop(session, retrier, sink, recorder, cfg.PollInterval(), nil)

		sessions = append(sessions, session)
		loops = append(loops, loop)
	}

	srv := server.New(cfg.Listen, sessions, sink, sink.Handler(), cfg.StaleThreshold())

	var wg sync.WaitGroup
	for _, loop := range loops {
		wg.Add(1)
		go func(l *poll.Loop) {
			defer wg.Done()
			l.Run(ctx)
		}(loop)
	}

	err = srv.Run(ctx)

	stop()
	wg.Wait()

	if err != nil {
		return err
	}

	logger.Info().Msg("Exiting...")

	return nil
}
