package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/atu_queue/kiosk/internal/config"
	"github.com/atu_queue/kiosk/internal/db"
	"github.com/atu_queue/kiosk/internal/events"
	httpapi "github.com/atu_queue/kiosk/internal/http"
	"github.com/atu_queue/kiosk/internal/metrics"
	"github.com/atu_queue/kiosk/internal/routing"
	"github.com/atu_queue/kiosk/internal/routingcfg"
	"github.com/atu_queue/kiosk/internal/sequence"
	"github.com/atu_queue/kiosk/internal/service"
	"github.com/atu_queue/kiosk/internal/ticketapi"
	"github.com/atu_queue/kiosk/internal/tickets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := log.Level(level).With().Str("service", "atu-kiosk").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error().Err(err).Msg("kiosk stopped with error")
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the listener fails. Storage and the
// event publisher are closed on every return path.
func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	kv, err := db.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage %q: %w", cfg.StorageDriver, err)
	}
	defer kv.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	onCorrupt := db.LogRecovery(logger, m)

	merger := &routingcfg.Merger{
		BasePath: cfg.RoutingConfigPath,
		Logger:   logger,
		Metrics:  m,
	}
	if cfg.RemoteConfigURL != "" {
		merger.Remote = routingcfg.NewHTTPFetcher(cfg.RemoteConfigURL, cfg.RemoteTimeout)
	}

	var api ticketapi.Client = ticketapi.NopClient{}
	if cfg.TicketAPIURL != "" {
		api = ticketapi.NewHTTPClient(cfg.TicketAPIURL, cfg.RemoteTimeout)
	} else {
		logger.Info().Msg("ticket api not configured, forwarding is local only")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher = events.NewKafkaPublisher(brokers, cfg.EventsTopic)
		logger.Info().Strs("brokers", brokers).Str("topic", cfg.EventsTopic).Msg("publishing ticket events")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("event publisher close")
		}
	}()

	store := tickets.NewStore(kv, onCorrupt)
	seq := sequence.New(kv, cfg.SequenceSeed, onCorrupt)
	seq.Floor = store.HighestNumber

	svc := &service.IssuingService{
		Config:        merger,
		Router:        routing.New(nil),
		Sequence:      seq,
		Store:         store,
		API:           api,
		Events:        publisher,
		Logger:        logger,
		Metrics:       m,
		RemoteTimeout: cfg.RemoteTimeout,
	}
	defer svc.Wait()

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Port, err)
	}
	srv := &http.Server{
		Handler: httpapi.Router(cfg, kv, svc, reg, logger),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Str("storage", cfg.StorageDriver).Msg("server started")
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
