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

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/hpwn/mockchat/internal/config"
	"github.com/hpwn/mockchat/internal/configreporter"
	"github.com/hpwn/mockchat/internal/eventsub"
	httpapi "github.com/hpwn/mockchat/internal/http"
	"github.com/hpwn/mockchat/internal/logging"
	"github.com/hpwn/mockchat/internal/metrics"
	"github.com/hpwn/mockchat/internal/relay"
	"github.com/hpwn/mockchat/internal/session"
	"github.com/hpwn/mockchat/internal/tokenfile"
	"github.com/hpwn/mockchat/internal/ws"
	"github.com/hpwn/mockchat/routes"
)

const shutdownTimeout = 15 * time.Second

// listener is one HTTP server and how to start it.
type listener struct {
	name  string
	srv   *http.Server
	serve func() error
}

func main() {
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "mockchat: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mockchat: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	for _, warning := range cfg.Warnings {
		logger.Named("config").Warn(warning)
	}

	reporter := configreporter.NewReporter(*cfg)
	if summary, err := reporter.SummaryJSON(); err == nil {
		logger.Info("config loaded", zap.ByteString("summary", summary))
	}

	tokens := tokenfile.New(cfg.TokenFile)
	if err := tokens.Save(cfg.Channel.AccessToken); err != nil {
		logger.Named("tokenfile").Warn("failed to export access token", zap.String("path", tokens.Path()), zap.Error(err))
	} else if tokens.Path() != "" {
		logger.Named("tokenfile").Info("access token exported", zap.String("path", tokens.Path()))
	}

	m := metrics.New()
	registry := session.NewRegistry(func(e session.Entry, delta int) {
		m.SessionDelta(string(e.Role), string(e.Endpoint), delta)
	})
	translator := eventsub.NewTranslator(
		eventsub.Broadcaster{UserID: cfg.Channel.BroadcasterID, Login: cfg.Channel.BroadcasterLogin},
		eventsub.WithKeepalive(cfg.Websocket.PongWait),
	)
	coord := relay.New(registry, translator, m, logger.Named("relay"))

	socket := ws.NewHandler(coord, ws.Options{
		PingInterval:    cfg.Websocket.PingInterval,
		PongWait:        cfg.Websocket.PongWait,
		WriteDeadline:   cfg.Websocket.WriteDeadline,
		MaxMessageBytes: cfg.Websocket.MaxMessageBytes,
	}, cfg.HTTP.AllowedOrigins, logger.Named("ws"), m)

	r := mux.NewRouter()
	socket.Register(r)
	api := routes.New(coord, cfg.Channel, logger.Named("routes"))
	api.SetupMockRoutes(r)
	api.SetupDevRoutes(r, cfg.Dev.SeedEnabled, cfg.IsProduction())
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.HTTP.StaticDir)))

	rootMux := http.NewServeMux()
	httpapi.RegisterHealth(rootMux, func() httpapi.SessionCounts {
		sessions := coord.Registry()
		return httpapi.SessionCounts{Browsers: len(sessions.Browsers()), Bots: len(sessions.Bots())}
	})
	httpapi.RegisterConfigz(rootMux, reporter.Snapshot)
	httpapi.RegisterMetrics(rootMux, m.Handler())
	rootMux.Handle("/", r)

	accessLog := logging.Writer(logger.Named("http"), zapcore.DebugLevel)
	handler := handlers.CombinedLoggingHandler(accessLog, corsHandler(cfg.HTTP.AllowedOrigins)(rootMux))

	listeners := []listener{newListener("http", cfg.HTTP.Addr, handler, nil)}
	if cfg.HTTP.TLSEnabled() {
		listeners = append(listeners, newListener("https", cfg.HTTP.TLSAddr, handler, cfg))
	} else if cfg.HTTP.TLSAddr != "" {
		logger.Info("tls listener disabled; set cert_file and key_file to enable it")
	}
	if cfg.HTTP.EventSubAddr != "" {
		eventsubMux := mux.NewRouter()
		eventsubMux.HandleFunc("/", socket.ServeEventSub).Methods(http.MethodGet)
		listeners = append(listeners, newListener("eventsub", cfg.HTTP.EventSubAddr,
			handlers.CombinedLoggingHandler(accessLog, eventsubMux), nil))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range listeners {
		l := l
		g.Go(func() error {
			logger.Info("starting server", zap.String("listener", l.name), zap.String("addr", l.srv.Addr))
			if err := l.serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s listener: %w", l.name, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		coord.Shutdown()
		for _, l := range listeners {
			if err := l.srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("shutdown", zap.String("listener", l.name), zap.Error(err))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// newListener builds a server; tlsCfg selects ListenAndServeTLS.
func newListener(name, addr string, handler http.Handler, tlsCfg *config.Config) listener {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serve := srv.ListenAndServe
	if tlsCfg != nil {
		serve = func() error {
			return srv.ListenAndServeTLS(tlsCfg.HTTP.CertFile, tlsCfg.HTTP.KeyFile)
		}
	}
	return listener{name: name, srv: srv, serve: serve}
}

func corsHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := []handlers.CORSOption{
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Client-Id", "Content-Type"}),
	}
	if len(allowedOrigins) > 0 {
		opts = append(opts, handlers.AllowedOrigins(allowedOrigins), handlers.AllowCredentials())
	}
	return handlers.CORS(opts...)
}
