// Package api wires WellbeingBot together and serves its HTTP surface.
//
// Run builds the store, the chat transport, the bot and the inbound dispatcher
// from module options and supervises them together with the HTTP server:
// a health check, read-only per-user endpoints and the Twilio webhook.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/BTreeMap/WellbeingBot/internal/flow"
	"github.com/BTreeMap/WellbeingBot/internal/genai"
	"github.com/BTreeMap/WellbeingBot/internal/messaging"
	"github.com/BTreeMap/WellbeingBot/internal/store"
	"github.com/BTreeMap/WellbeingBot/internal/twiliowhatsapp"
	"github.com/BTreeMap/WellbeingBot/internal/whatsapp"
)

// Constants for API server configuration
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"
	// DefaultShutdownTimeout bounds the graceful HTTP shutdown
	DefaultShutdownTimeout = 10 * time.Second
	// DefaultReadHeaderTimeout protects the server from slow clients
	DefaultReadHeaderTimeout = 10 * time.Second

	TransportWhatsApp = "whatsapp"
	TransportTwilio   = "twilio"
)

// Opts holds configuration options for the API server and the bot it hosts.
type Opts struct {
	Addr             string
	Transport        string
	TwilioWebhookURL string
	PomodoroDuration time.Duration
	ExpectationTTL   time.Duration
	Workers          int
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the HTTP listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithTransport selects "whatsapp" or "twilio".
func WithTransport(name string) Option {
	return func(o *Opts) { o.Transport = name }
}

// WithTwilioWebhookURL sets the public URL Twilio signs webhook requests with.
func WithTwilioWebhookURL(url string) Option {
	return func(o *Opts) { o.TwilioWebhookURL = url }
}

// WithPomodoroDuration sets the Pomodoro reminder delay.
func WithPomodoroDuration(d time.Duration) Option {
	return func(o *Opts) { o.PomodoroDuration = d }
}

// WithExpectationTTL makes pending expectations expire after d.
func WithExpectationTTL(d time.Duration) Option {
	return func(o *Opts) { o.ExpectationTTL = d }
}

// WithWorkers sets the number of inbound dispatch shards.
func WithWorkers(n int) Option {
	return func(o *Opts) { o.Workers = n }
}

func buildOpts(opts []Option) Opts {
	cfg := Opts{Addr: DefaultServerAddress, Transport: TransportWhatsApp}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultServerAddress
	}
	return cfg
}

// Server hosts the bot and its HTTP surface.
type Server struct {
	addr        string
	transport   string
	st          store.Store
	msgService  messaging.Service
	twilio      *messaging.TwilioService
	timer       *flow.SimpleTimer
	bot         *flow.Bot
	respHandler *messaging.ResponseHandler
	router      http.Handler
}

// NewServer builds the bot over st and msgService. tips may be nil for the static tips.
func NewServer(st store.Store, msgService messaging.Service, tips flow.TipSource, opts ...Option) *Server {
	cfg := buildOpts(opts)

	s := &Server{
		addr:       cfg.Addr,
		transport:  cfg.Transport,
		st:         st,
		msgService: msgService,
		timer:      flow.NewSimpleTimer(),
	}
	if tw, ok := msgService.(*messaging.TwilioService); ok {
		s.twilio = tw
	}

	botOpts := []flow.Option{
		flow.WithTimer(s.timer),
		flow.WithContextStore(flow.NewMemoryContextStore(flow.WithExpectationTTL(cfg.ExpectationTTL))),
		flow.WithPomodoroDuration(cfg.PomodoroDuration),
	}
	if tips != nil {
		botOpts = append(botOpts, flow.WithTipSource(tips))
	}
	s.bot = flow.NewBot(st, msgService, botOpts...)

	handlerOpts := []messaging.HandlerOption{messaging.WithShardCount(cfg.Workers)}
	if dedup, ok := st.(store.DedupRepo); ok {
		handlerOpts = append(handlerOpts, messaging.WithDedup(dedup))
	}
	s.respHandler = messaging.NewResponseHandler(msgService, s.bot, handlerOpts...)
	s.router = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/health", s.healthHandler)
	r.Route("/api/users/{userID}", func(r chi.Router) {
		r.Get("/achievements", s.userAchievementsHandler)
		r.Get("/tasks", s.userTasksHandler)
		r.Get("/summary", s.userSummaryHandler)
	})
	if s.twilio != nil {
		r.Post("/twilio/webhook", s.twilio.TwilioWebhookHandler)
	}
	return r
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the transport, the dispatcher and the HTTP server until ctx is
// cancelled or one of them fails.
func (s *Server) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if err := s.msgService.Start(gctx); err != nil {
		return fmt.Errorf("start messaging service: %w", err)
	}
	s.respHandler.Start(gctx)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}

	g.Go(func() error {
		slog.Info("API server listening", "addr", s.addr, "transport", s.transport)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server HTTP shutdown failed", "error", err)
		}
		if err := s.msgService.Stop(); err != nil {
			slog.Error("Server messaging stop failed", "error", err)
		}
		s.timer.Stop()
		return nil
	})

	g.Go(func() error {
		s.respHandler.Wait()
		return nil
	})

	return g.Wait()
}

// Run builds every module from its options and serves until ctx is cancelled.
func Run(ctx context.Context, storeOpts []store.Option, waOpts []whatsapp.Option, twilioOpts []twiliowhatsapp.Option, genaiOpts []genai.Option, apiOpts []Option) error {
	cfg := buildOpts(apiOpts)

	st, err := store.Open(storeOpts...)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	msgService, err := newTransport(ctx, cfg, waOpts, twilioOpts)
	if err != nil {
		return err
	}

	var tips flow.TipSource
	if client, err := genai.NewClient(genaiOpts...); err == nil {
		slog.Info("Generated tips enabled")
		tips = flow.NewFallbackTipSource(genai.NewTipSource(client), flow.StaticTipSource{})
	} else {
		slog.Info("Generated tips disabled, using static tips", "reason", err)
	}

	return NewServer(st, msgService, tips, apiOpts...).Start(ctx)
}

func newTransport(ctx context.Context, cfg Opts, waOpts []whatsapp.Option, twilioOpts []twiliowhatsapp.Option) (messaging.Service, error) {
	switch cfg.Transport {
	case TransportTwilio:
		client, err := twiliowhatsapp.NewClient(twilioOpts...)
		if err != nil {
			return nil, fmt.Errorf("twilio client: %w", err)
		}
		var opts []messaging.TwilioOption
		if cfg.TwilioWebhookURL != "" {
			opts = append(opts, messaging.WithWebhookURL(cfg.TwilioWebhookURL))
		}
		return messaging.NewTwilioService(client, opts...), nil
	case TransportWhatsApp, "":
		client, err := whatsapp.NewClient(ctx, waOpts...)
		if err != nil {
			return nil, fmt.Errorf("whatsapp client: %w", err)
		}
		return messaging.NewWhatsAppService(client), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
