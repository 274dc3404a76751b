package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"codeinterview/internal/cache"
	"codeinterview/internal/clock"
	"codeinterview/internal/config"
	"codeinterview/internal/repository"
	"codeinterview/internal/service"
	"codeinterview/internal/transport/rest"
	"codeinterview/internal/transport/rest/middleware"
	"codeinterview/internal/transport/ws"

	"github.com/redis/go-redis/v9"
	tally "github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires the interview relay server. It expects a *config.Config to
// be supplied.
var Module = fx.Options(
	LoggerModule,
	MetricsModule,
	StoreModule,
	RelayModule,
	RateLimitModule,
	HTTPModule,
)

// LoggerModule provides the zap loggers
var LoggerModule = fx.Options(
	fx.Provide(NewSugaredLogger),
	fx.Provide(NewLogger),
)

// MetricsModule provides the root tally scope, flushed and closed on stop
var MetricsModule = fx.Provide(func(lc fx.Lifecycle) tally.Scope {
	rs, closer := tally.NewRootScope(tally.ScopeOptions{
		Tags: map[string]string{
			"service": "codeinterview",
		},
	}, 1*time.Second)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return closer.Close()
		},
	})

	return rs
})

// StoreModule provides the session store and the room registry
var StoreModule = fx.Options(
	fx.Provide(clock.New),
	fx.Provide(newSessionRepo),
	fx.Provide(service.NewRoomService),
)

// RelayModule provides the WebSocket hub, the event relay and the reaper
var RelayModule = fx.Options(
	fx.Provide(newHub),
	fx.Provide(func(h *ws.Hub) service.Broadcaster { return h }),
	fx.Provide(service.NewRelay),
	fx.Provide(func(r *service.Relay) ws.EventHandler { return r }),
	fx.Provide(newWSOptions),
	fx.Provide(ws.NewHandler),
	fx.Provide(newReaper),
	fx.Invoke(func(*service.Reaper) {}),
)

// RateLimitModule provides the optional Redis backed limiter for session creation
var RateLimitModule = fx.Provide(newCreateLimiter)

// HTTPModule serves the REST API and the WebSocket endpoint
var HTTPModule = fx.Options(
	fx.Provide(newRouter),
	fx.Invoke(startHTTPServer),
)

// NewLogger exposes the desugared logger for fxevent
func NewLogger(sugar *zap.SugaredLogger) *zap.Logger {
	return sugar.Desugar()
}

// NewSugaredLogger builds a development console logger unless APP_ENV asks
// for production, then reports configuration fallbacks.
func NewSugaredLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	zc := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	sugar := logger.Sugar()
	for _, w := range cfg.Warnings {
		sugar.Warn(w)
	}
	return sugar, nil
}

func newSessionRepo(cfg *config.Config, clk clock.Clock, stats tally.Scope) repository.SessionRepo {
	return repository.NewSessionRepo(
		repository.WithLinkBase(cfg.FrontendURL),
		repository.WithClock(clk),
		repository.WithScope(stats),
	)
}

func newHub(lc fx.Lifecycle, logger *zap.SugaredLogger, stats tally.Scope) *ws.Hub {
	hub := ws.NewHub(logger, stats)
	lc.Append(fx.StopHook(hub.Close))
	return hub
}

func newWSOptions(cfg *config.Config) ws.Options {
	return ws.Options{
		MaxMessageSize: cfg.WSMaxMessageBytes,
		SendBuffer:     cfg.WSSendBuffer,
		AllowedOrigins: cfg.AllowedOrigins,
	}
}

type reaperParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Sessions  repository.SessionRepo
	Clock     clock.Clock
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
}

func newReaper(p reaperParams) *service.Reaper {
	r := service.NewReaper(p.Sessions, p.Config.ReaperInterval, p.Config.ReaperMaxAge, p.Clock, p.Logger, p.Stats)
	p.Lifecycle.Append(fx.StartStopHook(r.Start, r.Stop))
	return r
}

// CreateLimiter holds the session creation limiter; Limiter is nil when no
// Redis backend is configured.
type CreateLimiter struct {
	Limiter *middleware.RateLimiter
}

type limiterParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Clock     clock.Clock
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
}

func newCreateLimiter(p limiterParams) (CreateLimiter, error) {
	if !p.Config.RateLimitEnabled() {
		p.Logger.Info("REDIS_URI not set, session creation is not rate limited")
		return CreateLimiter{}, nil
	}

	opts, err := redis.ParseURL(p.Config.RedisURI)
	if err != nil {
		return CreateLimiter{}, err
	}
	client := redis.NewClient(opts)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// The limiter fails open, so an unreachable Redis only degrades it.
			if err := client.Ping(ctx).Err(); err != nil {
				p.Logger.Warnw("redis unreachable, rate limiting will fail open", "addr", opts.Addr, "error", err)
				return nil
			}
			p.Logger.Infow("rate limiting enabled", "addr", opts.Addr,
				"limit", p.Config.RateLimitCreate, "window", p.Config.RateLimitWindow)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	store := cache.NewRateLimitCache(client, "ratelimit:", p.Clock)
	return CreateLimiter{
		Limiter: middleware.NewRateLimiter(store, "sessions.create", p.Config.RateLimitCreate, p.Config.RateLimitWindow, p.Logger, p.Stats),
	}, nil
}

type routerParams struct {
	fx.In

	Config    *config.Config
	Sessions  repository.SessionRepo
	WSHandler *ws.Handler
	Limiter   CreateLimiter
	Clock     clock.Clock
	Logger    *zap.SugaredLogger
}

func newRouter(p routerParams) http.Handler {
	return rest.NewRouter(&rest.Container{
		Sessions:       p.Sessions,
		WSHandler:      p.WSHandler,
		CreateLimiter:  p.Limiter.Limiter,
		Clock:          p.Clock,
		Logger:         p.Logger,
		AllowedOrigins: p.Config.AllowedOrigins,
	})
}

func startHTTPServer(lc fx.Lifecycle, cfg *config.Config, handler http.Handler, logger *zap.SugaredLogger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Infow("server listening", "addr", ln.Addr().String(), "env", cfg.AppEnv)
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Errorw("server error", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down server")
			return srv.Shutdown(ctx)
		},
	})
}
