package app

import (
	"testing"
	"time"

	"codeinterview/internal/config"
	"codeinterview/internal/repository"
	"codeinterview/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		AppEnv:            "test",
		FrontendURL:       "http://localhost:5173",
		AllowedOrigins:    []string{"*"},
		RateLimitCreate:   30,
		RateLimitWindow:   time.Minute,
		ReaperInterval:    time.Minute,
		ReaperMaxAge:      time.Hour,
		WSMaxMessageBytes: 1 << 20,
		WSSendBuffer:      16,
		ShutdownTimeout:   time.Second,
	}
}

func TestModule_Validate(t *testing.T) {
	require.NoError(t, fx.ValidateApp(fx.Supply(testConfig()), Module))
}

func TestModule_StartStop(t *testing.T) {
	var (
		sessions repository.SessionRepo
		relay    *service.Relay
		limiter  CreateLimiter
	)
	app := fxtest.New(t,
		fx.Supply(testConfig()),
		Module,
		fx.Populate(&sessions, &relay, &limiter),
	)

	app.RequireStart()
	assert.NotNil(t, sessions)
	assert.NotNil(t, relay)
	assert.Nil(t, limiter.Limiter, "no redis configured")
	app.RequireStop()
}

func TestModule_RateLimitWithRedisURI(t *testing.T) {
	cfg := testConfig()
	cfg.RedisURI = "redis://127.0.0.1:1/0"

	var limiter CreateLimiter
	app := fxtest.New(t, fx.Supply(cfg), Module, fx.Populate(&limiter))

	app.RequireStart()
	assert.NotNil(t, limiter.Limiter)
	app.RequireStop()
}

func TestModule_BadRedisURI(t *testing.T) {
	cfg := testConfig()
	cfg.RedisURI = "not a url"

	app := fx.New(fx.Supply(cfg), Module, fx.NopLogger)
	assert.Error(t, app.Err())
}
