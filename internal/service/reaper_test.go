package service

import (
	"context"
	"testing"
	"time"

	"codeinterview/internal/clock"
	"codeinterview/internal/model"
	"codeinterview/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally/v4"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestReaper_Sweep(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	sessions := repository.NewSessionRepo(repository.WithClock(clk))
	scope := tally.NewTestScope("", nil)
	reaper := NewReaper(sessions, time.Minute, time.Hour, clk, zap.NewNop().Sugar(), scope)

	idle := sessions.Create(ctx, model.CreateSessionRequest{}).ID
	busy := sessions.Create(ctx, model.CreateSessionRequest{}).ID
	_, err := sessions.AddParticipant(ctx, busy, "c1", "")
	require.NoError(t, err)

	assert.Zero(t, reaper.Sweep(ctx), "nothing is old enough")

	clk.Advance(time.Hour)
	assert.Zero(t, reaper.Sweep(ctx), "age must exceed the threshold")

	clk.Advance(time.Second)
	young := sessions.Create(ctx, model.CreateSessionRequest{}).ID
	assert.Equal(t, 1, reaper.Sweep(ctx))

	assert.False(t, sessions.Exists(ctx, idle))
	assert.True(t, sessions.Exists(ctx, busy), "sessions with participants survive any age")
	assert.True(t, sessions.Exists(ctx, young))

	clk.Advance(24 * time.Hour)
	assert.Equal(t, 1, reaper.Sweep(ctx))
	assert.True(t, sessions.Exists(ctx, busy))

	require.True(t, sessions.RemoveParticipant(ctx, busy, "c1"))
	assert.Equal(t, 1, reaper.Sweep(ctx))
	assert.Empty(t, sessions.List(ctx))

	assert.Equal(t, int64(3), counterValue(scope, "reaper.deleted", nil))
}

func TestReaper_StartStop(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock(time.Now())
	sessions := repository.NewSessionRepo(repository.WithClock(clk))
	sessions.Create(ctx, model.CreateSessionRequest{})
	clk.Advance(2 * time.Hour)

	reaper := NewReaper(sessions, 5*time.Millisecond, time.Hour, clk, zap.NewNop().Sugar(), tally.NoopScope)
	reaper.Start()

	assert.Eventually(t, func() bool {
		return len(sessions.List(ctx)) == 0
	}, time.Second, 5*time.Millisecond)

	reaper.Stop()
	reaper.Stop()
}

func counterValue(scope tally.TestScope, name string, tags map[string]string) int64 {
	var total int64
	for _, c := range scope.Snapshot().Counters() {
		if c.Name() != name {
			continue
		}
		match := true
		for k, v := range tags {
			if c.Tags()[k] != v {
				match = false
			}
		}
		if match {
			total += c.Value()
		}
	}
	return total
}
