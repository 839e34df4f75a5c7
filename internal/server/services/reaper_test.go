package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaper_Sweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verified(t, "a@x.com", "secret1")
	f.requestReset(t, "a@x.com")
	u, _ := f.manager.Users(nil).GetByEmail(ctx, "a@x.com")

	r := NewReaper(memory.Handle(), f.manager, time.Hour, logging.NewDiscardLogger())

	r.now = func() time.Time { return testNow.Add(time.Minute) }
	require.NoError(t, r.Sweep(ctx))
	n, _ := f.manager.Sessions(nil).CountByUser(ctx, u.ID, testNow)
	assert.Equal(t, 1, n)
	got, _ := f.manager.Users(nil).GetByID(ctx, u.ID)
	assert.NotNil(t, got.ResetCode)

	r.now = func() time.Time { return testNow.Add(31 * 24 * time.Hour) }
	require.NoError(t, r.Sweep(ctx))
	n, _ = f.manager.Sessions(nil).CountByUser(ctx, u.ID, testNow)
	assert.Zero(t, n)
	got, _ = f.manager.Users(nil).GetByID(ctx, u.ID)
	assert.Nil(t, got.ResetCode)
	assert.Nil(t, got.ResetCodeExpires)
}

func TestReaper_DisabledReturnsImmediately(t *testing.T) {
	f := newFixture(t)
	r := NewReaper(memory.Handle(), f.manager, 0, logging.NewDiscardLogger())

	done := make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled reaper kept running")
	}
}

func TestReaper_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	r := NewReaper(memory.Handle(), f.manager, 5*time.Millisecond, logging.NewDiscardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
