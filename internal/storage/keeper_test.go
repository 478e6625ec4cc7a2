package storage

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer lets a test read log output while the keeper goroutine writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type brokenPinger struct {
	calls atomic.Int32
}

func (p *brokenPinger) PingContext(ctx context.Context) error {
	p.calls.Add(1)
	return errors.New("broken pipe")
}

func TestPingLoopReportsFailures(t *testing.T) {
	var buf syncBuffer
	p := &brokenPinger{}
	k := startKeeper(func(ctx context.Context) {
		pingLoop(ctx, p, 5*time.Millisecond, log.New(&buf))
	})

	require.Eventually(t, func() bool { return p.calls.Load() >= 2 }, 2*time.Second, time.Millisecond)
	k.stop()

	assert.Contains(t, buf.String(), "connection error")
	assert.Contains(t, buf.String(), "broken pipe")
}

func TestPingLoopDisabled(t *testing.T) {
	p := &brokenPinger{}
	k := startKeeper(func(ctx context.Context) {
		pingLoop(ctx, p, 0, log.New(&bytes.Buffer{}))
	})

	done := make(chan struct{})
	go func() {
		k.stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("keeper did not stop")
	}
	assert.Zero(t, p.calls.Load())
}

func TestKeeperStopNil(t *testing.T) {
	var k *keeper
	k.stop()
}
