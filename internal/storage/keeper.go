package storage

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// keeper runs the single background task that owns connection-level
// events for a store. It shares nothing with callers besides the handle.
type keeper struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func startKeeper(run func(ctx context.Context)) *keeper {
	ctx, cancel := context.WithCancel(context.Background())
	k := &keeper{cancel: cancel}
	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		run(ctx)
	}()
	return k
}

func (k *keeper) stop() {
	if k == nil {
		return
	}
	k.cancel()
	k.wg.Wait()
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// pingLoop checks the connection every interval and reports failures.
// A zero interval parks until the store closes.
func pingLoop(ctx context.Context, db pinger, every time.Duration, logger *log.Logger) {
	if every <= 0 {
		<-ctx.Done()
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := db.PingContext(ctx); err != nil && ctx.Err() == nil {
				logger.Error("connection error", "err", err)
			}
		}
	}
}
