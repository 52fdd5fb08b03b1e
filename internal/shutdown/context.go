// Package shutdown ties process signals to context cancellation.
package shutdown

import (
	"context"
	"os"
	"os/signal"
)

// InterruptContext returns a context that is cancelled when one of signals
// arrives or when the returned cancel func is called.
func InterruptContext(ctx context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	go func() {
		defer signal.Stop(ch)
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
