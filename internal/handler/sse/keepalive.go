package sse

import (
	"log/slog"
	"time"
)

// PingWriter is the subset of EventWriter the keep-alive loop needs.
type PingWriter interface {
	WritePing() error
}

// KeepAlive sends periodic pings on an SSE connection until stopped or a
// write fails.
type KeepAlive struct {
	interval time.Duration
	done     chan struct{}
}

// NewKeepAlive creates a ticker-based keep-alive with the given interval.
func NewKeepAlive(interval time.Duration) *KeepAlive {
	return &KeepAlive{
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins pinging in a background goroutine. The returned channel closes
// when the loop exits, whether by Stop or by a failed write.
func (k *KeepAlive) Start(writer PingWriter, logger *slog.Logger) <-chan struct{} {
	stopped := make(chan struct{})
	ticker := time.NewTicker(k.interval)

	go func() {
		defer close(stopped)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := writer.WritePing(); err != nil {
					logger.Warn("keep-alive ping failed, stopping", "error", err)
					return
				}
			case <-k.done:
				return
			}
		}
	}()

	return stopped
}

// Stop terminates the keep-alive loop. Safe to call more than once.
func (k *KeepAlive) Stop() {
	select {
	case <-k.done:
	default:
		close(k.done)
	}
}
