package transfer

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// idleReader re-arms a timer on every successful read. When the timer fires
// the request context is cancelled, which closes the socket and makes the
// blocked Read return. Bandwidth throttling happens with the timer stopped,
// so a low rate limit is never mistaken for a stalled peer.
type idleReader struct {
	ctx     context.Context
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
	limiter *rate.Limiter
}

func newIdleWatch(timeout time.Duration, cancel context.CancelFunc) (*time.Timer, *atomic.Bool) {
	stalled := new(atomic.Bool)
	if timeout <= 0 {
		return nil, stalled
	}
	t := time.AfterFunc(timeout, func() {
		stalled.Store(true)
		cancel()
	})
	return t, stalled
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n == 0 {
		return n, err
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	if terr := throttle(r.ctx, r.limiter, n); terr != nil {
		return n, terr
	}
	if r.timer != nil {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

// throttle blocks until lim allows n bytes. WaitN rejects n above the burst,
// so large chunks are paid for in burst-sized pieces.
func throttle(ctx context.Context, lim *rate.Limiter, n int) error {
	if lim == nil || lim.Limit() == rate.Inf {
		return nil
	}
	burst := lim.Burst()
	if burst <= 0 {
		return nil
	}
	for n > 0 {
		step := n
		if step > burst {
			step = burst
		}
		if err := lim.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}

// NewLimiter returns a limiter for bytesPerSec, or nil for unlimited.
// The burst is at least one chunk so a full read is never refused outright.
func NewLimiter(bytesPerSec int64) *rate.Limiter {
	if bytesPerSec <= 0 {
		return nil
	}
	burst := int(bytesPerSec)
	if burst < ChunkSize {
		burst = ChunkSize
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}
