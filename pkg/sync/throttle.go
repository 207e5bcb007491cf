package sync

import (
	"context"

	"golang.org/x/time/rate"
)

// throttleChunk is the copy buffer size. Throttled copies acquire tokens from
// the limiter one chunk at a time, so aggregate throughput stays under the
// configured rate no matter how many copies a run performs.
const throttleChunk = 32 * 1024

// Throttle paces copy throughput with a token bucket. A nil *Throttle means
// no limit: every method is nil-safe and copies proceed at native I/O speed.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle returns a throttle for the given rate in KB/s, or nil when the
// rate is zero (unlimited).
func NewThrottle(kbPerSec int64) *Throttle {
	if kbPerSec <= 0 {
		return nil
	}

	bytesPerSec := kbPerSec * 1024
	burst := int64(throttleChunk)
	if burst > bytesPerSec {
		burst = bytesPerSec
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(bytesPerSec), int(burst))}
}

// Wait blocks until n more bytes may be transferred.
func (t *Throttle) Wait(n int) {
	if t == nil || n <= 0 {
		return
	}

	burst := t.limiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		// WaitN only fails on context cancellation or an infeasible request,
		// neither of which can happen here.
		_ = t.limiter.WaitN(context.Background(), chunk)
		n -= chunk
	}
}
