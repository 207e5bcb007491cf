package sync

import (
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/fhnwtools/unisync/pkg/errors"
)

// Retrier is the single retry policy for all actions in a run. It retries
// transient failures immediately, bounded by the profile's retry budget;
// permanent failures and exhausted budgets are returned to the caller, which
// records them and moves on to the next action.
type Retrier struct {
	// MaxAttempts bounds the total number of attempts, including the first.
	MaxAttempts int

	// Wait is an optional pause between attempts. Zero means retry
	// immediately.
	Wait time.Duration

	// Classify reports whether an error is transient and worth retrying.
	Classify func(error) bool

	clock clockwork.Clock
}

// NewRetrier builds a retrier from a profile's retry budget. A budget below
// one is normalized to a single attempt.
func NewRetrier(maxRetries int, clock clockwork.Clock) *Retrier {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Retrier{
		MaxAttempts: maxRetries,
		Classify:    errors.IsTransient,
		clock:       clock,
	}
}

// Do runs op until it succeeds, fails permanently, or the attempt budget is
// exhausted. The returned error is the one from the final attempt.
func (r *Retrier) Do(path string, op func() error) error {
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !r.Classify(err) {
			return err
		}
		if attempt >= r.MaxAttempts {
			return err
		}

		log.WithError(err).WithFields(log.Fields{
			"path":    path,
			"attempt": attempt,
			"of":      r.MaxAttempts,
		}).Debug("Transient failure, retrying")

		if r.Wait > 0 {
			r.clock.Sleep(r.Wait)
		}
	}
}
