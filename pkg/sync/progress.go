package sync

import "sync/atomic"

// Progress is a point-in-time view of a running sync, emitted before and
// after every action.
type Progress struct {
	// Processed counts actions finished so far; Total is the length of the
	// planned action list.
	Processed int
	Total     int

	BytesTransferred int64

	CurrentPath string
	CurrentKind ActionKind
}

// Observer receives progress updates. Implementations must be safe to call
// from the goroutine running the sync, which is not the caller's.
type Observer interface {
	Progress(Progress)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Progress)

// Progress implements Observer.
func (f ObserverFunc) Progress(p Progress) {
	f(p)
}

// CancelSignal is a cooperative cancellation flag. The engine checks it
// between actions, so the response granularity is "after the current file".
// Cancel may be called from any goroutine; a nil signal never fires.
type CancelSignal struct {
	fired int32
}

// NewCancelSignal returns an unfired signal.
func NewCancelSignal() *CancelSignal {
	return &CancelSignal{}
}

// Cancel requests that the sync stop dispatching new actions. The in-flight
// action is allowed to finish.
func (s *CancelSignal) Cancel() {
	if s != nil {
		atomic.StoreInt32(&s.fired, 1)
	}
}

// Cancelled reports whether cancellation was requested.
func (s *CancelSignal) Cancelled() bool {
	return s != nil && atomic.LoadInt32(&s.fired) == 1
}
