package sync

import (
	"os"
	goSync "sync"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/fhnwtools/unisync/pkg/errors"
	"github.com/fhnwtools/unisync/pkg/metrics"
	"github.com/fhnwtools/unisync/pkg/profile"
)

// Engine runs synchronization passes. A single Engine may be shared by many
// callers; it enforces that at most one sync is active per profile at any
// time. Starting a second sync for an already-running profile fails
// immediately rather than queuing.
type Engine struct {
	states *StateStore
	clock  clockwork.Clock

	mu      goSync.Mutex
	running map[string]bool
}

// NewEngine creates an engine. states may be nil, in which case bidirectional
// runs always use first-run semantics and no last-sync snapshot is written.
func NewEngine(states *StateStore) *Engine {
	return &Engine{
		states:  states,
		clock:   clockwork.NewRealClock(),
		running: map[string]bool{},
	}
}

// Run executes one synchronization pass for the profile. The observer (which
// may be nil) receives progress updates before and after every action; the
// cancel signal (which may be nil) is checked between actions.
//
// Per-entry failures accumulate in the result and never abort the run. The
// returned error is non-nil only for fatal conditions: an invalid profile, an
// unreachable root, or a sync already running for the profile.
func (e *Engine) Run(p profile.SyncProfile, observer Observer, cancel *CancelSignal) (SyncResult, error) {
	if err := p.Validate(); err != nil {
		return SyncResult{}, err
	}

	key := p.ID
	if key == "" {
		key = p.Name
	}
	if !e.acquire(key) {
		return SyncResult{}, errors.SyncInProgress{Profile: p.Name}
	}
	defer e.release(key)

	start := e.clock.Now()

	filter, err := NewFilter(p.Rules)
	if err != nil {
		return SyncResult{}, err
	}

	if err := checkRoot(p.Source); err != nil {
		return SyncResult{}, err
	}

	srcRoot := p.Source.Path
	dstRoot := p.Destination.Path

	destExists, statErr := dirExists(dstRoot)
	if statErr != nil && !os.IsNotExist(statErr) {
		return SyncResult{}, rootError(p.Destination, statErr)
	}
	if !destExists {
		// A missing remote destination means the share isn't mounted, and a
		// missing destination in a bidirectional run would make every
		// destination path look deleted since the last sync. Both fail fast.
		// Only a missing local one-way destination is created.
		if p.Direction == profile.DirectionBidirectional || p.Destination.IsRemote {
			return SyncResult{}, rootError(p.Destination, statErr)
		}
		if !p.DryRun {
			if err := fs.MkdirAll(dstRoot, 0755); err != nil {
				return SyncResult{}, errors.WithContext(
					errors.ClassifyIO(dstRoot, err), "create destination root")
			}
			destExists = true
		}
	}

	source, sourceScanErrs, err := ScanTree(srcRoot, filter)
	if err != nil {
		return SyncResult{}, errors.WithContext(err, "scan source")
	}

	dest := Snapshot{}
	var destScanErrs []ScanError
	if destExists {
		dest, destScanErrs, err = ScanTree(dstRoot, filter)
		if err != nil {
			return SyncResult{}, errors.WithContext(err, "scan destination")
		}
	}

	result := SyncResult{
		DryRun:     p.DryRun,
		ScanErrors: append(sourceScanErrs, destScanErrs...),
	}

	if p.Direction == profile.DirectionBidirectional {
		last := e.loadLastSync(key)
		result.Actions, result.Conflicts = PlanBidirectional(source, dest, last, p.Mode)
	} else {
		result.Actions = PlanActions(Classify(source, dest), p.Mode)
	}

	e.execute(p, &result, observer, cancel, srcRoot, dstRoot)

	result.Duration = e.clock.Now().Sub(start)

	if !result.DryRun && !result.Cancelled {
		e.saveLastSync(key, srcRoot, filter)
	}

	log.WithFields(log.Fields{
		"profile":   p.Name,
		"copied":    result.Copied,
		"deleted":   result.Deleted,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
		"conflicts": len(result.Conflicts),
		"duration":  result.Duration,
		"dryRun":    result.DryRun,
		"cancelled": result.Cancelled,
	}).Info("Sync finished")

	return result, nil
}

func (e *Engine) execute(p profile.SyncProfile, result *SyncResult,
	observer Observer, cancel *CancelSignal, srcRoot, dstRoot string) {

	ex := executor{
		throttle:      NewThrottle(p.BandwidthLimit),
		preservePerms: p.PreservePermissions,
		preserveTimes: p.PreserveTimestamps,
	}
	retrier := NewRetrier(p.MaxRetries, e.clock)

	total := len(result.Actions)
	processed := 0
	emit := func(action SyncAction) {
		if observer == nil {
			return
		}
		observer.Progress(Progress{
			Processed:        processed,
			Total:            total,
			BytesTransferred: result.BytesTransferred,
			CurrentPath:      action.Path,
			CurrentKind:      action.Kind,
		})
	}

	for _, action := range result.Actions {
		if cancel.Cancelled() {
			result.Cancelled = true
			return
		}
		emit(action)

		if result.DryRun {
			e.tally(p, result, action, action.Record.Size)
			processed++
			emit(action)
			continue
		}

		switch action.Kind {
		case ActionSkip:
			result.Skipped++

		case ActionCopy:
			fromRoot, toRoot := rootsFor(action.Source, srcRoot, dstRoot)
			var written int64
			err := retrier.Do(action.Path, func() error {
				var copyErr error
				written, copyErr = ex.copyEntry(fromRoot, toRoot, action.Record)
				return copyErr
			})
			if err != nil {
				e.fail(p, result, action, err)
				processed++
				emit(action)
				continue
			}
			e.tally(p, result, action, written)

		case ActionDelete:
			_, toRoot := rootsFor(action.Source, srcRoot, dstRoot)
			err := retrier.Do(action.Path, func() error {
				return ex.deleteEntry(toRoot, action.Path)
			})
			if err != nil {
				e.fail(p, result, action, err)
				processed++
				emit(action)
				continue
			}
			e.tally(p, result, action, 0)
		}

		processed++
		emit(action)
	}
}

func (e *Engine) tally(p profile.SyncProfile, result *SyncResult, action SyncAction, bytes int64) {
	switch action.Kind {
	case ActionCopy:
		result.Copied++
		result.BytesTransferred += bytes
		if !result.DryRun {
			metrics.FilesCopied.WithLabelValues(p.Name).Inc()
			metrics.BytesTransferred.WithLabelValues(p.Name).Add(float64(bytes))
		}
	case ActionDelete:
		result.Deleted++
		if !result.DryRun {
			metrics.FilesDeleted.WithLabelValues(p.Name).Inc()
		}
	case ActionSkip:
		result.Skipped++
	}
}

func (e *Engine) fail(p profile.SyncProfile, result *SyncResult, action SyncAction, err error) {
	result.Failed++
	result.Errors = append(result.Errors, ActionError{Action: action, Err: err})
	metrics.FilesFailed.WithLabelValues(p.Name).Inc()
	log.WithError(err).WithFields(log.Fields{
		"path": action.Path,
		"kind": action.Kind,
	}).Warn("Action failed permanently")
}

// loadLastSync returns the persisted last-sync snapshot, or nil for first-run
// semantics. Load failures are logged, not fatal: a corrupt snapshot
// downgrades the run to a first sync instead of blocking it.
func (e *Engine) loadLastSync(key string) Snapshot {
	if e.states == nil {
		return nil
	}

	last, ok, err := e.states.Load(key)
	if err != nil {
		log.WithError(err).WithField("profile", key).
			Warn("Failed to load last-sync snapshot, treating as first run")
		return nil
	}
	if !ok {
		return nil
	}
	return last
}

// saveLastSync rescans the source after a successful run and persists it as
// the new baseline for bidirectional change detection.
func (e *Engine) saveLastSync(key, srcRoot string, filter *Filter) {
	if e.states == nil {
		return
	}

	snapshot, _, err := ScanTree(srcRoot, filter)
	if err != nil {
		log.WithError(err).WithField("profile", key).
			Warn("Failed to rescan source for the last-sync snapshot")
		return
	}
	if err := e.states.Save(key, snapshot); err != nil {
		log.WithError(err).WithField("profile", key).
			Warn("Failed to persist last-sync snapshot")
	}
}

func (e *Engine) acquire(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running[key] {
		return false
	}
	e.running[key] = true
	return true
}

func (e *Engine) release(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.running, key)
}

// rootsFor orients a copy according to the action's source side. Deletes
// always apply to the side opposite the source.
func rootsFor(side Side, srcRoot, dstRoot string) (fromRoot, toRoot string) {
	if side == SideDestination {
		return dstRoot, srcRoot
	}
	return srcRoot, dstRoot
}

// checkRoot fails fast when a sync root is missing.
func checkRoot(loc profile.SyncLocation) error {
	exists, err := dirExists(loc.Path)
	if err != nil || !exists {
		return rootError(loc, err)
	}
	return nil
}

// rootError maps a missing or unreadable sync root to a fatal error. A
// permission failure is reported as such; otherwise missing remote roots are
// reported as the network being unreachable, since the engine itself never
// mounts anything.
func rootError(loc profile.SyncLocation, err error) error {
	if err != nil && os.IsPermission(err) {
		return errors.PermissionDenied{Path: loc.Path}
	}
	if loc.IsRemote {
		return errors.NetworkUnavailable{Path: loc.Path}
	}
	return errors.PathNotFound{Path: loc.Path}
}

func dirExists(path string) (bool, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
