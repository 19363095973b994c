package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/util/labels"
)

// DefaultStaleAfter is how long a RUNNING document blocks other runs.
const DefaultStaleAfter = 10 * time.Minute

// ErrConcurrentRun is returned by Begin when another run is in progress.
var ErrConcurrentRun = errors.New("another failover run is in progress")

// Recorder records one failover run in the state document.
type Recorder struct {
	store      *Store
	instanceID string
	runID      string
	staleAfter time.Duration
	labels     map[string]string
	log        logr.Logger

	doc *Document
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithStaleAfter sets how old a RUNNING document must be before it is
// ignored.
func WithStaleAfter(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.staleAfter = d
		}
	}
}

// WithLabels adds labels to the recorded document.
func WithLabels(extra map[string]string) RecorderOption {
	return func(r *Recorder) {
		r.labels = labels.Merge(r.labels, extra)
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) RecorderOption {
	return func(r *Recorder) {
		r.log = log
	}
}

// NewRecorder creates a Recorder with a fresh run ID.
func NewRecorder(store *Store, instanceID string, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:      store,
		instanceID: instanceID,
		runID:      uuid.NewString(),
		staleAfter: DefaultStaleAfter,
		log:        logr.Discard(),
	}
	r.labels = map[string]string{labels.KeyManagedBy: labels.ManagedByHafloat}
	for _, opt := range opts {
		opt(r)
	}
	r.labels[labels.KeyRunID] = r.runID
	return r
}

// RunID returns the ID written to the document.
func (r *Recorder) RunID() string { return r.runID }

// Begin marks the run RUNNING. It fails with ErrConcurrentRun when a
// different run updated the document less than staleAfter ago.
func (r *Recorder) Begin(ctx context.Context, in failover.Inputs) error {
	current, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	now := r.store.now()
	if current.InProgress(now, r.staleAfter) && current.RunID != r.runID {
		return fmt.Errorf("%w: run %s started %s ago", ErrConcurrentRun,
			current.RunID, now.Sub(current.StartedAt).Round(time.Second))
	}
	if current.TaskState == TaskRunning && !current.Empty() {
		r.log.Info("taking over stale run", "staleRun", current.RunID, "lastUpdated", current.LastUpdated)
	}

	r.doc = &Document{
		TaskState:         TaskRunning,
		RunID:             r.runID,
		InstanceID:        r.instanceID,
		StartedAt:         now.UTC(),
		LocalAddresses:    in.LocalAddresses,
		FailoverAddresses: in.FailoverAddresses,
		Labels:            r.labels,
	}
	if err := r.store.Save(ctx, r.doc); err != nil {
		return err
	}
	r.log.V(1).Info("run started", "run", r.runID, "state", r.store.Location())
	return nil
}

// Finish records the outcome of the run. runErr nil means success.
func (r *Recorder) Finish(ctx context.Context, set *failover.OperationSet, runErr error) error {
	if r.doc == nil {
		return errors.New("state: Finish called before Begin")
	}
	r.doc.Operations = set
	if runErr != nil {
		r.doc.TaskState = TaskFailed
		r.doc.Message = runErr.Error()
	} else {
		r.doc.TaskState = TaskSucceeded
		r.doc.Message = fmt.Sprintf("applied %d operations", set.Count())
	}
	if err := r.store.Save(ctx, r.doc); err != nil {
		return err
	}
	r.log.V(1).Info("run finished", "run", r.runID, "taskState", r.doc.TaskState)
	return nil
}
