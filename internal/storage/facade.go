package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/hard75/internal/api"
	"github.com/julianstephens/hard75/internal/cache"
	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/logger"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/utils"
)

// Remote is the subset of the API client the façade depends on.
type Remote interface {
	GetProfile(ctx context.Context) api.Result[models.UserProfile]
	CreateProfile(ctx context.Context, req models.CreateProfileRequest) api.Result[models.UserProfile]
	UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) api.Result[models.UserProfile]
	GetChallenges(ctx context.Context) api.Result[[]models.Challenge]
	CreateChallenge(ctx context.Context, req models.CreateChallengeRequest) api.Result[models.Challenge]
	UpdateChallenge(ctx context.Context, req models.UpdateChallengeRequest) api.Result[models.Challenge]
	GetTasks(ctx context.Context) api.Result[[]models.CustomTask]
	CreateTask(ctx context.Context, req models.CreateTaskRequest) api.Result[models.CustomTask]
	UpdateTask(ctx context.Context, req models.UpdateTaskRequest) api.Result[models.CustomTask]
	DeleteTask(ctx context.Context, req models.DeleteTaskRequest) api.Result[string]
	InitializeDefaultTasks(ctx context.Context, reqs []models.CreateTaskRequest) api.Result[api.DefaultTasks]
	CompleteTask(ctx context.Context, req models.CompleteTaskRequest) api.Result[models.CompleteTaskResponse]
	GetCompletions(ctx context.Context, date string) api.Result[models.DayCompletions]
	Health(ctx context.Context) api.Result[models.HealthStatus]
}

// Outcome says where a write ended up.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied_remotely"
	OutcomePending  Outcome = "pending_sync"
	OutcomeRejected Outcome = "rejected"
)

// ReadResult is the outcome of a façade read. FromCache is set when the
// data came from the local cache instead of a fresh remote call.
type ReadResult[T any] struct {
	Data      T
	FromCache bool
	Err       *apperrors.AppError
}

// OK reports whether Data is usable.
func (r ReadResult[T]) OK() bool {
	return r.Err == nil
}

// WriteResult is the outcome of a façade write. Pending writes carry a
// QUEUED_FOR_SYNC error whose cause, if any, is the failure that forced
// the change into the queue.
type WriteResult[T any] struct {
	Success bool
	Data    T
	Outcome Outcome
	Err     *apperrors.AppError
}

func applied[T any](v T) WriteResult[T] {
	return WriteResult[T]{Success: true, Data: v, Outcome: OutcomeApplied}
}

func pending[T any](v T, cause *apperrors.AppError, success bool) WriteResult[T] {
	return WriteResult[T]{Success: success, Data: v, Outcome: OutcomePending, Err: apperrors.Queued(cause)}
}

func rejected[T any](err *apperrors.AppError) WriteResult[T] {
	return WriteResult[T]{Outcome: OutcomeRejected, Err: err}
}

// Options tunes a Facade. Zero values use the defaults in constants.
type Options struct {
	SyncInterval  time.Duration
	ProbeInterval time.Duration
	// Offline starts the façade disconnected until SetOnline or a probe says otherwise.
	Offline    bool
	Now        func() time.Time
	Classifier *apperrors.Classifier
}

type subscriber struct {
	id int
	fn func(models.SyncStatus)
}

// Facade is the single entry point for reading and writing challenge data.
// It is safe for concurrent use.
type Facade struct {
	remote        Remote
	cache         *cache.Cache
	classifier    *apperrors.Classifier
	now           func() time.Time
	syncInterval  time.Duration
	probeInterval time.Duration

	mu          sync.Mutex
	online      bool
	queue       []models.PendingChange
	inflight    []models.PendingChange
	draining    bool
	lastSync    *time.Time
	subscribers []subscriber
	nextSubID   int
	runCtx      context.Context
}

// New builds a façade over remote and c and reloads any changes queued by a
// previous process.
func New(remote Remote, c *cache.Cache, opts Options) *Facade {
	f := &Facade{
		remote:        remote,
		cache:         c,
		classifier:    opts.Classifier,
		now:           opts.Now,
		syncInterval:  opts.SyncInterval,
		probeInterval: opts.ProbeInterval,
		online:        !opts.Offline,
		runCtx:        context.Background(),
	}
	if f.classifier == nil {
		f.classifier = apperrors.NewClassifier(constants.MaxErrorLogEntries)
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.syncInterval <= 0 {
		f.syncInterval = constants.DefaultSyncInterval
	}
	if f.probeInterval <= 0 {
		f.probeInterval = constants.DefaultProbeInterval
	}

	if queued, ok := cache.Load[[]models.PendingChange](c, constants.CacheKeyPendingChanges); ok {
		f.queue = queued
		if len(queued) > 0 {
			logger.Info("Restored queued changes", "count", len(queued))
		}
	}
	if last, ok := cache.Load[time.Time](c, constants.CacheKeyLastSync); ok {
		f.lastSync = &last
	}
	return f
}

// Classifier returns the classifier failures are recorded in.
func (f *Facade) Classifier() *apperrors.Classifier {
	return f.classifier
}

// Cache returns the underlying local cache.
func (f *Facade) Cache() *cache.Cache {
	return f.cache
}

// IsOnline reports the current connectivity flag.
func (f *Facade) IsOnline() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

// SetOnline records a connectivity change. Subscribers are notified when the
// flag flips, and going online triggers a drain.
func (f *Facade) SetOnline(online bool) {
	f.mu.Lock()
	changed := f.online != online
	f.online = online
	ctx := f.runCtx
	f.mu.Unlock()

	if !changed {
		return
	}
	logger.Info("Connectivity changed", "online", online)
	f.notify()
	if online {
		f.Sync(ctx)
	}
}

// Probe checks the API health endpoint and updates connectivity from it.
func (f *Facade) Probe(ctx context.Context) bool {
	res := f.remote.Health(ctx)
	online := res.Success && res.Data.Database.Connected
	if !res.Success {
		logger.Debug("Health probe failed", "code", res.Err.Code)
	}
	f.SetOnline(online)
	return online
}

// Health returns the API health report and updates connectivity from it.
func (f *Facade) Health(ctx context.Context) ReadResult[models.HealthStatus] {
	res := f.remote.Health(ctx)
	f.SetOnline(res.Success && res.Data.Database.Connected)
	if !res.Success {
		return ReadResult[models.HealthStatus]{Err: res.Err}
	}
	return ReadResult[models.HealthStatus]{Data: res.Data}
}

// Run drains the queue every sync interval and probes connectivity every
// probe interval until ctx is done.
func (f *Facade) Run(ctx context.Context) {
	f.mu.Lock()
	f.runCtx = ctx
	f.mu.Unlock()

	syncTicker := time.NewTicker(f.syncInterval)
	defer syncTicker.Stop()
	probeTicker := time.NewTicker(f.probeInterval)
	defer probeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-syncTicker.C:
			f.Sync(ctx)
		case <-probeTicker.C:
			f.Probe(ctx)
		}
	}
}

// Start runs the sync loop in the background. It stops when ctx is done;
// the returned channel is closed once it has.
func (f *Facade) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.Run(ctx)
	}()
	return done
}

// Subscribe registers fn for status updates. Callbacks run synchronously,
// in registration order, after each drain and on connectivity flips.
func (f *Facade) Subscribe(fn func(models.SyncStatus)) (unsubscribe func()) {
	f.mu.Lock()
	f.nextSubID++
	id := f.nextSubID
	f.subscribers = append(f.subscribers, subscriber{id: id, fn: fn})
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			for i, s := range f.subscribers {
				if s.id == id {
					f.subscribers = append(f.subscribers[:i:i], f.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// Status returns the current sync status.
func (f *Facade) Status() models.SyncStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusLocked()
}

// PendingChanges returns a copy of the queued changes in replay order.
func (f *Facade) PendingChanges() []models.PendingChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.PendingChange, 0, len(f.inflight)+len(f.queue))
	out = append(out, f.inflight...)
	return append(out, f.queue...)
}

func (f *Facade) statusLocked() models.SyncStatus {
	status := models.SyncStatus{
		IsOnline:       f.online,
		PendingChanges: len(f.queue) + len(f.inflight),
	}
	if f.lastSync != nil {
		last := *f.lastSync
		status.LastSync = &last
	}
	return status
}

func (f *Facade) notify() {
	f.mu.Lock()
	status := f.statusLocked()
	subs := append([]subscriber(nil), f.subscribers...)
	f.mu.Unlock()

	for _, s := range subs {
		s.fn(status)
	}
}

// enqueue appends a change to the queue and persists it.
func (f *Facade) enqueue(t models.ChangeType, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to encode queued change", "type", t, "error", err)
		return
	}
	ch := models.PendingChange{
		ID:         uuid.NewString(),
		Type:       t,
		Payload:    raw,
		EnqueuedAt: f.now().UTC(),
	}

	f.mu.Lock()
	f.queue = append(f.queue, ch)
	f.persistLocked()
	f.mu.Unlock()

	logger.Info("Queued change for sync", "type", t, "change", ch.ID)
}

// persistLocked writes inflight and queued changes to the cache. Callers hold f.mu.
func (f *Facade) persistLocked() {
	all := make([]models.PendingChange, 0, len(f.inflight)+len(f.queue))
	all = append(all, f.inflight...)
	all = append(all, f.queue...)
	f.cache.Set(constants.CacheKeyPendingChanges, all)
}

// shouldQueue records a remote failure and reports whether retrying later
// may succeed.
func (f *Facade) shouldQueue(err *apperrors.AppError) bool {
	f.classifier.Record(err)
	return err.Retryable()
}

func (f *Facade) provisionalID() string {
	return constants.TempIDPrefix + uuid.NewString()
}

func (f *Facade) today() string {
	return utils.Today(f.now())
}
