package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/hard75/internal/cache"
	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/logger"
	"github.com/julianstephens/hard75/internal/models"
)

// Sync drains the queue: every change queued when the drain starts is
// replayed once, in FIFO order. Failed changes go back on the queue for the
// next drain. Calling Sync while a drain is running, or while offline, does
// nothing. Subscribers are notified after a drain.
func (f *Facade) Sync(ctx context.Context) models.SyncStatus {
	f.mu.Lock()
	if f.draining || !f.online {
		status := f.statusLocked()
		f.mu.Unlock()
		return status
	}
	f.draining = true
	f.inflight = append(f.inflight, f.queue...)
	f.queue = nil
	total := len(f.inflight)
	f.mu.Unlock()

	log := logger.With("component", "sync")
	if log != nil && total > 0 {
		log.Info("Draining queued changes", "count", total)
	}

	replayed, failed, deferred := 0, 0, 0
	for {
		f.mu.Lock()
		if len(f.inflight) == 0 {
			f.mu.Unlock()
			break
		}
		ch := f.inflight[0]
		if f.awaitsCreationLocked(ch) {
			// its record has no server id yet; retry after the creation
			f.inflight = f.inflight[1:]
			f.queue = append(f.queue, ch)
			f.persistLocked()
			f.mu.Unlock()
			deferred++
			continue
		}
		f.mu.Unlock()

		err := f.replay(ctx, ch)

		f.mu.Lock()
		if len(f.inflight) > 0 && f.inflight[0].ID == ch.ID {
			f.inflight = f.inflight[1:]
		}
		switch {
		case err == nil:
			replayed++
		case err.Retryable() || err.Category == apperrors.CategoryAuth:
			ch.Attempts++
			f.queue = append(f.queue, ch)
			failed++
		default:
			// the server will never accept it
			failed++
		}
		f.persistLocked()
		f.mu.Unlock()

		if err != nil {
			f.classifier.Record(err)
			if log != nil {
				log.Warn("Replay failed", "type", ch.Type, "change", ch.ID, "attempts", ch.Attempts+1, "code", err.Code)
			}
		}
	}

	f.mu.Lock()
	now := f.now().UTC()
	f.lastSync = &now
	f.draining = false
	f.cache.Set(constants.CacheKeyLastSync, now)
	status := f.statusLocked()
	f.mu.Unlock()

	if log != nil && total > 0 {
		log.Info("Drain finished", "replayed", replayed, "failed", failed, "deferred", deferred, "pending", status.PendingChanges)
	}
	f.notify()
	return status
}

// replay sends one queued change to the server and folds the answer into
// the cache.
func (f *Facade) replay(ctx context.Context, ch models.PendingChange) *apperrors.AppError {
	decodeErr := func(err error) *apperrors.AppError {
		return apperrors.Validation(fmt.Sprintf("queued %s change %s is corrupt: %v", ch.Type, ch.ID, err))
	}

	switch ch.Type {
	case models.ChangeCreateProfile:
		var req models.CreateProfileRequest
		if err := json.Unmarshal(ch.Payload, &req); err != nil {
			return decodeErr(err)
		}
		res := f.remote.CreateProfile(ctx, req)
		if !res.Success {
			return res.Err
		}
		f.cache.Set(constants.CacheKeyProfile, res.Data)

	case models.ChangeUpdateProfile:
		var req models.UpdateProfileRequest
		if err := json.Unmarshal(ch.Payload, &req); err != nil {
			return decodeErr(err)
		}
		res := f.remote.UpdateProfile(ctx, req)
		if !res.Success {
			return res.Err
		}
		f.cache.Set(constants.CacheKeyProfile, res.Data)

	case models.ChangeCreateChallenge:
		var q models.QueuedChallenge
		if err := json.Unmarshal(ch.Payload, &q); err != nil {
			return decodeErr(err)
		}
		res := f.remote.CreateChallenge(ctx, q.Request)
		if !res.Success {
			return res.Err
		}
		f.storeChallenge(res.Data, q.TempID)
		if q.TempID != "" {
			f.rewriteIDs(q.TempID, res.Data.ID)
		}

	case models.ChangeUpdateChallenge:
		var req models.UpdateChallengeRequest
		if err := json.Unmarshal(ch.Payload, &req); err != nil {
			return decodeErr(err)
		}
		res := f.remote.UpdateChallenge(ctx, req)
		if !res.Success {
			return res.Err
		}
		f.replaceChallenge(res.Data)

	case models.ChangeCreateTask:
		var q models.QueuedTask
		if err := json.Unmarshal(ch.Payload, &q); err != nil {
			return decodeErr(err)
		}
		res := f.remote.CreateTask(ctx, q.Request)
		if !res.Success {
			return res.Err
		}
		f.resolveTask(q.TempID, res.Data)

	case models.ChangeInitializeDefaults:
		var qs []models.QueuedTask
		if err := json.Unmarshal(ch.Payload, &qs); err != nil {
			return decodeErr(err)
		}
		return f.replayDefaults(ctx, qs)

	case models.ChangeUpdateTask:
		var req models.UpdateTaskRequest
		if err := json.Unmarshal(ch.Payload, &req); err != nil {
			return decodeErr(err)
		}
		res := f.remote.UpdateTask(ctx, req)
		if !res.Success {
			return res.Err
		}
		f.storeTask(res.Data, "")

	case models.ChangeDeleteTask:
		var req models.DeleteTaskRequest
		if err := json.Unmarshal(ch.Payload, &req); err != nil {
			return decodeErr(err)
		}
		res := f.remote.DeleteTask(ctx, req)
		if !res.Success && res.Err.Code != apperrors.CodeNotFound {
			return res.Err
		}
		f.removeCachedTask(req.TaskID)

	case models.ChangeCompleteTask:
		var req models.CompleteTaskRequest
		if err := json.Unmarshal(ch.Payload, &req); err != nil {
			return decodeErr(err)
		}
		res := f.remote.CompleteTask(ctx, req)
		if !res.Success {
			return res.Err
		}
		f.applyCompletion(req, &res.Data)

	default:
		return apperrors.Validation(fmt.Sprintf("unknown change type %q", ch.Type))
	}
	return nil
}

// replayDefaults creates a queued onboarding set. Items the server rejects
// for transient reasons are queued again one by one so the created ones are
// not repeated.
func (f *Facade) replayDefaults(ctx context.Context, qs []models.QueuedTask) *apperrors.AppError {
	reqs := make([]models.CreateTaskRequest, len(qs))
	for i, q := range qs {
		reqs[i] = q.Request
	}

	res := f.remote.InitializeDefaultTasks(ctx, reqs)
	if len(res.Data.Created) == 0 {
		return res.Err
	}
	for i, item := range res.Data.Items {
		if item.Task != nil {
			f.resolveTask(qs[i].TempID, *item.Task)
			continue
		}
		if item.Err != nil && item.Err.Retryable() {
			f.enqueue(models.ChangeCreateTask, qs[i])
		} else {
			f.removeCachedTask(qs[i].TempID)
		}
	}
	return nil
}

// resolveTask replaces a provisional task with the server's record and
// points every cached completion and queued change at the new id.
func (f *Facade) resolveTask(tempID string, task models.CustomTask) {
	f.storeTask(task, tempID)
	if tempID == "" || tempID == task.ID {
		return
	}

	for _, key := range f.cache.Keys(constants.CacheKeyCompletionsPrefix) {
		cache.Update(f.cache, key, func(day models.DayCompletions, _ bool) models.DayCompletions {
			for i := range day.Completions {
				if day.Completions[i].TaskID == tempID {
					day.Completions[i].TaskID = task.ID
				}
			}
			return day
		})
	}
	f.rewriteIDs(tempID, task.ID)
}

// rewriteIDs substitutes newID for a provisional id in every queued change.
func (f *Facade) rewriteIDs(tempID, newID string) {
	oldToken := []byte(`"` + tempID + `"`)
	newToken := []byte(`"` + newID + `"`)

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, list := range [][]models.PendingChange{f.inflight, f.queue} {
		for i := range list {
			if bytes.Contains(list[i].Payload, oldToken) {
				list[i].Payload = bytes.ReplaceAll(list[i].Payload, oldToken, newToken)
			}
		}
	}
	f.persistLocked()
}

// awaitsCreationLocked reports whether ch refers to a provisional record
// whose creation is still queued behind or ahead of it. Callers hold f.mu.
func (f *Facade) awaitsCreationLocked(ch models.PendingChange) bool {
	for _, list := range [][]models.PendingChange{f.queue, f.inflight} {
		for _, other := range list {
			if other.ID == ch.ID {
				continue
			}
			for _, id := range createdIDs(other) {
				if mentionsID(ch, id) {
					return true
				}
			}
		}
	}
	return false
}

// createdIDs returns the provisional ids a creation change will resolve.
func createdIDs(ch models.PendingChange) []string {
	switch ch.Type {
	case models.ChangeCreateTask:
		var q models.QueuedTask
		if json.Unmarshal(ch.Payload, &q) == nil && q.TempID != "" {
			return []string{q.TempID}
		}
	case models.ChangeInitializeDefaults:
		var qs []models.QueuedTask
		if json.Unmarshal(ch.Payload, &qs) != nil {
			return nil
		}
		ids := make([]string, 0, len(qs))
		for _, q := range qs {
			if q.TempID != "" {
				ids = append(ids, q.TempID)
			}
		}
		return ids
	case models.ChangeCreateChallenge:
		var q models.QueuedChallenge
		if json.Unmarshal(ch.Payload, &q) == nil && q.TempID != "" {
			return []string{q.TempID}
		}
	}
	return nil
}

func mentionsID(ch models.PendingChange, id string) bool {
	return bytes.Contains(ch.Payload, []byte(`"`+id+`"`))
}

// withoutQueuedTask removes tempID from an initialize_defaults payload and
// returns how many tasks remain in it.
func withoutQueuedTask(ch models.PendingChange, tempID string) (models.PendingChange, int) {
	var qs []models.QueuedTask
	if err := json.Unmarshal(ch.Payload, &qs); err != nil {
		return ch, 0
	}
	out := qs[:0]
	for _, q := range qs {
		if q.TempID != tempID {
			out = append(out, q)
		}
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return ch, 0
	}
	ch.Payload = raw
	return ch, len(out)
}
