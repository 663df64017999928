package storage

import (
	"context"
	"encoding/json"

	"github.com/julianstephens/hard75/internal/api"
	"github.com/julianstephens/hard75/internal/cache"
	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/utils"
)

// readThrough asks the remote first when online and refreshes the cache
// with the answer. Any failure falls back to the cached value. merge, when
// set, adjusts the remote value before it is cached and returned.
func readThrough[T any](ctx context.Context, f *Facade, key string, fetch func(context.Context) api.Result[T], merge func(T) T) ReadResult[T] {
	if !f.IsOnline() {
		if cached, ok := cache.Load[T](f.cache, key); ok {
			return ReadResult[T]{Data: cached, FromCache: true}
		}
		return ReadResult[T]{Err: apperrors.NoCachedData(key)}
	}

	res := fetch(ctx)
	if res.Success {
		data := res.Data
		if merge != nil {
			data = merge(data)
		}
		f.cache.Set(key, data)
		return ReadResult[T]{Data: data}
	}

	f.classifier.Record(res.Err)
	if cached, ok := cache.Load[T](f.cache, key); ok {
		return ReadResult[T]{Data: cached, FromCache: true}
	}
	return ReadResult[T]{Err: res.Err}
}

func (f *Facade) GetProfile(ctx context.Context) ReadResult[models.UserProfile] {
	return readThrough(ctx, f, constants.CacheKeyProfile, f.remote.GetProfile, nil)
}

// GetChallenges lists every challenge, newest first as the server orders
// them. Challenges started offline stay visible until they are synced.
func (f *Facade) GetChallenges(ctx context.Context) ReadResult[[]models.Challenge] {
	return readThrough(ctx, f, constants.CacheKeyChallenges, f.remote.GetChallenges, f.keepProvisionalChallenges)
}

// GetActiveChallenge returns the active challenge, or nil Data when there is none.
func (f *Facade) GetActiveChallenge(ctx context.Context) ReadResult[*models.Challenge] {
	res := f.GetChallenges(ctx)
	if !res.OK() {
		return ReadResult[*models.Challenge]{Err: res.Err}
	}
	out := ReadResult[*models.Challenge]{FromCache: res.FromCache}
	if c, ok := models.ActiveChallenge(res.Data); ok {
		out.Data = &c
	}
	return out
}

// GetTasks lists tasks by order index. Tasks created offline stay visible
// until they are synced.
func (f *Facade) GetTasks(ctx context.Context) ReadResult[[]models.CustomTask] {
	res := readThrough(ctx, f, constants.CacheKeyTasks, f.remote.GetTasks, f.keepProvisionalTasks)
	if res.OK() {
		models.SortTasks(res.Data)
	}
	return res
}

// GetTaskCompletions returns the completions recorded for date (today when
// empty). Completion toggles still waiting in the queue are applied on top
// of the server's answer.
func (f *Facade) GetTaskCompletions(ctx context.Context, date string) ReadResult[models.DayCompletions] {
	if date == "" {
		date = f.today()
	}
	if !utils.ValidateDateFormat(date) {
		return ReadResult[models.DayCompletions]{Err: apperrors.Validation("date must be in YYYY-MM-DD format")}
	}

	fetch := func(ctx context.Context) api.Result[models.DayCompletions] {
		return f.remote.GetCompletions(ctx, date)
	}
	return readThrough(ctx, f, constants.CompletionsKey(date), fetch, func(day models.DayCompletions) models.DayCompletions {
		return f.overlayPendingCompletions(day)
	})
}

// cachedTasks returns the cached task list in order.
func (f *Facade) cachedTasks() []models.CustomTask {
	tasks, _ := cache.Load[[]models.CustomTask](f.cache, constants.CacheKeyTasks)
	models.SortTasks(tasks)
	return tasks
}

// dayNumberFor computes the day number of date from the cached active challenge.
func (f *Facade) dayNumberFor(date string) int {
	challenges, _ := cache.Load[[]models.Challenge](f.cache, constants.CacheKeyChallenges)
	if c, ok := models.ActiveChallenge(challenges); ok {
		if day, err := utils.DayNumber(c.StartDate, date); err == nil {
			return day
		}
	}
	return 1
}

// pendingTempIDs returns the provisional ids of creations still queued.
func (f *Facade) pendingTempIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, ch := range f.PendingChanges() {
		switch ch.Type {
		case models.ChangeCreateTask:
			var q models.QueuedTask
			if json.Unmarshal(ch.Payload, &q) == nil && q.TempID != "" {
				ids[q.TempID] = true
			}
		case models.ChangeInitializeDefaults:
			var qs []models.QueuedTask
			if json.Unmarshal(ch.Payload, &qs) == nil {
				for _, q := range qs {
					if q.TempID != "" {
						ids[q.TempID] = true
					}
				}
			}
		case models.ChangeCreateChallenge:
			var q models.QueuedChallenge
			if json.Unmarshal(ch.Payload, &q) == nil && q.TempID != "" {
				ids[q.TempID] = true
			}
		}
	}
	return ids
}

func (f *Facade) keepProvisionalTasks(remote []models.CustomTask) []models.CustomTask {
	pendingIDs := f.pendingTempIDs()
	if len(pendingIDs) == 0 {
		return remote
	}
	for _, t := range f.cachedTasks() {
		if pendingIDs[t.ID] {
			remote = append(remote, t)
		}
	}
	models.SortTasks(remote)
	return remote
}

func (f *Facade) keepProvisionalChallenges(remote []models.Challenge) []models.Challenge {
	pendingIDs := f.pendingTempIDs()
	if len(pendingIDs) == 0 {
		return remote
	}
	cached, _ := cache.Load[[]models.Challenge](f.cache, constants.CacheKeyChallenges)
	var provisional []models.Challenge
	for _, c := range cached {
		if pendingIDs[c.ID] {
			provisional = append(provisional, c)
		}
	}
	if len(provisional) == 0 {
		return remote
	}
	// a queued restart supersedes whatever the server still thinks is active
	for _, p := range provisional {
		if p.IsActive {
			for i := range remote {
				remote[i].IsActive = false
			}
			break
		}
	}
	return append(provisional, remote...)
}

// overlayPendingCompletions applies queued completion toggles for day.Date.
func (f *Facade) overlayPendingCompletions(day models.DayCompletions) models.DayCompletions {
	changed := false
	for _, ch := range f.PendingChanges() {
		if ch.Type != models.ChangeCompleteTask {
			continue
		}
		var req models.CompleteTaskRequest
		if json.Unmarshal(ch.Payload, &req) != nil || req.Date != day.Date {
			continue
		}
		day.Upsert(models.TaskCompletion{TaskID: req.TaskID, Date: req.Date, Completed: req.Completed})
		changed = true
	}
	if changed {
		day.Recompute(f.cachedTasks(), day.DailyProgress.DayNumber)
	}
	return day
}
