package storage

import (
	"context"

	"github.com/julianstephens/hard75/internal/api"
	"github.com/julianstephens/hard75/internal/cache"
	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/logger"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/utils"
	"github.com/julianstephens/hard75/internal/validation"
)

func invalid[T any](err error) WriteResult[T] {
	return rejected[T](apperrors.Validation(err.Error()))
}

func (f *Facade) CreateProfile(ctx context.Context, req models.CreateProfileRequest) WriteResult[models.UserProfile] {
	if err := validation.CreateProfile(req); err != nil {
		return invalid[models.UserProfile](err)
	}

	var cause *apperrors.AppError
	if f.IsOnline() {
		res := f.remote.CreateProfile(ctx, req)
		if res.Success {
			f.cache.Set(constants.CacheKeyProfile, res.Data)
			return applied(res.Data)
		}
		if !f.shouldQueue(res.Err) {
			return rejected[models.UserProfile](res.Err)
		}
		cause = res.Err
	}

	profile := models.UserProfile{
		ID:        f.provisionalID(),
		Name:      req.Name,
		GoogleID:  req.GoogleID,
		AvatarURL: req.AvatarURL,
		CreatedAt: f.now().UTC(),
	}
	f.cache.Set(constants.CacheKeyProfile, profile)
	f.enqueue(models.ChangeCreateProfile, req)
	return pending(profile, cause, false)
}

func (f *Facade) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) WriteResult[models.UserProfile] {
	if err := validation.UpdateProfile(req); err != nil {
		return invalid[models.UserProfile](err)
	}

	var cause *apperrors.AppError
	if f.IsOnline() {
		res := f.remote.UpdateProfile(ctx, req)
		if res.Success {
			f.cache.Set(constants.CacheKeyProfile, res.Data)
			return applied(res.Data)
		}
		if !f.shouldQueue(res.Err) {
			return rejected[models.UserProfile](res.Err)
		}
		cause = res.Err
	}

	profile := cache.Update(f.cache, constants.CacheKeyProfile, func(p models.UserProfile, _ bool) models.UserProfile {
		return patchProfile(p, req)
	})
	f.enqueue(models.ChangeUpdateProfile, req)
	return pending(profile, cause, false)
}

func patchProfile(p models.UserProfile, req models.UpdateProfileRequest) models.UserProfile {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.AvatarURL != nil {
		p.AvatarURL = *req.AvatarURL
	}
	return p
}

// CreateChallenge starts a challenge and supersedes the active one.
func (f *Facade) CreateChallenge(ctx context.Context, req models.CreateChallengeRequest) WriteResult[models.Challenge] {
	if err := validation.CreateChallenge(req); err != nil {
		return invalid[models.Challenge](err)
	}

	var cause *apperrors.AppError
	if f.IsOnline() {
		res := f.remote.CreateChallenge(ctx, req)
		if res.Success {
			f.storeChallenge(res.Data, "")
			return applied(res.Data)
		}
		if !f.shouldQueue(res.Err) {
			return rejected[models.Challenge](res.Err)
		}
		cause = res.Err
	}

	end, _ := utils.ChallengeEndDate(req.StartDate)
	day, _ := utils.CurrentDay(req.StartDate, f.now())
	challenge := models.Challenge{
		ID:         f.provisionalID(),
		StartDate:  req.StartDate,
		EndDate:    end,
		IsActive:   true,
		CurrentDay: day,
		CreatedAt:  f.now().UTC(),
	}
	if p, ok := cache.Load[models.UserProfile](f.cache, constants.CacheKeyProfile); ok {
		challenge.UserID = p.ID
	}
	f.storeChallenge(challenge, "")
	f.enqueue(models.ChangeCreateChallenge, models.QueuedChallenge{TempID: challenge.ID, Request: req})
	return pending(challenge, cause, false)
}

// storeChallenge puts c at the front of the cached list, replacing replaceID
// (or c.ID) if present. An active c deactivates every other challenge.
func (f *Facade) storeChallenge(c models.Challenge, replaceID string) {
	if replaceID == "" {
		replaceID = c.ID
	}
	cache.Update(f.cache, constants.CacheKeyChallenges, func(list []models.Challenge, _ bool) []models.Challenge {
		out := []models.Challenge{c}
		for _, existing := range list {
			if existing.ID == replaceID || existing.ID == c.ID {
				continue
			}
			if c.IsActive {
				existing.IsActive = false
			}
			out = append(out, existing)
		}
		return out
	})
}

func (f *Facade) UpdateChallenge(ctx context.Context, req models.UpdateChallengeRequest) WriteResult[models.Challenge] {
	if err := validation.UpdateChallenge(req); err != nil {
		return invalid[models.Challenge](err)
	}

	var cause *apperrors.AppError
	if f.IsOnline() && !models.IsProvisionalID(req.ChallengeID) {
		res := f.remote.UpdateChallenge(ctx, req)
		if res.Success {
			f.replaceChallenge(res.Data)
			return applied(res.Data)
		}
		if !f.shouldQueue(res.Err) {
			return rejected[models.Challenge](res.Err)
		}
		cause = res.Err
	}

	var updated models.Challenge
	cache.Update(f.cache, constants.CacheKeyChallenges, func(list []models.Challenge, _ bool) []models.Challenge {
		for i := range list {
			if list[i].ID != req.ChallengeID {
				continue
			}
			if req.CurrentDay != nil {
				list[i].CurrentDay = *req.CurrentDay
			}
			if req.IsActive != nil {
				list[i].IsActive = *req.IsActive
			}
			updated = list[i]
		}
		return list
	})
	f.enqueue(models.ChangeUpdateChallenge, req)
	return pending(updated, cause, false)
}

// replaceChallenge swaps the cached copy of c in place.
func (f *Facade) replaceChallenge(c models.Challenge) {
	cache.Update(f.cache, constants.CacheKeyChallenges, func(list []models.Challenge, _ bool) []models.Challenge {
		found := false
		for i := range list {
			if list[i].ID == c.ID {
				list[i] = c
				found = true
			} else if c.IsActive {
				list[i].IsActive = false
			}
		}
		if !found {
			list = append([]models.Challenge{c}, list...)
		}
		return list
	})
}

// CreateTask adds a task. Offline, or when the server is unreachable, the
// task is created locally under a provisional id and reported as a success.
func (f *Facade) CreateTask(ctx context.Context, req models.CreateTaskRequest) WriteResult[models.CustomTask] {
	if err := validation.CreateTask(req); err != nil {
		return invalid[models.CustomTask](err)
	}

	var cause *apperrors.AppError
	if f.IsOnline() {
		res := f.remote.CreateTask(ctx, req)
		if res.Success {
			f.storeTask(res.Data, "")
			return applied(res.Data)
		}
		if !f.shouldQueue(res.Err) {
			return rejected[models.CustomTask](res.Err)
		}
		cause = res.Err
	}

	q := f.provisionalTask(req)
	f.enqueue(models.ChangeCreateTask, q)
	task, _ := f.findCachedTask(q.TempID)
	return pending(task, cause, true)
}

// provisionalTask caches a locally created task and returns its queue
// payload.
func (f *Facade) provisionalTask(req models.CreateTaskRequest) models.QueuedTask {
	if req.OrderIndex == nil {
		next := models.NextOrderIndex(f.cachedTasks())
		req.OrderIndex = &next
	}
	task := models.CustomTask{
		ID:         f.provisionalID(),
		TaskText:   req.TaskText,
		IsDefault:  req.IsDefault,
		OrderIndex: *req.OrderIndex,
		CreatedAt:  f.now().UTC(),
	}
	if p, ok := cache.Load[models.UserProfile](f.cache, constants.CacheKeyProfile); ok {
		task.UserID = p.ID
	}
	f.storeTask(task, "")
	return models.QueuedTask{TempID: task.ID, Request: req}
}

// storeTask inserts t into the cached list, replacing replaceID (or t.ID).
func (f *Facade) storeTask(t models.CustomTask, replaceID string) {
	if replaceID == "" {
		replaceID = t.ID
	}
	cache.Update(f.cache, constants.CacheKeyTasks, func(list []models.CustomTask, _ bool) []models.CustomTask {
		out := make([]models.CustomTask, 0, len(list)+1)
		for _, existing := range list {
			if existing.ID != replaceID && existing.ID != t.ID {
				out = append(out, existing)
			}
		}
		out = append(out, t)
		models.SortTasks(out)
		return out
	})
}

func (f *Facade) findCachedTask(id string) (models.CustomTask, bool) {
	for _, t := range f.cachedTasks() {
		if t.ID == id {
			return t, true
		}
	}
	return models.CustomTask{}, false
}

func (f *Facade) UpdateTask(ctx context.Context, req models.UpdateTaskRequest) WriteResult[models.CustomTask] {
	if err := validation.UpdateTask(req); err != nil {
		return invalid[models.CustomTask](err)
	}

	var cause *apperrors.AppError
	if f.IsOnline() && !models.IsProvisionalID(req.TaskID) {
		res := f.remote.UpdateTask(ctx, req)
		if res.Success {
			f.storeTask(res.Data, "")
			return applied(res.Data)
		}
		if !f.shouldQueue(res.Err) {
			return rejected[models.CustomTask](res.Err)
		}
		cause = res.Err
	}

	var updated models.CustomTask
	cache.Update(f.cache, constants.CacheKeyTasks, func(list []models.CustomTask, _ bool) []models.CustomTask {
		for i := range list {
			if list[i].ID != req.TaskID {
				continue
			}
			if req.TaskText != nil {
				list[i].TaskText = *req.TaskText
			}
			if req.OrderIndex != nil {
				list[i].OrderIndex = *req.OrderIndex
			}
			updated = list[i]
		}
		models.SortTasks(list)
		return list
	})
	f.enqueue(models.ChangeUpdateTask, req)
	return pending(updated, cause, false)
}

// DeleteTask removes a task. Deleting a task that never reached the server
// cancels its queued creation, so nothing is left to sync.
func (f *Facade) DeleteTask(ctx context.Context, req models.DeleteTaskRequest) WriteResult[string] {
	if err := validation.DeleteTask(req); err != nil {
		return invalid[string](err)
	}

	if models.IsProvisionalID(req.TaskID) {
		f.removeCachedTask(req.TaskID)
		dropped := f.dropChangesFor(req.TaskID)
		logger.Info("Cancelled unsynced task", "task", req.TaskID, "dropped_changes", dropped)
		return applied("Task deleted")
	}

	var cause *apperrors.AppError
	if f.IsOnline() {
		res := f.remote.DeleteTask(ctx, req)
		if res.Success {
			f.removeCachedTask(req.TaskID)
			return applied(res.Data)
		}
		if !f.shouldQueue(res.Err) {
			return rejected[string](res.Err)
		}
		cause = res.Err
	}

	f.removeCachedTask(req.TaskID)
	f.enqueue(models.ChangeDeleteTask, req)
	return pending("Task deleted locally", cause, false)
}

func (f *Facade) removeCachedTask(id string) {
	cache.Update(f.cache, constants.CacheKeyTasks, func(list []models.CustomTask, _ bool) []models.CustomTask {
		out := make([]models.CustomTask, 0, len(list))
		for _, t := range list {
			if t.ID != id {
				out = append(out, t)
			}
		}
		return out
	})
}

// CompleteTask marks a task done or not done for a date (today when empty).
// The cache is updated before the server is contacted; a rejected write
// restores the previous cached state.
func (f *Facade) CompleteTask(ctx context.Context, req models.CompleteTaskRequest) WriteResult[models.DayCompletions] {
	if req.Date == "" {
		req.Date = f.today()
	}
	if err := validation.CompleteTask(req); err != nil {
		return invalid[models.DayCompletions](err)
	}

	key := constants.CompletionsKey(req.Date)
	previous, hadPrevious := cache.Load[models.DayCompletions](f.cache, key)
	local := f.applyCompletion(req, nil)

	if !f.IsOnline() || models.IsProvisionalID(req.TaskID) {
		f.enqueue(models.ChangeCompleteTask, req)
		return pending(local, nil, true)
	}

	res := f.remote.CompleteTask(ctx, req)
	if res.Success {
		return applied(f.applyCompletion(req, &res.Data))
	}
	if f.shouldQueue(res.Err) {
		f.enqueue(models.ChangeCompleteTask, req)
		return pending(local, res.Err, true)
	}

	if hadPrevious {
		f.cache.Set(key, previous)
	} else {
		f.cache.Remove(key)
	}
	return rejected[models.DayCompletions](res.Err)
}

// applyCompletion upserts the completion into the cached day and recomputes
// its progress. A server response, when given, is authoritative.
func (f *Facade) applyCompletion(req models.CompleteTaskRequest, resp *models.CompleteTaskResponse) models.DayCompletions {
	tasks := f.cachedTasks()
	dayNumber := f.dayNumberFor(req.Date)

	completion := models.TaskCompletion{TaskID: req.TaskID, Date: req.Date, Completed: req.Completed}
	if req.Completed {
		at := f.now().UTC()
		completion.CompletedAt = &at
	}
	for _, t := range tasks {
		if t.ID == req.TaskID {
			completion.TaskText = t.TaskText
			completion.OrderIndex = t.OrderIndex
		}
	}
	if resp != nil {
		if resp.Completion.TaskID != "" {
			completion.CompletedAt = resp.Completion.CompletedAt
		}
		dayNumber = resp.DayNumber
	}

	return cache.Update(f.cache, constants.CompletionsKey(req.Date), func(day models.DayCompletions, _ bool) models.DayCompletions {
		day.Date = req.Date
		day.Upsert(completion)
		day.Recompute(tasks, dayNumber)
		if resp != nil {
			day.DailyProgress.AllCompleted = resp.AllCompleted
		}
		return day
	})
}

// InitializeDefaultTasks creates the onboarding task set. Items that cannot
// reach the server are created locally and queued; the call fails only when
// no task could be created either way.
func (f *Facade) InitializeDefaultTasks(ctx context.Context, texts []string) WriteResult[api.DefaultTasks] {
	if len(texts) == 0 {
		texts = constants.DefaultTasks
	}

	base := models.NextOrderIndex(f.cachedTasks())
	reqs := make([]models.CreateTaskRequest, len(texts))
	for i, text := range texts {
		order := base + i
		reqs[i] = models.CreateTaskRequest{TaskText: text, IsDefault: true, OrderIndex: &order}
		if err := validation.CreateTask(reqs[i]); err != nil {
			return invalid[api.DefaultTasks](err)
		}
	}

	if !f.IsOnline() {
		out := api.DefaultTasks{Items: make([]api.TaskCreation, len(reqs))}
		queued := make([]models.QueuedTask, len(reqs))
		for i, req := range reqs {
			q := f.provisionalTask(req)
			queued[i] = q
			task, _ := f.findCachedTask(q.TempID)
			out.Created = append(out.Created, task)
			out.Items[i] = api.TaskCreation{Request: req, Task: &task, Err: apperrors.Queued(nil)}
		}
		f.enqueue(models.ChangeInitializeDefaults, queued)
		return pending(out, nil, true)
	}

	res := f.remote.InitializeDefaultTasks(ctx, reqs)
	out := res.Data
	if len(out.Items) != len(reqs) {
		out.Items = make([]api.TaskCreation, len(reqs))
		for i, req := range reqs {
			out.Items[i] = api.TaskCreation{Request: req, Err: res.Err}
		}
	}

	var firstErr *apperrors.AppError
	queuedAny := false
	out.Created = nil
	for i := range out.Items {
		item := &out.Items[i]
		if item.Task != nil {
			f.storeTask(*item.Task, "")
			out.Created = append(out.Created, *item.Task)
			continue
		}
		if item.Err == nil || !f.shouldQueue(item.Err) {
			if firstErr == nil {
				firstErr = item.Err
			}
			continue
		}
		q := f.provisionalTask(item.Request)
		f.enqueue(models.ChangeCreateTask, q)
		task, _ := f.findCachedTask(q.TempID)
		item.Task = &task
		item.Err = apperrors.Queued(item.Err)
		out.Created = append(out.Created, task)
		queuedAny = true
	}
	models.SortTasks(out.Created)

	switch {
	case len(out.Created) == 0:
		if firstErr == nil {
			firstErr = res.Err
		}
		return WriteResult[api.DefaultTasks]{Data: out, Outcome: OutcomeRejected, Err: firstErr}
	case queuedAny:
		return pending(out, res.Err, true)
	default:
		return applied(out)
	}
}

// dropChangesFor removes queued changes that only concern a provisional id.
func (f *Facade) dropChangesFor(tempID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	dropped := 0
	filter := func(list []models.PendingChange) []models.PendingChange {
		out := make([]models.PendingChange, 0, len(list))
		for _, ch := range list {
			if !mentionsID(ch, tempID) {
				out = append(out, ch)
				continue
			}
			if ch.Type == models.ChangeInitializeDefaults {
				var remaining int
				ch, remaining = withoutQueuedTask(ch, tempID)
				if remaining > 0 {
					out = append(out, ch)
					continue
				}
			}
			dropped++
		}
		return out
	}
	f.queue = filter(f.queue)
	f.inflight = filter(f.inflight)
	f.persistLocked()
	return dropped
}
