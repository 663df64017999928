package storage

import (
	"context"
	"strings"

	"github.com/julianstephens/hard75/internal/api"
	"github.com/julianstephens/hard75/internal/cache"
	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/logger"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/validation"
)

// ExportData snapshots everything the device knows. Profile, challenges and
// tasks are refreshed from the server first when possible; completions come
// from every cached day.
func (f *Facade) ExportData(ctx context.Context) ReadResult[models.ExportData] {
	data := models.ExportData{
		Version:     constants.ExportVersion,
		ExportedAt:  f.now().UTC(),
		Challenges:  []models.Challenge{},
		Tasks:       []models.CustomTask{},
		Completions: make(map[string][]models.TaskCompletion),
	}
	fromCache := false

	if p := f.GetProfile(ctx); p.OK() {
		profile := p.Data
		data.Profile = &profile
		fromCache = fromCache || p.FromCache
	}
	if c := f.GetChallenges(ctx); c.OK() {
		data.Challenges = c.Data
		fromCache = fromCache || c.FromCache
	}
	if t := f.GetTasks(ctx); t.OK() {
		data.Tasks = t.Data
		fromCache = fromCache || t.FromCache
	}

	for _, key := range f.cache.Keys(constants.CacheKeyCompletionsPrefix) {
		day, ok := cache.Load[models.DayCompletions](f.cache, key)
		if !ok || len(day.Completions) == 0 {
			continue
		}
		date := strings.TrimPrefix(key, constants.CacheKeyCompletionsPrefix)
		data.Completions[date] = day.Completions
	}

	return ReadResult[models.ExportData]{Data: data, FromCache: fromCache}
}

// ImportData replaces the cached projection with data. Ids are kept as
// exported; nothing is sent to the server.
func (f *Facade) ImportData(data models.ExportData) *apperrors.AppError {
	if err := validation.ExportData(data); err != nil {
		return apperrors.Validation(err.Error())
	}

	if data.Profile != nil {
		f.cache.Set(constants.CacheKeyProfile, *data.Profile)
	}
	challenges := data.Challenges
	if challenges == nil {
		challenges = []models.Challenge{}
	}
	f.cache.Set(constants.CacheKeyChallenges, challenges)

	tasks := append([]models.CustomTask{}, data.Tasks...)
	models.SortTasks(tasks)
	f.cache.Set(constants.CacheKeyTasks, tasks)

	for date, completions := range data.Completions {
		day := models.DayCompletions{Date: date, Completions: append([]models.TaskCompletion{}, completions...)}
		day.Recompute(tasks, f.dayNumberFor(date))
		f.cache.Set(constants.CompletionsKey(date), day)
	}

	logger.Info("Imported data", "challenges", len(challenges), "tasks", len(tasks), "days", len(data.Completions))
	return nil
}

// ClearAllData wipes the cache and drops every queued change.
func (f *Facade) ClearAllData() {
	f.mu.Lock()
	f.queue = nil
	f.inflight = nil
	f.lastSync = nil
	f.cache.Clear()
	f.mu.Unlock()

	logger.Warn("Cleared all local data")
}

// CompletionHistory returns the completions for each date. Cached days are
// used as-is; missing days are fetched concurrently when online. Dates with
// no data are absent from the result.
func (f *Facade) CompletionHistory(ctx context.Context, dates []string) map[string]models.DayCompletions {
	out := make(map[string]models.DayCompletions, len(dates))
	var missing []string
	for _, date := range dates {
		if day, ok := cache.Load[models.DayCompletions](f.cache, constants.CompletionsKey(date)); ok {
			out[date] = day
			continue
		}
		missing = append(missing, date)
	}
	if len(missing) == 0 || !f.IsOnline() {
		return out
	}

	calls := make([]func(context.Context) api.Result[models.DayCompletions], len(missing))
	for i, date := range missing {
		calls[i] = func(ctx context.Context) api.Result[models.DayCompletions] {
			return f.remote.GetCompletions(ctx, date)
		}
	}
	for i, res := range api.RunBatch(ctx, constants.BatchConcurrency, calls) {
		if !res.Success {
			f.classifier.Record(res.Err)
			continue
		}
		day := res.Data
		if day.Date == "" {
			day.Date = missing[i]
		}
		f.cache.Set(constants.CompletionsKey(missing[i]), day)
		out[missing[i]] = day
	}
	return out
}
