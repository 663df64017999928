package api

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
)

// RunBatch runs independent calls with at most limit in flight and returns
// one result per call, in call order.
func RunBatch[T any](ctx context.Context, limit int, calls []func(context.Context) Result[T]) []Result[T] {
	if limit <= 0 {
		limit = constants.BatchConcurrency
	}
	results := make([]Result[T], len(calls))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, fn := range calls {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = fail[T](apperrors.FromError(err))
				return nil
			}
			results[i] = fn(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Batch runs calls concurrently and returns the successful subset in call
// order. It fails only when every call failed, with the first failure.
func Batch[T any](ctx context.Context, limit int, calls []func(context.Context) Result[T]) Result[[]T] {
	results := RunBatch(ctx, limit, calls)

	data := make([]T, 0, len(results))
	var first *apperrors.AppError
	for _, r := range results {
		if r.Success {
			data = append(data, r.Data)
		} else if first == nil {
			first = r.Err
		}
	}
	if len(data) == 0 && first != nil {
		return fail[[]T](first)
	}
	return ok(data)
}

// TaskCreation is the per-item outcome of InitializeDefaultTasks.
type TaskCreation struct {
	Request models.CreateTaskRequest
	Task    *models.CustomTask
	Err     *apperrors.AppError
}

// DefaultTasks is the outcome of InitializeDefaultTasks.
type DefaultTasks struct {
	Created []models.CustomTask
	Items   []TaskCreation
}

// InitializeDefaultTasks creates every request concurrently. It succeeds when
// at least one task was created; Items always reports each request's outcome.
func (c *Client) InitializeDefaultTasks(ctx context.Context, reqs []models.CreateTaskRequest) Result[DefaultTasks] {
	if len(reqs) == 0 {
		return fail[DefaultTasks](apperrors.Validation("no tasks to initialize"))
	}

	calls := make([]func(context.Context) Result[models.CustomTask], len(reqs))
	for i, req := range reqs {
		calls[i] = func(ctx context.Context) Result[models.CustomTask] {
			return c.CreateTask(ctx, req)
		}
	}
	results := RunBatch(ctx, constants.BatchConcurrency, calls)

	out := DefaultTasks{Items: make([]TaskCreation, len(reqs))}
	var first *apperrors.AppError
	for i, r := range results {
		item := TaskCreation{Request: reqs[i], Err: r.Err}
		if r.Success {
			task := r.Data
			item.Task = &task
			out.Created = append(out.Created, task)
		} else if first == nil {
			first = r.Err
		}
		out.Items[i] = item
	}
	models.SortTasks(out.Created)

	if len(out.Created) == 0 {
		return Result[DefaultTasks]{Data: out, Err: first}
	}
	return ok(out)
}
