package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/validation"
)

type profileEnvelope struct {
	User models.UserProfile `json:"user"`
}

type challengesEnvelope struct {
	Challenges []models.Challenge `json:"challenges"`
}

type challengeEnvelope struct {
	Challenge models.Challenge `json:"challenge"`
}

type tasksEnvelope struct {
	Tasks []models.CustomTask `json:"tasks"`
}

type taskEnvelope struct {
	Task models.CustomTask `json:"task"`
}

type messageEnvelope struct {
	Message string `json:"message"`
}

func (c *Client) GetProfile(ctx context.Context) Result[models.UserProfile] {
	return call(ctx, c, http.MethodGet, "/users/profile", nil, nil, func(e profileEnvelope) models.UserProfile { return e.User })
}

func (c *Client) CreateProfile(ctx context.Context, req models.CreateProfileRequest) Result[models.UserProfile] {
	if err := validation.CreateProfile(req); err != nil {
		return invalid[models.UserProfile](err)
	}
	return call(ctx, c, http.MethodPost, "/users/profile", nil, req, func(e profileEnvelope) models.UserProfile { return e.User })
}

func (c *Client) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) Result[models.UserProfile] {
	if err := validation.UpdateProfile(req); err != nil {
		return invalid[models.UserProfile](err)
	}
	return call(ctx, c, http.MethodPut, "/users/profile", nil, req, func(e profileEnvelope) models.UserProfile { return e.User })
}

func (c *Client) GetChallenges(ctx context.Context) Result[[]models.Challenge] {
	return call(ctx, c, http.MethodGet, "/challenges", nil, nil, func(e challengesEnvelope) []models.Challenge { return nonNil(e.Challenges) })
}

// CreateChallenge starts a new challenge. The server deactivates any
// previously active one.
func (c *Client) CreateChallenge(ctx context.Context, req models.CreateChallengeRequest) Result[models.Challenge] {
	if err := validation.CreateChallenge(req); err != nil {
		return invalid[models.Challenge](err)
	}
	return call(ctx, c, http.MethodPost, "/challenges", nil, req, func(e challengeEnvelope) models.Challenge { return e.Challenge })
}

func (c *Client) UpdateChallenge(ctx context.Context, req models.UpdateChallengeRequest) Result[models.Challenge] {
	if err := validation.UpdateChallenge(req); err != nil {
		return invalid[models.Challenge](err)
	}
	return call(ctx, c, http.MethodPut, "/challenges", nil, req, func(e challengeEnvelope) models.Challenge { return e.Challenge })
}

// GetTasks lists the user's tasks ordered by order index.
func (c *Client) GetTasks(ctx context.Context) Result[[]models.CustomTask] {
	res := call(ctx, c, http.MethodGet, "/tasks/custom", nil, nil, func(e tasksEnvelope) []models.CustomTask { return nonNil(e.Tasks) })
	if res.Success {
		models.SortTasks(res.Data)
	}
	return res
}

func (c *Client) CreateTask(ctx context.Context, req models.CreateTaskRequest) Result[models.CustomTask] {
	if err := validation.CreateTask(req); err != nil {
		return invalid[models.CustomTask](err)
	}
	return call(ctx, c, http.MethodPost, "/tasks/custom", nil, req, func(e taskEnvelope) models.CustomTask { return e.Task })
}

func (c *Client) UpdateTask(ctx context.Context, req models.UpdateTaskRequest) Result[models.CustomTask] {
	if err := validation.UpdateTask(req); err != nil {
		return invalid[models.CustomTask](err)
	}
	return call(ctx, c, http.MethodPut, "/tasks/custom", nil, req, func(e taskEnvelope) models.CustomTask { return e.Task })
}

// DeleteTask removes a task and returns the server's confirmation message.
func (c *Client) DeleteTask(ctx context.Context, req models.DeleteTaskRequest) Result[string] {
	if err := validation.DeleteTask(req); err != nil {
		return invalid[string](err)
	}
	return call(ctx, c, http.MethodDelete, "/tasks/custom", nil, req, func(e messageEnvelope) string { return e.Message })
}

// CompleteTask upserts the completion for (task, date).
func (c *Client) CompleteTask(ctx context.Context, req models.CompleteTaskRequest) Result[models.CompleteTaskResponse] {
	if err := validation.CompleteTask(req); err != nil {
		return invalid[models.CompleteTaskResponse](err)
	}
	return call(ctx, c, http.MethodPost, "/tasks/complete", nil, req, func(e models.CompleteTaskResponse) models.CompleteTaskResponse { return e })
}

func (c *Client) GetCompletions(ctx context.Context, date string) Result[models.DayCompletions] {
	var v validation.Result
	v.Date("date", date)
	if err := v.Err(); err != nil {
		return invalid[models.DayCompletions](err)
	}
	query := url.Values{"date": []string{date}}
	return call(ctx, c, http.MethodGet, "/tasks/completions", query, nil, func(e models.DayCompletions) models.DayCompletions {
		e.Completions = nonNil(e.Completions)
		return e
	})
}

func (c *Client) Health(ctx context.Context) Result[models.HealthStatus] {
	return call(ctx, c, http.MethodGet, "/health", nil, nil, func(e models.HealthStatus) models.HealthStatus { return e })
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
