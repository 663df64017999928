package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/logger"
)

const maxResponseBytes = 1 << 20

// TokenSource supplies the bearer token attached to every request.
// An empty token sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Tokens     TokenSource
	HTTPClient *http.Client
}

// Client talks to the hard75 REST API. None of its methods return a Go
// error; every outcome is a Result.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
}

// Result is the uniform outcome of a client call.
type Result[T any] struct {
	Success bool
	Data    T
	Err     *apperrors.AppError
}

func ok[T any](v T) Result[T] {
	return Result[T]{Success: true, Data: v}
}

func fail[T any](err *apperrors.AppError) Result[T] {
	return Result[T]{Err: err}
}

// New validates opts and returns a client. A missing or malformed base URL is
// a configuration error.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, apperrors.Configuration("missing required API URL (set --api-url or HARD75_API_URL)")
	}
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperrors.Configuration(fmt.Sprintf("invalid API URL %q", opts.BaseURL))
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = constants.DefaultAPITimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens = StaticToken("")
	}

	return &Client{baseURL: u, http: httpClient, tokens: tokens}, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type errorBody struct {
	Error string `json:"error"`
}

// do sends one request and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) *apperrors.AppError {
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.Validation(fmt.Sprintf("failed to encode request: %v", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return apperrors.Configuration(fmt.Sprintf("failed to build request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", constants.AppName+"/"+constants.Version)
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := logger.With("method", method, "path", path)
	start := time.Now()

	res, err := c.http.Do(req)
	if err != nil {
		if log != nil {
			log.Debug("Request failed", "error", err)
		}
		return apperrors.FromError(err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return apperrors.FromError(err)
	}
	if log != nil {
		log.Debug("Request finished", "status", res.StatusCode, "elapsed", time.Since(start))
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var eb errorBody
		if err := json.Unmarshal(data, &eb); err != nil {
			return apperrors.FromHTTP(res.StatusCode, "")
		}
		return apperrors.FromHTTP(res.StatusCode, eb.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		e := apperrors.New(apperrors.CategoryNetwork, apperrors.CodeBadResponse, fmt.Sprintf("malformed response from %s %s", method, path))
		e.Cause = err
		return e
	}
	return nil
}

// call runs do and unwraps the envelope with pick.
func call[E any, T any](ctx context.Context, c *Client, method, path string, query url.Values, body interface{}, pick func(E) T) Result[T] {
	var envelope E
	if err := c.do(ctx, method, path, query, body, &envelope); err != nil {
		return fail[T](err)
	}
	return ok(pick(envelope))
}

func invalid[T any](err error) Result[T] {
	return fail[T](apperrors.Validation(err.Error()))
}
