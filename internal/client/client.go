// Package client talks to the katalyst server over HTTP.
package client

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

	"github.com/verte-zerg/katalyst/internal/model"
)

const (
	apiKeyHeader   = "x-api-key"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a catalog and progress API client.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
}

// New validates the base URL and builds a client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("server url is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", raw, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", raw)
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, apiKey: opts.APIKey, http: hc}, nil
}

// StatusError is a non-2xx response from the server.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// NotFound reports whether the server answered 404.
func (e *StatusError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// GetCourse fetches one course.
func (c *Client) GetCourse(ctx context.Context, courseID string) (model.Course, error) {
	var course model.Course
	err := c.do(ctx, http.MethodGet, []string{"courses", courseID}, nil, &course)
	return course, err
}

// ListCourses fetches course summaries.
func (c *Client) ListCourses(ctx context.Context) ([]model.CourseSummary, error) {
	var resp struct {
		Courses []model.CourseSummary `json:"courses"`
	}
	if err := c.do(ctx, http.MethodGet, []string{"courses"}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Courses, nil
}

// CreateCourse submits a new course.
func (c *Client) CreateCourse(ctx context.Context, course model.Course) (model.Course, error) {
	var created model.Course
	err := c.do(ctx, http.MethodPost, []string{"courses"}, course, &created)
	return created, err
}

// RecordProgress reports one lesson for a learner.
func (c *Client) RecordProgress(ctx context.Context, update model.ProgressUpdate) error {
	var resp struct {
		Message         string               `json:"message"`
		CurrentProgress model.ProgressRecord `json:"currentProgress"`
	}
	return c.do(ctx, http.MethodPost, []string{"courses", update.CourseID, "progress"}, update, &resp)
}

// GetProgress fetches the learner's record. Unknown pairs come back empty.
func (c *Client) GetProgress(ctx context.Context, userID, courseID string) (model.ProgressRecord, error) {
	rec := model.NewProgressRecord()
	if err := c.do(ctx, http.MethodGet, []string{"courses", courseID, "progress", userID}, nil, &rec); err != nil {
		return model.ProgressRecord{}, err
	}
	if rec.CompletedLessons == nil {
		rec.CompletedLessons = []string{}
	}
	if rec.QuizScores == nil {
		rec.QuizScores = map[string]int{}
	}
	return rec, nil
}

func (c *Client) endpoint(segments []string) string {
	u := *c.baseURL
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.Join(segments, "/")
	u.RawPath = strings.TrimRight(c.baseURL.EscapedPath(), "/") + "/" + strings.Join(escaped, "/")
	return u.String()
}

func (c *Client) do(ctx context.Context, method string, segments []string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(segments), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeStatusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeStatusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	statusErr := &StatusError{StatusCode: resp.StatusCode}
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &env) == nil && len(env.Error) > 0 {
		var detail struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		}
		var plain string
		switch {
		case json.Unmarshal(env.Error, &detail) == nil:
			statusErr.Message = detail.Message
			statusErr.Code = detail.Code
		case json.Unmarshal(env.Error, &plain) == nil:
			statusErr.Message = plain
		}
	}
	if statusErr.Message == "" {
		statusErr.Message = strings.TrimSpace(string(raw))
	}
	return statusErr
}
