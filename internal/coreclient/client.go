// Package coreclient calls the core service's internal HTTP surface. The
// recommendation service uses it to resolve lesson details and completion
// state; every call carries an explicit timeout so a slow core instance can
// only degrade a recommendation, never hang it.
package coreclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kodegym/kodegym/internal/dto"
)

// Client resolves lesson catalog data from the core service.
type Client interface {
	Lesson(ctx context.Context, lessonID uint) (dto.LessonSummaryResponse, error)
	CompletedLessonIDs(ctx context.Context, userID uint) ([]uint, error)
}

// Config groups client options.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// New constructs an HTTP-backed core client.
func New(cfg Config) Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &httpClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With().Str("component", "core_client").Logger(),
	}
}

type httpClient struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// envelope mirrors the core service's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *httpClient) Lesson(ctx context.Context, lessonID uint) (dto.LessonSummaryResponse, error) {
	var lesson dto.LessonSummaryResponse
	err := c.get(ctx, fmt.Sprintf("/internal/lessons/%d", lessonID), &lesson)
	return lesson, err
}

func (c *httpClient) CompletedLessonIDs(ctx context.Context, userID uint) ([]uint, error) {
	var completed dto.CompletedLessonsResponse
	if err := c.get(ctx, fmt.Sprintf("/internal/users/%d/completed-lessons", userID), &completed); err != nil {
		return nil, err
	}
	return completed.LessonIDs, nil
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call core %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("core %s returned status %d", path, resp.StatusCode)
	}

	var wrapped envelope
	if err := json.NewDecoder(resp.Body).Decode(&wrapped); err != nil {
		return fmt.Errorf("decode core %s response: %w", path, err)
	}
	if !wrapped.Success {
		return fmt.Errorf("core %s rejected request: %s", path, wrapped.Message)
	}

	if err := json.Unmarshal(wrapped.Data, out); err != nil {
		return fmt.Errorf("decode core %s payload: %w", path, err)
	}

	return nil
}
