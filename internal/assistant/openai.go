package assistant

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// messagePageSize bounds how many recent messages are fetched per reply.
const messagePageSize = 20

// OpenAIConfig configures the HTTP provider.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// OpenAIClient implements Provider against the OpenAI Assistants v2 API.
type OpenAIClient struct {
	http *resty.Client
}

// NewOpenAIClient creates a provider client. Only idempotent GETs are retried.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("assistant API key is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("OpenAI-Beta", "assistants=v2").
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(300 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &OpenAIClient{http: client}, nil
}

// CreateThread opens a new thread.
func (c *OpenAIClient) CreateThread(ctx context.Context) (string, error) {
	body, err := c.do(ctx, "create thread", http.MethodPost, "/threads", map[string]any{})
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(body, "id").String()
	if id == "" {
		return "", fmt.Errorf("create thread: response has no id")
	}
	return id, nil
}

// AddMessage appends a message to a thread.
func (c *OpenAIClient) AddMessage(ctx context.Context, threadID string, role Role, content string) error {
	_, err := c.do(ctx, "add message", http.MethodPost, "/threads/"+threadID+"/messages", map[string]any{
		"role":    string(role),
		"content": content,
	})
	return err
}

// CreateRun starts an assistant on a thread.
func (c *OpenAIClient) CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error) {
	body, err := c.do(ctx, "create run", http.MethodPost, "/threads/"+threadID+"/runs", map[string]any{
		"assistant_id": assistantID,
	})
	if err != nil {
		return nil, err
	}
	return parseRun(body, threadID), nil
}

// GetRun fetches the current state of a run.
func (c *OpenAIClient) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	body, err := c.do(ctx, "get run", http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil)
	if err != nil {
		return nil, err
	}
	return parseRun(body, threadID), nil
}

// ListMessages returns the most recent thread messages, newest first.
func (c *OpenAIClient) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	path := fmt.Sprintf("/threads/%s/messages?order=desc&limit=%d", threadID, messagePageSize)
	body, err := c.do(ctx, "list messages", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var messages []Message
	gjson.GetBytes(body, "data").ForEach(func(_, item gjson.Result) bool {
		var parts []string
		item.Get("content").ForEach(func(_, part gjson.Result) bool {
			if part.Get("type").String() == "text" {
				parts = append(parts, part.Get("text.value").String())
			}
			return true
		})
		messages = append(messages, Message{
			ID:    item.Get("id").String(),
			Role:  Role(item.Get("role").String()),
			RunID: item.Get("run_id").String(),
			Text:  strings.Join(parts, "\n"),
		})
		return true
	})
	return messages, nil
}

func (c *OpenAIClient) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if payload != nil {
		req.SetBody(payload)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("assistant API %s: %w", op, err)
	}
	if resp.IsError() {
		msg := gjson.GetBytes(resp.Body(), "error.message").String()
		if msg == "" {
			msg = resp.String()
		}
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode(), Body: msg}
	}
	return resp.Body(), nil
}

func parseRun(body []byte, threadID string) *Run {
	res := gjson.ParseBytes(body)
	run := &Run{
		ID:           res.Get("id").String(),
		ThreadID:     res.Get("thread_id").String(),
		Status:       RunStatus(res.Get("status").String()),
		ErrorCode:    res.Get("last_error.code").String(),
		ErrorMessage: res.Get("last_error.message").String(),
	}
	if run.ThreadID == "" {
		run.ThreadID = threadID
	}
	return run
}
