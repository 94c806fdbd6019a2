package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yungbote/pipelines-backend/internal/observability"
	"github.com/yungbote/pipelines-backend/internal/platform/envutil"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

const (
	defaultFetchTimeout = 30 * time.Second
	defaultTestTimeout  = 10 * time.Second
	maxResponseBytes    = 8 << 20
)

// Record is one item returned by a workflow, decoded with json.Number for
// numeric fields.
type Record = map[string]any

// Client calls n8n webhooks. FetchList never fails; any transport, status or
// decode problem yields an empty list and a log line.
type Client interface {
	FetchList(ctx context.Context, webhookURL string, payload FetchPayload) []Record
	TestConnection(ctx context.Context, webhookURL string) TestResult
}

type Config struct {
	FetchTimeout time.Duration
	TestTimeout  time.Duration
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		FetchTimeout: envutil.GetEnvAsSeconds("N8N_TIMEOUT_SECONDS", defaultFetchTimeout, log),
		TestTimeout:  envutil.GetEnvAsSeconds("N8N_TEST_TIMEOUT_SECONDS", defaultTestTimeout, log),
	}
}

// FetchPayload is the contact snapshot and query sent to a workflow.
type FetchPayload struct {
	ContactID            string         `json:"contact_id"`
	Email                string         `json:"email"`
	Phone                string         `json:"phone"`
	Name                 string         `json:"name"`
	CustomAttributes     map[string]any `json:"custom_attributes"`
	AdditionalAttributes map[string]any `json:"additional_attributes"`
	SearchQuery          string         `json:"search_query"`
	Filters              map[string]any `json:"filters"`
	AccountID            string         `json:"account_id"`
}

// TestResult mirrors what the connection check reports to the caller.
type TestResult struct {
	Success bool   `json:"success"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type client struct {
	log     *logger.Logger
	cfg     Config
	fetch   *http.Client
	test    *http.Client
	metrics *observability.Metrics
}

func New(log *logger.Logger, cfg Config, metrics *observability.Metrics) Client {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.TestTimeout <= 0 {
		cfg.TestTimeout = defaultTestTimeout
	}
	return &client{
		log:     log.With("client", "N8NClient"),
		cfg:     cfg,
		fetch:   &http.Client{Timeout: cfg.FetchTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		test:    &http.Client{Timeout: cfg.TestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		metrics: metrics,
	}
}

func (c *client) FetchList(ctx context.Context, webhookURL string, payload FetchPayload) []Record {
	start := time.Now()
	if payload.Filters == nil {
		payload.Filters = map[string]any{}
	}
	records, err := c.fetchList(ctx, webhookURL, payload)
	if err != nil {
		c.metrics.ObserveN8N("fetch", "error", 0, time.Since(start))
		c.log.Error("n8n fetch failed", "webhook_url", webhookURL, "account_id", payload.AccountID, "error", err)
		return []Record{}
	}
	c.metrics.ObserveN8N("fetch", "ok", len(records), time.Since(start))
	return records
}

func (c *client) fetchList(ctx context.Context, webhookURL string, payload FetchPayload) ([]Record, error) {
	resp, err := c.post(ctx, c.fetch, webhookURL, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("n8n http %d", resp.StatusCode)
	}
	return parseRecords(body)
}

// parseRecords accepts a top-level array or an object carrying the list
// under items, data or results (first present wins). Anything else is empty.
func parseRecords(body []byte) ([]Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []Record{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode n8n response: %w", err)
	}

	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	case map[string]any:
		for _, k := range []string{"items", "data", "results"} {
			if inner, ok := v[k]; ok && inner != nil {
				list, _ = inner.([]any)
				break
			}
		}
	}

	out := make([]Record, 0, len(list))
	for _, item := range list {
		if rec, ok := item.(map[string]any); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (c *client) TestConnection(ctx context.Context, webhookURL string) TestResult {
	start := time.Now()
	resp, err := c.post(ctx, c.test, webhookURL, map[string]any{"test": true, "contact_id": 0})
	if err != nil {
		c.metrics.ObserveN8N("test", "error", 0, time.Since(start))
		return TestResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.ObserveN8N("test", "failed", 0, time.Since(start))
		return TestResult{Success: false, Status: resp.StatusCode, Error: "Connection failed"}
	}
	c.metrics.ObserveN8N("test", "ok", 0, time.Since(start))
	return TestResult{Success: true, Status: resp.StatusCode, Message: "Connection successful!"}
}

func (c *client) post(ctx context.Context, hc *http.Client, webhookURL string, body any) (*http.Response, error) {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL == "" {
		return nil, fmt.Errorf("missing webhook url")
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return hc.Do(req)
}
