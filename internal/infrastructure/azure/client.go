// Package azure implements the work item service client. It executes a
// serialized WIQL query against the tracker REST API and returns the raw
// item payloads; the query engine itself never touches the network.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"flowmetrics/internal/core/apperror"
	"flowmetrics/internal/domain/wiql"
	"flowmetrics/internal/domain/workitem"
	"flowmetrics/pkg/logger"
)

var tracer = otel.Tracer("flowmetrics/azure")

const (
	apiVersion = "7.1"

	// the batch read endpoint accepts at most 200 ids per call
	maxBatchSize = 200
)

// Config holds client configuration.
type Config struct {
	// BaseURL is the organization URL, e.g. https://dev.azure.com/acme
	BaseURL string
	Project string
	// PAT is a personal access token sent as basic auth.
	PAT string

	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	BatchSize    int
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	if c.BatchSize <= 0 || c.BatchSize > maxBatchSize {
		c.BatchSize = maxBatchSize
	}
	return c
}

// Client talks to the tracker REST API.
type Client struct {
	cfg   Config
	httpc *http.Client
	log   *logger.Logger
}

// NewClient creates a Client. log may be nil.
func NewClient(cfg Config, log *logger.Logger) *Client {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Default()
	}
	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
		log:   log.WithComponent("azure"),
	}
}

// QueryWorkItems executes the query and resolves the matched ids into full
// work items, batching the reads.
func (c *Client) QueryWorkItems(ctx context.Context, q *wiql.Query) ([]workitem.WorkItem, error) {
	ctx, span := tracer.Start(ctx, "azure.QueryWorkItems",
		trace.WithAttributes(attribute.String("project", c.cfg.Project)))
	defer span.End()

	ids, err := c.runQuery(ctx, q.String())
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("matched", len(ids)))

	if len(ids) == 0 {
		return nil, nil
	}

	// the batch endpoint wants explicit reference names; a wildcard select
	// falls back to "return everything"
	var fields []string
	if len(q.SelectFields) > 0 && q.SelectFields[0] != wiql.Wildcard {
		fields = q.SelectFields
	}

	items := make([]workitem.WorkItem, 0, len(ids))
	for start := 0; start < len(ids); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch, err := c.fetchBatch(ctx, ids[start:end], fields)
		if err != nil {
			return nil, err
		}
		items = append(items, batch...)
	}

	c.log.Infow("fetched work items", "project", c.cfg.Project, "count", len(items))
	return items, nil
}

type queryResponse struct {
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
}

func (c *Client) runQuery(ctx context.Context, wiqlText string) ([]int, error) {
	url := fmt.Sprintf("%s/%s/_apis/wit/wiql?api-version=%s", c.cfg.BaseURL, c.cfg.Project, apiVersion)

	body, err := c.post(ctx, url, map[string]any{"query": wiqlText})
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode wiql response: %w", err)
	}

	ids := make([]int, len(resp.WorkItems))
	for i, wi := range resp.WorkItems {
		ids[i] = wi.ID
	}
	return ids, nil
}

type batchResponse struct {
	Value []workitem.WorkItem `json:"value"`
}

func (c *Client) fetchBatch(ctx context.Context, ids []int, fields []string) ([]workitem.WorkItem, error) {
	url := fmt.Sprintf("%s/%s/_apis/wit/workitemsbatch?api-version=%s", c.cfg.BaseURL, c.cfg.Project, apiVersion)

	payload := map[string]any{"ids": ids}
	if len(fields) > 0 {
		payload["fields"] = fields
	}

	body, err := c.post(ctx, url, payload)
	if err != nil {
		return nil, err
	}

	var resp batchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode batch response: %w", err)
	}
	return resp.Value, nil
}

// post sends a JSON request with retry. 429 honors Retry-After; 5xx and
// transport errors back off exponentially.
func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	backoff := c.cfg.RetryBackoff
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.SetBasicAuth("", c.cfg.PAT)

		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			if isTimeout(err) {
				lastErr = apperror.NewTimeout("tracker request").WithCause(err)
			}
			c.log.Warnw("request failed, retrying", "url", url, "attempt", attempt+1, "error", err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if readErr != nil {
				return nil, fmt.Errorf("read response: %w", readErr)
			}
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := resp.Header.Get("Retry-After")
			lastErr = apperror.NewThrottled(retryAfter)
			if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
				backoff = time.Duration(secs) * time.Second
			}
			c.log.Warnw("throttled by tracker API", "retry_after", retryAfter, "attempt", attempt+1)

		case resp.StatusCode >= 500:
			lastErr = apperror.NewUpstream(resp.StatusCode, fmt.Errorf("server error: %s", resp.Status))
			c.log.Warnw("upstream error, retrying", "status", resp.StatusCode, "attempt", attempt+1)

		default:
			// 4xx besides throttling is not retryable
			return nil, apperror.NewUpstream(resp.StatusCode,
				fmt.Errorf("request rejected: %s: %s", resp.Status, string(body)))
		}
	}

	if appErr, ok := apperror.AsAppError(lastErr); ok {
		return nil, appErr
	}
	return nil, apperror.NewUpstream(0, lastErr)
}

// isTimeout reports whether err is a deadline or transport timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
