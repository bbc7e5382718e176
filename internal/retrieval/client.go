// Package retrieval provides an HTTP client for the external
// knowledge-retrieval service (collections, documents, search, RAG).
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/savoir-ai/whatsapp-assistant/pkg/logger"
	"github.com/savoir-ai/whatsapp-assistant/pkg/metrics"
)

const (
	// DefaultBaseURL is the retrieval service API root.
	DefaultBaseURL = "https://api.sciphi.ai/v3"

	// MaxListLimit caps the page size of listing requests regardless of
	// what the caller asked for.
	MaxListLimit = 1000

	defaultTimeout = 30 * time.Second
)

// Result is the uniform envelope for every retrieval operation. Remote
// failures (4xx/5xx, malformed bodies) and transport failures are both
// reported through it; methods never panic for expected remote errors.
type Result struct {
	OK   bool
	Data map[string]any
	Err  string
}

// Config holds retrieval client configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client talks to the retrieval service. The underlying HTTP client and
// its connection pool are created once and shared; Client is safe for
// concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
	logger  *logger.Logger
}

// New creates a retrieval client. A missing API key is a construction-time
// error so a misconfigured deployment fails at startup, not on first call.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("retrieval API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		logger:  log,
	}, nil
}

// Close releases idle connections held by the shared HTTP client.
func (c *Client) Close() {
	c.httpc.CloseIdleConnections()
}

// CreateCollection creates a named collection.
func (c *Client) CreateCollection(ctx context.Context, name, description string) Result {
	body := map[string]any{"name": name}
	if description != "" {
		body["description"] = description
	}
	return c.do(ctx, http.MethodPost, "/collections", body, nil)
}

// ListCollections lists collections. The limit is clamped to MaxListLimit.
func (c *Client) ListCollections(ctx context.Context, offset, limit int) Result {
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	return c.do(ctx, http.MethodGet, "/collections", nil, q)
}

// CreateDocument ingests a raw-text document. The document is not part of
// any collection until AddDocumentToCollection is called.
func (c *Client) CreateDocument(ctx context.Context, rawText string) Result {
	return c.do(ctx, http.MethodPost, "/documents", map[string]any{"raw_text": rawText}, nil)
}

// AddDocumentToCollection associates an existing document with a collection.
func (c *Client) AddDocumentToCollection(ctx context.Context, collectionID, documentID string) Result {
	path := fmt.Sprintf("/collections/%s/documents/%s", url.PathEscape(collectionID), url.PathEscape(documentID))
	return c.do(ctx, http.MethodPost, path, map[string]any{}, nil)
}

// Search runs a chunk search, optionally scoped to a collection.
func (c *Client) Search(ctx context.Context, query, collectionID string, maxChunks int, semantic bool) Result {
	body := map[string]any{
		"query":      query,
		"max_chunks": maxChunks,
		"semantic":   semantic,
	}
	if collectionID != "" {
		body["collection_id"] = collectionID
	}
	return c.do(ctx, http.MethodPost, "/search", body, nil)
}

// RAG answers a query with retrieval-augmented generation.
func (c *Client) RAG(ctx context.Context, query, collectionID string, maxChunks int, model string, temperature float64) Result {
	body := map[string]any{
		"query":       query,
		"max_chunks":  maxChunks,
		"model":       model,
		"temperature": temperature,
	}
	if collectionID != "" {
		body["collection_id"] = collectionID
	}
	return c.do(ctx, http.MethodPost, "/rag", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body map[string]any, query url.Values) Result {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return c.fail(method, path, fmt.Sprintf("encode request: %v", err))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return c.fail(method, path, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return c.fail(method, path, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(method, path, fmt.Sprintf("read response: %v", err))
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		if resp.StatusCode >= 400 {
			return c.fail(method, path, fmt.Sprintf("status %d: %s", resp.StatusCode, string(raw)))
		}
		return c.fail(method, path, fmt.Sprintf("invalid JSON response: %s", string(raw)))
	}

	if resp.StatusCode >= 400 {
		return c.fail(method, path, remoteMessage(data, resp.StatusCode))
	}
	if msg, ok := errorField(data); ok {
		return c.fail(method, path, msg)
	}

	metrics.RecordRetrievalRequest(method+" "+path, "ok")
	return Result{OK: true, Data: data}
}

func (c *Client) fail(method, path, msg string) Result {
	metrics.RecordRetrievalRequest(method+" "+path, "error")
	c.logger.Error("retrieval request failed",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("error", msg),
	)
	return Result{Err: msg}
}

// remoteMessage extracts the service's error message from an error body,
// preferring "message" over "error" as the service emits both shapes.
func remoteMessage(data map[string]any, status int) string {
	if msg, ok := data["message"].(string); ok && msg != "" {
		return msg
	}
	if msg, ok := data["error"].(string); ok && msg != "" {
		return msg
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func errorField(data map[string]any) (string, bool) {
	if msg, ok := data["error"].(string); ok && msg != "" {
		return msg, true
	}
	return "", false
}
