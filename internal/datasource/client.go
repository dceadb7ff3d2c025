package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/access-audit-reports/internal"
	"github.com/frahmantamala/access-audit-reports/internal/report"
)

const (
	apiKeyHeader  = "X-API-Key"
	sessionHeader = "X-Console-Session"
)

type Config struct {
	BaseURL string
	APIKey  string
	// RequestTimeout bounds a single HTTP round trip. Zero means no limit.
	RequestTimeout time.Duration
}

// Client talks to the remote report service over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		logger:     logger,
	}
}

func (c *Client) FetchReport(ctx context.Context, category string, filters []string, paging Paging) (*report.RawPayload, error) {
	body := reportRequest{Filters: filters, Page: paging.Page, PageSize: paging.PageSize}
	return c.post(ctx, "/reports/"+url.PathEscape(category), body)
}

func (c *Client) FetchBulk(ctx context.Context, category string, filters []string, auxFilterValues []string) (*report.RawPayload, error) {
	body := bulkRequest{Filters: filters, AuxFilterValues: auxFilterValues}
	return c.post(ctx, "/reports/"+url.PathEscape(category)+"/bulk", body)
}

func (c *Client) post(ctx context.Context, path string, reqBody interface{}) (*report.RawPayload, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, internal.NewInternalError("Failed to encode report request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, internal.NewInternalError("Failed to create report request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set(apiKeyHeader, c.apiKey)
	}
	if sessionID := internal.SessionIDFromContext(ctx); sessionID != "" {
		httpReq.Header.Set(sessionHeader, sessionID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("report service request failed", "path", path, "error", err)
		return nil, internal.ErrRemoteFailure.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("report service returned error status",
			"path", path,
			"status_code", resp.StatusCode,
			"body", string(snippet))
		return nil, internal.ErrRemoteFailure.WithCause(fmt.Errorf("report service returned status %d", resp.StatusCode))
	}

	payload, err := report.DecodePayload(resp.Body)
	if err != nil {
		c.logger.Error("report service response could not be decoded", "path", path, "error", err)
		return nil, internal.ErrRemoteFailure.WithCause(err)
	}

	c.logger.Debug("report service request completed",
		"path", path,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())
	return payload, nil
}
