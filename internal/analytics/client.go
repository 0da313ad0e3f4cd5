// Package analytics is the HTTP client for the team analytics backend: the
// Analytics query endpoint for per-key usage records and the
// UserPageAnalytics endpoint for the user directory.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// DefaultBaseURL is the production analytics API root.
	DefaultBaseURL = "https://server.codeium.com/api/v1"

	// fetchTimeout bounds a single usage query. One slow key must not
	// stall the whole batch for longer than this.
	fetchTimeout = 10 * time.Second

	dataSourceCascade = "QUERY_DATA_SOURCE_CASCADE_DATA"

	filterGE    = "QUERY_FILTER_GE"
	filterLE    = "QUERY_FILTER_LE"
	filterEqual = "QUERY_FILTER_EQUAL"
)

// Field sets selected per aggregation kind. The monthly report additionally
// needs prompts_used.
var (
	FlexFields   = []string{"api_key", "date", "flex_credits_used", "model"}
	CreditFields = []string{"api_key", "date", "prompts_used", "flex_credits_used", "model"}
)

type selection struct {
	Field string `json:"field"`
	Name  string `json:"name"`
}

type queryFilter struct {
	Name   string `json:"name"`
	Filter string `json:"filter"`
	Value  string `json:"value"`
}

type queryRequest struct {
	DataSource string        `json:"data_source"`
	Selections []selection   `json:"selections"`
	Filters    []queryFilter `json:"filters"`
}

type usageQueryPayload struct {
	ServiceKey    string         `json:"service_key"`
	QueryRequests []queryRequest `json:"query_requests"`
}

type userTablePayload struct {
	ServiceKey     string `json:"service_key"`
	StartTimestamp string `json:"start_timestamp"`
	EndTimestamp   string `json:"end_timestamp"`
}

// Client issues queries against the analytics backend using a static service
// key. It is safe for concurrent use.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func NewClient(serviceKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: fetchTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchUsage runs one usage query for a single API key over the inclusive
// [startDate, endDate] range and returns the flattened record list. A
// response with missing envelope levels is "no data", not an error.
func (c *Client) FetchUsage(ctx context.Context, apiKey, startDate, endDate string, fields []string) ([]UsageRecord, error) {
	selections := make([]selection, 0, len(fields))
	for _, f := range fields {
		selections = append(selections, selection{Field: f, Name: f})
	}

	payload := usageQueryPayload{
		ServiceKey: c.serviceKey,
		QueryRequests: []queryRequest{{
			DataSource: dataSourceCascade,
			Selections: selections,
			Filters: []queryFilter{
				{Name: "date", Filter: filterGE, Value: startDate},
				{Name: "date", Filter: filterLE, Value: endDate},
				{Name: "api_key", Filter: filterEqual, Value: apiKey},
			},
		}},
	}

	body, err := c.post(ctx, "/Analytics", payload)
	if err != nil {
		return nil, err
	}
	return parseUsageRecords(body), nil
}

// parseUsageRecords unwraps queryResults[].responseItems[].item. The item
// values arrive with mixed types (numbers, quoted numbers, null, "<nil>"),
// so they are plucked with gjson and kept as raw strings.
func parseUsageRecords(body []byte) []UsageRecord {
	var records []UsageRecord
	for _, queryResult := range gjson.GetBytes(body, "queryResults").Array() {
		for _, responseItem := range queryResult.Get("responseItems").Array() {
			item := responseItem.Get("item")
			if !item.Exists() {
				continue
			}
			records = append(records, UsageRecord{
				APIKey:          item.Get("api_key").String(),
				Date:            item.Get("date").String(),
				Model:           item.Get("model").String(),
				FlexCreditsUsed: item.Get("flex_credits_used").String(),
				PromptsUsed:     item.Get("prompts_used").String(),
			})
		}
	}
	return records
}

// FetchUserTable returns the user directory for the given window, used to
// regenerate the email/API-key mapping.
func (c *Client) FetchUserTable(ctx context.Context, start, end time.Time) ([]UserTableEntry, error) {
	payload := userTablePayload{
		ServiceKey:     c.serviceKey,
		StartTimestamp: start.Format("2006-01-02T00:00:00Z"),
		EndTimestamp:   end.Format("2006-01-02T23:59:59Z"),
	}

	body, err := c.post(ctx, "/UserPageAnalytics", payload)
	if err != nil {
		return nil, err
	}

	var resp struct {
		UserTableStats []UserTableEntry `json:"userTableStats"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing user table response: %w", err)
	}
	return resp.UserTableStats, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return body, nil
}
