// ABOUTME: HubSpot CRM API client for deal search
// ABOUTME: Bearer auth, cursor pagination, and backoff on rate limits
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/cbaraj14/hubspot-reporting/fiscal"
	"github.com/cbaraj14/hubspot-reporting/models"
)

const (
	defaultBaseURL = "https://api.hubapi.com"
	searchPath     = "/crm/v3/objects/deals/search"
	pageLimit      = 100
)

// dealProperties are requested for every deal.
var dealProperties = []string{
	"dealname", "amount", "pipeline", "closedate", "hs_lastmodifieddate",
	"hubspot_owner_id", "company_id", "company_name", "contact_email",
}

// Client talks to the HubSpot CRM v3 API. Private-app tokens are plain
// bearer tokens, carried by an oauth2 static token source.
type Client struct {
	httpc   *http.Client
	baseURL string
}

// NewClient builds a client from a private-app access token.
func NewClient(ctx context.Context, token string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpc := oauth2.NewClient(ctx, src)
	httpc.Timeout = 30 * time.Second
	return &Client{httpc: httpc, baseURL: defaultBaseURL}
}

// NewClientWithBaseURL is NewClient pointed at a different host, used
// by tests.
func NewClientWithBaseURL(ctx context.Context, token, baseURL string) *Client {
	c := NewClient(ctx, token)
	c.baseURL = baseURL
	return c
}

type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups,omitempty"`
	Properties   []string      `json:"properties"`
	Limit        int           `json:"limit"`
	After        string        `json:"after,omitempty"`
}

type filterGroup struct {
	Filters []filter `json:"filters"`
}

type filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type searchResponse struct {
	Total   int `json:"total"`
	Results []struct {
		ID         string            `json:"id"`
		Properties map[string]string `json:"properties"`
	} `json:"results"`
	Paging *struct {
		Next struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

// FetchDealsSince pulls every deal in one pipeline modified at or after
// since, following paging cursors until exhausted. A nil since fetches
// the full pipeline.
func (c *Client) FetchDealsSince(ctx context.Context, pipeline string, since *time.Time) ([]models.DealRecord, error) {
	var out []models.DealRecord
	after := ""

	for {
		req := searchRequest{
			Properties: dealProperties,
			Limit:      pageLimit,
			After:      after,
		}
		filters := []filter{{PropertyName: "pipeline", Operator: "EQ", Value: pipeline}}
		if since != nil {
			filters = append(filters, filter{
				PropertyName: "hs_lastmodifieddate",
				Operator:     "GTE",
				Value:        strconv.FormatInt(since.UnixMilli(), 10),
			})
		}
		req.FilterGroups = []filterGroup{{Filters: filters}}

		var resp searchResponse
		if err := c.postSearch(ctx, &req, &resp); err != nil {
			return nil, fmt.Errorf("deal search for pipeline %s: %w", pipeline, err)
		}

		for _, result := range resp.Results {
			out = append(out, recordFromProperties(result.ID, result.Properties, pipeline))
		}

		if resp.Paging == nil || resp.Paging.Next.After == "" {
			return out, nil
		}
		after = resp.Paging.Next.After
	}
}

// postSearch posts one search page, retrying rate limits and transient
// server errors with exponential backoff.
func (c *Client) postSearch(ctx context.Context, req *searchRequest, out *searchResponse) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode search request: %w", err)
	}

	b := backoff{base: 500 * time.Millisecond, maxRetries: 4}
	return b.do(ctx, func() (retryable bool, err error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(body))
		if err != nil {
			return false, err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpc.Do(httpReq)
		if err != nil {
			return true, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			return true, fmt.Errorf("hubspot %d: %s", resp.StatusCode, snippet)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			return false, fmt.Errorf("hubspot %d: %s", resp.StatusCode, snippet)
		}

		return false, json.NewDecoder(resp.Body).Decode(out)
	})
}

// recordFromProperties maps one API result onto a DealRecord. Field
// defects follow the documented fallbacks: amount defaults to zero,
// an unparsable close date stays unknown.
func recordFromProperties(id string, props map[string]string, sourceLabel string) models.DealRecord {
	rec := models.DealRecord{
		DealID:       id,
		EntityID:     props["company_id"],
		EntityName:   props["company_name"],
		ContactEmail: props["contact_email"],
		Pipeline:     props["pipeline"],
		OwnerID:      props["hubspot_owner_id"],
		DealName:     props["dealname"],
		SourceLabel:  sourceLabel,
	}

	if amount, err := strconv.ParseFloat(props["amount"], 64); err == nil {
		rec.Amount = amount
	}
	if t, ok := fiscal.ParseDate(props["closedate"]); ok {
		rec.CloseDate = t
		rec.CloseKnown = true
	}
	if t, ok := fiscal.ParseDate(props["hs_lastmodifieddate"]); ok {
		rec.LastModified = t
	}
	return rec
}

// backoff retries transient failures with exponential delay, the same
// shape the rest of the pipeline uses for flaky upstreams.
type backoff struct {
	base       time.Duration
	maxRetries int
}

func (b backoff) do(ctx context.Context, fn func() (retryable bool, err error)) error {
	var err error
	for i := 0; i <= b.maxRetries; i++ {
		var retryable bool
		retryable, err = fn()
		if err == nil {
			return nil
		}
		if !retryable {
			return err
		}
		select {
		case <-time.After(time.Duration(1<<i) * b.base):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
