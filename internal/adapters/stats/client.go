// Package stats is the HTTP client for the view-count aggregation service.
// The core uses it only to decorate event output; its storage format is the
// collaborator's own business.
package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"meetpoint/internal/domain"
)

const appName = "meetpoint-service"

// timeLayout is the collaborator's wire format for timestamps.
const timeLayout = "2006-01-02 15:04:05"

type viewStats struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

type endpointHit struct {
	App       string `json:"app"`
	URI       string `json:"uri"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
}

// Client talks to the stats server. It implements both
// domain.ViewStatsProvider and domain.HitRecorder.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient returns a stats client for the given server base URL.
func NewClient(client *http.Client, baseURL string) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// ViewsByEventIDs returns unique hit counts per event id for the window.
// Ids the server does not report are simply absent from the map; callers
// treat them as zero.
func (c *Client) ViewsByEventIDs(ctx context.Context, eventIDs []int64, start, end time.Time) (map[int64]int64, error) {
	views := make(map[int64]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return views, nil
	}

	q := url.Values{}
	q.Set("start", start.Format(timeLayout))
	q.Set("end", end.Format(timeLayout))
	q.Set("unique", "true")
	for _, id := range eventIDs {
		q.Add("uris", eventURI(id))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch view stats: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats server returned status: %d", resp.StatusCode)
	}

	var stats []viewStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("failed to decode view stats: %w", err)
	}
	for _, s := range stats {
		id, ok := eventIDFromURI(s.URI)
		if !ok {
			continue
		}
		views[id] = s.Hits
	}
	return views, nil
}

// RecordHit registers one endpoint hit with the stats server. Meant for the
// delivery layer on public event reads.
func (c *Client) RecordHit(ctx context.Context, uri, ip string) error {
	hit := endpointHit{
		App:       appName,
		URI:       uri,
		IP:        ip,
		Timestamp: time.Now().Format(timeLayout),
	}
	body, err := json.Marshal(hit)
	if err != nil {
		return fmt.Errorf("failed to encode hit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to record hit: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("stats server returned status: %d", resp.StatusCode)
	}
	return nil
}

func eventURI(id int64) string {
	return "/events/" + strconv.FormatInt(id, 10)
}

func eventIDFromURI(uri string) (int64, bool) {
	raw, ok := strings.CutPrefix(uri, "/events/")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

var _ domain.ViewStatsProvider = (*Client)(nil)
var _ domain.HitRecorder = (*Client)(nil)
