package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wearsync/internal/domain"
	"wearsync/internal/provider"
)

// FetchDailySummaries pulls wellness daily summaries for the window.
// A non-2xx response surfaces as a *provider.FetchError.
func (c *Client) FetchDailySummaries(ctx context.Context, accessToken string, start, end time.Time) ([]json.RawMessage, error) {
	url := fmt.Sprintf("%s/wellness-service/wellness/dailySummary/%s/%s",
		c.APIBase, start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"))
	return c.fetchArray(ctx, accessToken, url, "dailySummary")
}

// FetchActivities pulls activity summaries for the window.
func (c *Client) FetchActivities(ctx context.Context, accessToken string, start, end time.Time) ([]json.RawMessage, error) {
	url := fmt.Sprintf("%s/activity-service/activity/activities?startDate=%s&endDate=%s",
		c.APIBase, start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"))
	return c.fetchArray(ctx, accessToken, url, "activities")
}

func (c *Client) fetchArray(ctx context.Context, accessToken, url, endpoint string) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &provider.FetchError{Provider: domain.ProviderGarmin, Endpoint: endpoint, Status: resp.StatusCode}
	}

	var items []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("garmin %s: decode response: %w", endpoint, err)
	}
	return items, nil
}
