package withings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wearsync/internal/domain"
	"wearsync/internal/provider"
)

// measureEnvelope wraps the getmeas response. As with the token
// endpoint, a nonzero status signals failure regardless of the HTTP
// status code.
type measureEnvelope struct {
	Status int `json:"status"`
	Body   struct {
		MeasureGroups []json.RawMessage `json:"measuregrps"`
	} `json:"body"`
}

// FetchDailySummaries pulls body measure groups for the window. Each
// group normalizes into a weight/body-fat daily metric. A nonzero
// envelope status surfaces as a *provider.FetchError.
func (c *Client) FetchDailySummaries(ctx context.Context, accessToken string, start, end time.Time) ([]json.RawMessage, error) {
	form := url.Values{}
	form.Set("action", "getmeas")
	form.Set("access_token", accessToken)
	form.Set("startdate", strconv.FormatInt(start.Unix(), 10))
	form.Set("enddate", strconv.FormatInt(end.Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBase+"/measure", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var env measureEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	if env.Status != 0 {
		return nil, &provider.FetchError{Provider: domain.ProviderWithings, Endpoint: "getmeas", Status: env.Status}
	}
	return env.Body.MeasureGroups, nil
}

// FetchActivities returns no items: the Withings integration ingests
// body measurements only.
func (c *Client) FetchActivities(ctx context.Context, accessToken string, start, end time.Time) ([]json.RawMessage, error) {
	return nil, nil
}
