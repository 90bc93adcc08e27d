package withings

import (
	"encoding/json"
	"errors"
	"time"

	"wearsync/internal/domain"
)

// measureGroup is one getmeas measure group, pre-flattened to the
// fields the canonical schema consumes.
type measureGroup struct {
	Date     int64    `json:"date"` // epoch seconds
	Weight   *float64 `json:"weight"`
	FatRatio *float64 `json:"fat_ratio"`
}

// NormalizeDaily maps a measure group into a canonical DailyMetric.
// The epoch-second reading time becomes the metric date.
func (c *Client) NormalizeDaily(raw json.RawMessage) (domain.DailyMetric, error) {
	var p measureGroup
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.DailyMetric{}, err
	}
	return domain.DailyMetric{
		MetricDate: time.Unix(p.Date, 0).UTC().Format("2006-01-02"),
		WeightKg:   p.Weight,
		BodyFatPct: p.FatRatio,
	}, nil
}

// NormalizeActivity is unsupported: Withings publishes no activities.
func (c *Client) NormalizeActivity(raw json.RawMessage) (domain.Activity, error) {
	return domain.Activity{}, errors.New("withings has no activity payloads")
}
