package garmin

import (
	"encoding/json"
	"math"

	"wearsync/internal/domain"
)

// dailySummary is the shape of one Garmin wellness daily summary.
// Optional fields stay nil when absent from the payload.
type dailySummary struct {
	CalendarDate     string   `json:"calendarDate"`
	CaloriesBurned   *float64 `json:"caloriesBurned"`
	Steps            *int64   `json:"steps"`
	SleepingSeconds  *float64 `json:"sleepingSeconds"`
	SleepEfficiency  *float64 `json:"sleepEfficiency"`
	RestingHeartRate *int64   `json:"restingHeartRate"`
	HRVRMSSD         *float64 `json:"hrvRmssd"`
	StressLevel      *float64 `json:"stressLevel"`
	TrainingLoad     *float64 `json:"trainingLoad"`
	Weight           *float64 `json:"weight"`
	BodyFat          *float64 `json:"bodyFat"`
}

// activitySummary is the shape of one Garmin activity record.
type activitySummary struct {
	ActivityID          json.Number `json:"activityId"`
	ActivityName        string      `json:"activityName"`
	ActivityType        string      `json:"activityType"`
	StartTimeLocal      string      `json:"startTimeLocal"`
	StartTimeGMT        string      `json:"startTimeGMT"`
	Duration            *float64    `json:"duration"`
	Distance            *float64    `json:"distance"`
	AverageHR           *int64      `json:"averageHR"`
	MaxHR               *int64      `json:"maxHR"`
	TRIMP               *float64    `json:"trimp"`
	TrainingStressScore *float64    `json:"trainingStressScore"`
	Calories            *float64    `json:"calories"`
}

// NormalizeDaily maps a Garmin daily summary into a canonical
// DailyMetric. Sleep duration converts seconds to whole minutes.
func (c *Client) NormalizeDaily(raw json.RawMessage) (domain.DailyMetric, error) {
	var p dailySummary
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.DailyMetric{}, err
	}

	m := domain.DailyMetric{
		MetricDate:       p.CalendarDate,
		EnergyBurnedKcal: p.CaloriesBurned,
		Steps:            p.Steps,
		SleepEfficiency:  p.SleepEfficiency,
		RestingHR:        p.RestingHeartRate,
		HRVRMSSD:         p.HRVRMSSD,
		StressScore:      p.StressLevel,
		TrainingLoad:     p.TrainingLoad,
		WeightKg:         p.Weight,
		BodyFatPct:       p.BodyFat,
	}
	if p.SleepingSeconds != nil {
		minutes := int64(math.Round(*p.SleepingSeconds / 60))
		m.SleepMinutesTotal = &minutes
	}
	return m, nil
}

// NormalizeActivity maps a Garmin activity into a canonical Activity.
// StartTime prefers the local timestamp, falling back to GMT.
func (c *Client) NormalizeActivity(raw json.RawMessage) (domain.Activity, error) {
	var p activitySummary
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Activity{}, err
	}

	start := p.StartTimeLocal
	if start == "" {
		start = p.StartTimeGMT
	}
	return domain.Activity{
		Source:    domain.ProviderGarmin,
		SourceID:  p.ActivityID.String(),
		Name:      p.ActivityName,
		SportType: p.ActivityType,
		StartTime: start,
		DurationS: p.Duration,
		DistanceM: p.Distance,
		AvgHR:     p.AverageHR,
		MaxHR:     p.MaxHR,
		TRIMP:     p.TRIMP,
		TSSEst:    p.TrainingStressScore,
		Calories:  p.Calories,
		Raw:       raw,
	}, nil
}
