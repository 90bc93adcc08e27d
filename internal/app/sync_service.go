package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wearsync/internal/domain"
	"wearsync/internal/provider"
)

const (
	minBackfillDays = 1
	maxBackfillDays = 365
)

// BackfillOptions parameterizes one historical ingestion run.
type BackfillOptions struct {
	UserID      string
	AccessToken string
	Days        int
}

// BackfillResult reports how far a run got. On an aborted run the
// counts cover the rows persisted before the abort.
type BackfillResult struct {
	ImportedDays       int `json:"importedDays"`
	RawEventsStored    int `json:"rawEventsStored"`
	MetricsUpserted    int `json:"metricsUpserted"`
	ActivitiesUpserted int `json:"activitiesUpserted"`
}

// SyncService pulls provider data into the canonical tables. It owns
// the backfill, reconnect, and webhook-ingest flows.
type SyncService struct {
	metrics     domain.MetricRepository
	activities  domain.ActivityRepository
	rawEvents   domain.RawEventRepository
	connections domain.ConnectionRepository
	log         zerolog.Logger

	now func() time.Time
}

// NewSyncService creates a SyncService backed by the given repositories.
func NewSyncService(metrics domain.MetricRepository, activities domain.ActivityRepository, rawEvents domain.RawEventRepository, connections domain.ConnectionRepository, log zerolog.Logger) *SyncService {
	return &SyncService{
		metrics:     metrics,
		activities:  activities,
		rawEvents:   rawEvents,
		connections: connections,
		log:         log,
		now:         time.Now,
	}
}

// Backfill fetches provider daily summaries and activities over a
// clamped day-window, normalizes them, and upserts them sequentially.
//
// Failure semantics are asymmetric on purpose: an upstream non-success
// fetch is logged and treated as an empty result set, while a local
// persistence failure aborts the remainder of the run without rolling
// back rows already written. The raw-event append always runs, even
// after an abort, and its own failure is only logged. The returned
// counts are valid alongside a non-nil error.
func (s *SyncService) Backfill(ctx context.Context, client provider.Client, opts BackfillOptions) (BackfillResult, error) {
	days := opts.Days
	if days < minBackfillDays {
		days = minBackfillDays
	}
	if days > maxBackfillDays {
		days = maxBackfillDays
	}

	end := s.now()
	start := end.Add(-time.Duration(days) * 24 * time.Hour)
	name := client.Name()

	var res BackfillResult

	summaries, err := s.tolerantFetch(client.FetchDailySummaries, ctx, opts.AccessToken, start, end, name, "daily summaries")
	if err != nil {
		return res, err
	}
	activities, err := s.tolerantFetch(client.FetchActivities, ctx, opts.AccessToken, start, end, name, "activities")
	if err != nil {
		return res, err
	}

	res.ImportedDays = len(summaries)

	var runErr error
	for _, raw := range summaries {
		metric, err := client.NormalizeDaily(raw)
		if err != nil {
			s.log.Warn().Err(err).Str("provider", string(name)).Msg("skipping malformed daily summary")
			continue
		}
		metric.UserID = opts.UserID
		if err := s.metrics.UpsertDailyMetric(ctx, metric); err != nil {
			s.log.Error().Err(err).Str("provider", string(name)).Str("metric_date", metric.MetricDate).Msg("daily metric upsert failed, aborting run")
			runErr = fmt.Errorf("upsert daily metric %s: %w", metric.MetricDate, err)
			break
		}
		res.MetricsUpserted++
	}

	if runErr == nil {
		for _, raw := range activities {
			activity, err := client.NormalizeActivity(raw)
			if err != nil {
				s.log.Warn().Err(err).Str("provider", string(name)).Msg("skipping malformed activity")
				continue
			}
			activity.UserID = opts.UserID
			if err := s.activities.UpsertActivity(ctx, activity); err != nil {
				s.log.Error().Err(err).Str("provider", string(name)).Str("source_id", activity.SourceID).Msg("activity upsert failed, aborting run")
				runErr = fmt.Errorf("upsert activity %s: %w", activity.SourceID, err)
				break
			}
			res.ActivitiesUpserted++
		}
	}

	// Raw payloads are kept for reprocessing regardless of how the
	// canonical upserts fared.
	if len(summaries) > 0 {
		events := make([]domain.RawEvent, 0, len(summaries))
		receivedAt := s.now().UTC()
		for _, raw := range summaries {
			events = append(events, domain.RawEvent{
				ID:         uuid.NewString(),
				UserID:     opts.UserID,
				Provider:   name,
				EventType:  "daily_summary",
				Payload:    raw,
				ReceivedAt: receivedAt,
			})
		}
		if err := s.rawEvents.AppendRawEvents(ctx, events); err != nil {
			s.log.Error().Err(err).Str("provider", string(name)).Msg("raw event append failed")
		} else {
			res.RawEventsStored = len(events)
		}
	}

	return res, runErr
}

type fetchFunc func(ctx context.Context, accessToken string, start, end time.Time) ([]json.RawMessage, error)

// tolerantFetch treats a provider-side rejection as an empty result.
// Transport-level failures still propagate.
func (s *SyncService) tolerantFetch(fetch fetchFunc, ctx context.Context, accessToken string, start, end time.Time, name domain.Provider, what string) ([]json.RawMessage, error) {
	items, err := fetch(ctx, accessToken, start, end)
	if err != nil {
		var fe *provider.FetchError
		if errors.As(err, &fe) {
			s.log.Warn().Int("status", fe.Status).Str("provider", string(name)).Msgf("%s fetch failed, continuing with empty set", what)
			return nil, nil
		}
		return nil, err
	}
	return items, nil
}

// Reconnect runs a full-window backfill and then marks the connection
// as synced. The status write happens even when the backfill aborted
// partway: it records that a reconnect was attempted, not that it fully
// succeeded. A backfill error is still returned after the write.
func (s *SyncService) Reconnect(ctx context.Context, client provider.Client, opts BackfillOptions) error {
	if opts.Days <= 0 {
		opts.Days = maxBackfillDays
	}

	res, backfillErr := s.Backfill(ctx, client, opts)
	s.log.Info().
		Err(backfillErr).
		Str("provider", string(client.Name())).
		Str("user_id", opts.UserID).
		Int("metrics", res.MetricsUpserted).
		Int("activities", res.ActivitiesUpserted).
		Msg("reconnect backfill finished")

	if err := s.connections.MarkSynced(ctx, opts.UserID, client.Name(), s.now().UTC()); err != nil {
		return fmt.Errorf("mark connection synced: %w", err)
	}
	return backfillErr
}

// ResolveWebhookUser maps a provider-side account id to the internal
// user, or "" when no connection is linked.
func (s *SyncService) ResolveWebhookUser(ctx context.Context, name domain.Provider, externalID string) (string, error) {
	return s.connections.FindUserByExternalID(ctx, name, externalID)
}

// RecordWebhook appends a verified webhook envelope to the raw-event
// log.
func (s *SyncService) RecordWebhook(ctx context.Context, userID string, payload domain.WebhookPayload) error {
	return s.rawEvents.AppendRawEvents(ctx, []domain.RawEvent{{
		ID:         uuid.NewString(),
		UserID:     userID,
		Provider:   payload.Provider,
		EventType:  payload.Event,
		Payload:    payload.Data,
		ReceivedAt: payload.ReceivedAt,
	}})
}

// ProcessWebhook routes an authenticated webhook envelope into the
// canonical tables: Garmin daily-summary and activity events map to
// single upserts, Withings notifications carry measure groups.
func (s *SyncService) ProcessWebhook(ctx context.Context, client provider.Client, userID string, payload domain.WebhookPayload) error {
	switch payload.Provider {
	case domain.ProviderGarmin:
		return s.processGarminEvent(ctx, client, userID, payload)
	case domain.ProviderWithings:
		return s.processWithingsEvent(ctx, client, userID, payload)
	}
	return fmt.Errorf("unsupported webhook provider: %s", payload.Provider)
}

func (s *SyncService) processGarminEvent(ctx context.Context, client provider.Client, userID string, payload domain.WebhookPayload) error {
	if strings.Contains(payload.Event, "daily_summary") {
		metric, err := client.NormalizeDaily(payload.Data)
		if err != nil {
			return err
		}
		metric.UserID = userID
		if err := s.metrics.UpsertDailyMetric(ctx, metric); err != nil {
			return fmt.Errorf("upsert daily metric %s: %w", metric.MetricDate, err)
		}
	}
	if strings.Contains(payload.Event, "activity") {
		activity, err := client.NormalizeActivity(payload.Data)
		if err != nil {
			return err
		}
		activity.UserID = userID
		if err := s.activities.UpsertActivity(ctx, activity); err != nil {
			return fmt.Errorf("upsert activity %s: %w", activity.SourceID, err)
		}
	}
	return nil
}

func (s *SyncService) processWithingsEvent(ctx context.Context, client provider.Client, userID string, payload domain.WebhookPayload) error {
	var body struct {
		Body struct {
			MeasureGroups []json.RawMessage `json:"measuregrps"`
		} `json:"body"`
	}
	if err := json.Unmarshal(payload.Data, &body); err != nil {
		return err
	}

	for _, raw := range body.Body.MeasureGroups {
		metric, err := client.NormalizeDaily(raw)
		if err != nil {
			return err
		}
		metric.UserID = userID
		if err := s.metrics.UpsertDailyMetric(ctx, metric); err != nil {
			return fmt.Errorf("upsert daily metric %s: %w", metric.MetricDate, err)
		}
	}
	return nil
}
