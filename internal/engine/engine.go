package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/tartampluch/go-cycle/internal/config"
)

// SyncConfig contains all parameters required to perform a synchronization.
type SyncConfig struct {
	Mode            string // config.SourceModeLocal, SourceModeWeb or SourceModePostgres
	LocalPath       string // Path to a .json/.yaml history file
	WebURL          string // REST endpoint returning a JSON array of records
	WebUser         string // Basic Auth user; empty selects bearer auth
	WebSecret       string // Password or API token
	UserID          string // Owner of the rows in postgres mode
	ReminderTrigger string // ISO8601 duration string (e.g., "-P2D")
}

// Labeler localizes the text placed in calendar events.
type Labeler interface {
	CalendarName() string
	PredictedSummary(confidence int) string
	PredictedDescription(averageDays int) string
	LoggedSummary() string
}

// Forecast is the outcome of one synchronization.
type Forecast struct {
	ICS           []byte
	Events        []CycleEvent // oldest first
	Prediction    PredictionResult
	HasPrediction bool
	GeneratedAt   time.Time
}

// Generator acquires the cycle history, runs the prediction and renders
// the calendar feed.
type Generator struct {
	Clock   Clock         // Interface for time mocking.
	Fetcher RecordFetcher // Used in web mode.
	Store   EventLister   // Used in postgres mode.

	// Forecaster memoizes predictions across syncs. Nil predicts every time.
	Forecaster *Forecaster

	// Labels localizes event text. Nil falls back to English constants.
	Labels Labeler
}

// RunSync executes the acquire, predict and render pipeline.
func (g *Generator) RunSync(ctx context.Context, cfg SyncConfig) (Forecast, error) {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyMode, cfg.Mode,
	)
	log.InfoContext(ctx, config.MsgSyncStarted)

	events, err := g.acquireEvents(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return Forecast{}, ctx.Err()
		}
		return Forecast{}, fmt.Errorf("%s: %w", config.ErrRecordLoad, err)
	}

	if err := ctx.Err(); err != nil {
		return Forecast{}, err
	}

	prediction, ok := g.predict(events)
	now := g.now()
	sorted := sortedByStart(events)

	ics, err := g.generateCalendar(sorted, prediction, ok, cfg.ReminderTrigger, now)
	if err != nil {
		return Forecast{}, err
	}

	g.logSuccess(len(sorted), prediction, ok)
	log.Debug("Sync finished", config.LogKeyDuration, time.Since(start).Milliseconds())

	return Forecast{
		ICS:           ics,
		Events:        sorted,
		Prediction:    prediction,
		HasPrediction: ok,
		GeneratedAt:   now,
	}, nil
}

func (g *Generator) now() time.Time {
	if g.Clock == nil {
		return time.Now()
	}
	return g.Clock.Now()
}

func (g *Generator) predict(events []CycleEvent) (PredictionResult, bool) {
	if g.Forecaster != nil {
		return g.Forecaster.Predict(events)
	}
	return Predict(events)
}

// acquireEvents loads the history from the configured source.
func (g *Generator) acquireEvents(ctx context.Context, cfg SyncConfig) ([]CycleEvent, error) {
	switch cfg.Mode {
	case config.SourceModeLocal:
		if cfg.LocalPath == "" {
			return nil, errors.New(config.ErrLocalPathEmpty)
		}
		f, err := os.Open(cfg.LocalPath)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		return DecodeRecords(f, FormatForPath(cfg.LocalPath))

	case config.SourceModeWeb:
		if cfg.WebURL == "" {
			return nil, errors.New(config.ErrWebURLEmpty)
		}
		if g.Fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		rc, err := g.Fetcher.Fetch(ctx, cfg.WebURL, cfg.WebUser, cfg.WebSecret)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rc.Close() }()
		return DecodeRecords(rc, config.RecordFormatJSON)

	case config.SourceModePostgres:
		if cfg.UserID == "" {
			return nil, errors.New(config.ErrUserIDEmpty)
		}
		if g.Store == nil {
			return nil, errors.New(config.ErrStoreMissing)
		}
		return g.Store.ListEvents(ctx, cfg.UserID)

	default:
		return nil, fmt.Errorf("%s: %q", config.ErrModeUnsupport, cfg.Mode)
	}
}

// generateCalendar renders the history and the prediction as all-day events.
func (g *Generator) generateCalendar(sorted []CycleEvent, prediction PredictionResult, ok bool, reminderTrigger string, now time.Time) ([]byte, error) {
	if len(sorted) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	labels := g.labels()

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, labels.CalendarName())
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	for _, e := range sorted {
		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, eventUID(config.UIDKindLogged, e.StartDate))
		event.Props.SetText(config.PropSummary, labels.LoggedSummary())
		setDate(event, config.PropDTStart, e.StartDate)
		if !e.EndDate.IsZero() {
			// DTEND is exclusive for all-day events.
			setDate(event, config.PropDTEnd, DateOnly(e.EndDate).AddDate(0, 0, 1))
		}
		if e.Notes != "" {
			event.Props.SetText(config.PropDescription, e.Notes)
		}
		event.Props.Set(dtStampProp)
		cal.Children = append(cal.Children, event.Component)
	}

	if ok {
		summary := labels.PredictedSummary(RoundPercent(prediction.ConfidenceLevel))
		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, eventUID(config.UIDKindPredicted, prediction.PredictedDate))
		event.Props.SetText(config.PropSummary, summary)
		event.Props.SetText(config.PropDescription, labels.PredictedDescription(prediction.AverageCycleLength))
		setDate(event, config.PropDTStart, prediction.PredictedDate)
		event.Props.Set(dtStampProp)
		if reminderTrigger != "" {
			addAlarm(event, reminderTrigger, summary)
		}
		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) labels() Labeler {
	if g.Labels == nil {
		return fallbackLabels{}
	}
	return g.Labels
}

// logSuccess logs the final statistics of the generation process.
func (g *Generator) logSuccess(events int, prediction PredictionResult, ok bool) {
	attrs := []any{
		slog.Int(config.LogKeyEvents, events),
		slog.Bool(config.LogKeyPredicted, ok),
	}
	if ok {
		attrs = append(attrs,
			slog.String(config.LogKeyPredictedDate, prediction.PredictedDate.Format(config.DateFormatISO)),
			slog.Int(config.LogKeyAverage, prediction.AverageCycleLength),
			slog.Float64(config.LogKeyConfidence, prediction.ConfidenceLevel),
		)
	}
	slog.Info(config.MsgGenSuccess,
		config.LogKeyComponent, config.CompEngine,
		slog.Group(config.LogKeyStats, attrs...),
	)
}

// eventUID derives a stable identifier so calendar clients update events in
// place instead of duplicating them on every refresh.
func eventUID(kind string, day time.Time) string {
	name := config.UIDSalt + kind + config.KeySeparator + DateOnly(day).Format(config.DateFormatISO)
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(name))
	return fmt.Sprintf(config.FormatUID, id.String(), config.ICalDomain)
}

func setDate(event *ical.Event, name string, day time.Time) {
	prop := ical.NewProp(name)
	prop.SetDate(DateOnly(day))
	event.Props.Set(prop)
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set the value directly to avoid a VALUE=TEXT parameter.
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}

// RoundPercent converts a confidence level to the whole percentage shown to users.
func RoundPercent(confidence float64) int {
	return int(math.Round(confidence))
}

type fallbackLabels struct{}

func (fallbackLabels) CalendarName() string { return config.ICalCalName }

func (fallbackLabels) PredictedSummary(confidence int) string {
	return fmt.Sprintf(config.FallbackPredicted, confidence)
}

func (fallbackLabels) PredictedDescription(averageDays int) string {
	return fmt.Sprintf(config.FallbackPredictedDesc, averageDays)
}

func (fallbackLabels) LoggedSummary() string { return config.FallbackLogged }
