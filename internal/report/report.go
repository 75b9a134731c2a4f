// Package report renders forecasts for people and for machines.
//
// The text renderers produce the terminal view of the prediction card and
// the history list. ForecastJSON produces the document served at /forecast
// and printed by `predict --format json`.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/tartampluch/go-cycle/internal/config"
	"github.com/tartampluch/go-cycle/internal/engine"
)

// Messages resolves localized strings. *locale.Translator implements it.
type Messages interface {
	Msg(key string) string
	Format(key string, data map[string]any) string
	Plural(key string, count int) string
}

// RenderForecast writes the prediction card, or the insufficient-history
// notice when no prediction could be made.
func RenderForecast(w io.Writer, m Messages, f engine.Forecast, now time.Time) error {
	var b strings.Builder

	b.WriteString(m.Msg(config.TKeyReportTitle))
	b.WriteString("\n")

	if !f.HasPrediction {
		b.WriteString(config.ReportIndent)
		b.WriteString(m.Format(config.TKeyReportInsufficient, map[string]any{
			config.TemplateKeyCount: len(f.Events),
			config.TemplateKeyMin:   config.MinPredictionEvents,
		}))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	p := f.Prediction
	predicted := fmt.Sprintf("%s (%s)", formatDate(m, p.PredictedDate), relativeDays(m, now, p.PredictedDate))
	writeField(&b, m.Msg(config.TKeyReportPredicted), predicted)
	writeField(&b, m.Msg(config.TKeyReportAverage), m.Plural(config.TKeyReportDays, p.AverageCycleLength))
	writeField(&b, m.Msg(config.TKeyReportConfidence),
		fmt.Sprintf("%s %d%%", ConfidenceBar(p.ConfidenceLevel), engine.RoundPercent(p.ConfidenceLevel)))

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderHistory writes the logged cycles newest first, with the gap in days
// between each pair of consecutive entries.
func RenderHistory(w io.Writer, m Messages, events []engine.CycleEvent) error {
	var b strings.Builder

	b.WriteString(m.Msg(config.TKeyReportHistory))
	b.WriteString("\n")

	if len(events) == 0 {
		b.WriteString(config.ReportIndent)
		b.WriteString(m.Msg(config.TKeyReportNoHistory))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	newest := engine.SortedByStart(events)
	slices.Reverse(newest)

	for i, e := range newest {
		line := []string{formatDate(m, e.StartDate)}
		if e.FlowLevel > 0 {
			line = append(line, m.Format(config.TKeyReportFlow, map[string]any{config.TemplateKeyLevel: e.FlowLevel}))
		}
		if e.Notes != "" {
			line = append(line, e.Notes)
		}
		b.WriteString(config.ReportIndent)
		b.WriteString(strings.Join(line, config.ReportColumnSep))
		b.WriteString("\n")

		if i < len(newest)-1 {
			gap := engine.DaysBetween(newest[i+1].StartDate, e.StartDate)
			b.WriteString(config.ReportGapIndent)
			b.WriteString(m.Plural(config.TKeyReportDays, gap))
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// ConfidenceBar draws a fixed-width gauge for a confidence level in [0, 100].
func ConfidenceBar(confidence float64) string {
	filled := int(math.Round(confidence / 100 * config.ConfidenceBarWidth))
	filled = min(max(filled, 0), config.ConfidenceBarWidth)
	return "[" + strings.Repeat(config.BarFilled, filled) +
		strings.Repeat(config.BarEmpty, config.ConfidenceBarWidth-filled) + "]"
}

func writeField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s%-*s %s\n", config.ReportIndent, config.ReportLabelWidth, label+":", value)
}

func formatDate(m Messages, t time.Time) string {
	layout := m.Msg(config.TKeyFormatDate)
	if layout == config.TKeyFormatDate {
		layout = config.DateFormatLong
	}
	return t.Format(layout)
}

// relativeDays phrases the distance from now to day in whole calendar days.
func relativeDays(m Messages, now, day time.Time) string {
	n := engine.DaysBetween(now, day)
	switch {
	case n == 0:
		return m.Msg(config.TKeyReportToday)
	case n > 0:
		return m.Plural(config.TKeyReportInDays, n)
	default:
		return m.Plural(config.TKeyReportDaysAgo, -n)
	}
}

// -----------------------------------------------------------------------------
// JSON document
// -----------------------------------------------------------------------------

type forecastDocument struct {
	GeneratedAt string              `json:"generated_at"`
	EventCount  int                 `json:"event_count"`
	MinEvents   int                 `json:"min_events"`
	Prediction  *predictionDocument `json:"prediction"`
	Gaps        []int               `json:"gaps"`
	History     []historyDocument   `json:"history"`
}

type predictionDocument struct {
	PredictedDate      string  `json:"predicted_date"`
	DaysUntil          int     `json:"days_until"`
	AverageCycleLength int     `json:"average_cycle_length"`
	ConfidenceLevel    float64 `json:"confidence_level"`
}

type historyDocument struct {
	ID        string   `json:"id,omitempty"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date,omitempty"`
	FlowLevel int      `json:"flow_level,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	Symptoms  []string `json:"symptoms,omitempty"`
}

// ForecastJSON encodes the forecast as an indented JSON document.
// "prediction" is null when the history is too short.
func ForecastJSON(f engine.Forecast, now time.Time) ([]byte, error) {
	doc := forecastDocument{
		GeneratedAt: f.GeneratedAt.UTC().Format(time.RFC3339),
		EventCount:  len(f.Events),
		MinEvents:   config.MinPredictionEvents,
		Gaps:        engine.Gaps(f.Events),
		History:     make([]historyDocument, 0, len(f.Events)),
	}
	if doc.Gaps == nil {
		doc.Gaps = []int{}
	}

	if f.HasPrediction {
		doc.Prediction = &predictionDocument{
			PredictedDate:      f.Prediction.PredictedDate.Format(config.DateFormatISO),
			DaysUntil:          engine.DaysBetween(now, f.Prediction.PredictedDate),
			AverageCycleLength: f.Prediction.AverageCycleLength,
			ConfidenceLevel:    math.Round(f.Prediction.ConfidenceLevel*100) / 100,
		}
	}

	for _, e := range engine.SortedByStart(f.Events) {
		h := historyDocument{
			ID:        e.ID,
			StartDate: e.StartDate.Format(config.DateFormatISO),
			FlowLevel: e.FlowLevel,
			Notes:     e.Notes,
			Symptoms:  e.Symptoms,
		}
		if !e.EndDate.IsZero() {
			h.EndDate = e.EndDate.Format(config.DateFormatISO)
		}
		doc.History = append(doc.History, h)
	}

	data, err := json.MarshalIndent(doc, "", config.JSONIndent)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrJSONEncode, err)
	}
	return data, nil
}
