package engine

import (
	"math"
	"slices"
	"time"

	"github.com/tartampluch/go-cycle/internal/config"
)

// Predict forecasts the next cycle start from a logged history.
//
// It reports false when fewer than config.MinPredictionEvents events are
// given, and when the gaps average out below one day (which only happens
// when most dates are duplicates). Callers treat false as "not enough
// history yet", not as a failure.
//
// The input slice is never modified and the order of events is irrelevant.
func Predict(events []CycleEvent) (PredictionResult, bool) {
	if len(events) < config.MinPredictionEvents {
		return PredictionResult{}, false
	}

	sorted := sortedByStart(events)
	gaps := gapsOf(sorted)

	var sum float64
	for _, g := range gaps {
		sum += float64(g)
	}
	average := int(math.Round(sum / float64(len(gaps))))
	if average < config.MinCycleLength {
		return PredictionResult{}, false
	}

	// Population variance around the rounded average.
	var squares float64
	for _, g := range gaps {
		d := float64(g - average)
		squares += d * d
	}
	stdDev := math.Sqrt(squares / float64(len(gaps)))

	confidence := 100 * (1 - stdDev/(config.MaxAcceptableDeviation*2))
	confidence = min(max(confidence, config.MinConfidence), config.MaxConfidence)

	last := sorted[len(sorted)-1]
	return PredictionResult{
		PredictedDate:      DateOnly(last.StartDate).AddDate(0, 0, average),
		AverageCycleLength: average,
		ConfidenceLevel:    confidence,
	}, true
}

// Gaps returns the number of days between chronologically consecutive
// cycle starts. The result has len(events)-1 entries, or none when fewer
// than two events are given.
func Gaps(events []CycleEvent) []int {
	if len(events) < 2 {
		return nil
	}
	return gapsOf(sortedByStart(events))
}

// SortedByStart returns a copy of events ordered by start date, oldest first.
// Events sharing a date keep their relative order.
func SortedByStart(events []CycleEvent) []CycleEvent {
	return sortedByStart(events)
}

// DateOnly strips the time-of-day and zone from t, keeping the calendar day
// as seen in t's own location. The result is midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from a to b. It is negative when
// b falls before a.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / config.HoursPerDay)
}

func sortedByStart(events []CycleEvent) []CycleEvent {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b CycleEvent) int {
		return DateOnly(a.StartDate).Compare(DateOnly(b.StartDate))
	})
	return sorted
}

func gapsOf(sorted []CycleEvent) []int {
	gaps := make([]int, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, DaysBetween(sorted[i-1].StartDate, sorted[i].StartDate))
	}
	return gaps
}
