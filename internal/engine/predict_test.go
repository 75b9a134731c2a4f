package engine_test

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-cycle/internal/engine"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func eventsOn(days ...string) []engine.CycleEvent {
	events := make([]engine.CycleEvent, len(days))
	for i, d := range days {
		events[i] = engine.CycleEvent{StartDate: date(d)}
	}
	return events
}

// randomHistory builds n events separated by gaps drawn from [min, max].
func randomHistory(r *rand.Rand, n, minGap, maxGap int) []engine.CycleEvent {
	events := make([]engine.CycleEvent, n)
	day := date("2023-01-01")
	for i := range events {
		events[i] = engine.CycleEvent{StartDate: day}
		day = day.AddDate(0, 0, minGap+r.IntN(maxGap-minGap+1))
	}
	return events
}

// -----------------------------------------------------------------------------
// Reference cases
// -----------------------------------------------------------------------------

func TestPredict_ReferenceCases(t *testing.T) {
	tests := []struct {
		name           string
		events         []engine.CycleEvent
		wantDate       string
		wantAverage    int
		wantConfidence float64
	}{
		{
			name:           "zero variance",
			events:         eventsOn("2024-01-01", "2024-01-29", "2024-02-26", "2024-03-25"),
			wantDate:       "2024-04-22",
			wantAverage:    28,
			wantConfidence: 100,
		},
		{
			name:           "high variance",
			events:         eventsOn("2024-01-01", "2024-01-21", "2024-02-26"),
			wantDate:       "2024-03-25",
			wantAverage:    28,
			wantConfidence: 20,
		},
		{
			name:           "rounds mean down",
			events:         eventsOn("2024-01-01", "2024-01-28", "2024-02-25", "2024-03-26"),
			wantDate:       "2024-04-23",
			wantAverage:    28,
			wantConfidence: 100 * (1 - 1.2909944487358056/10),
		},
		{
			name:           "spread beyond ten days clamps to zero",
			events:         eventsOn("2024-01-01", "2024-01-11", "2024-03-01"),
			wantDate:       "2024-03-31",
			wantAverage:    30,
			wantConfidence: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := engine.Predict(tt.events)
			require.True(t, ok)

			assert.Equal(t, date(tt.wantDate), got.PredictedDate)
			assert.Equal(t, tt.wantAverage, got.AverageCycleLength)
			assert.InDelta(t, tt.wantConfidence, got.ConfidenceLevel, 1e-9)
		})
	}
}

func TestPredict_RoundsHalfAwayFromZero(t *testing.T) {
	// Gaps [28, 29] average 28.5.
	got, ok := engine.Predict(eventsOn("2024-01-01", "2024-01-29", "2024-02-27"))
	require.True(t, ok)
	assert.Equal(t, 29, got.AverageCycleLength)
}

// -----------------------------------------------------------------------------
// Edge policy
// -----------------------------------------------------------------------------

func TestPredict_TooFewEvents(t *testing.T) {
	for n := 0; n < 3; n++ {
		events := eventsOn("2024-01-01", "2024-01-29")[:min(n, 2)]
		_, ok := engine.Predict(events)
		assert.False(t, ok, "%d events must not produce a prediction", n)
	}
	_, ok := engine.Predict(nil)
	assert.False(t, ok)
}

func TestPredict_DuplicateDatesAveragingBelowOneDay(t *testing.T) {
	_, ok := engine.Predict(eventsOn("2024-01-01", "2024-01-01", "2024-01-01"))
	assert.False(t, ok, "an average gap of zero days would not move the date forward")
}

func TestPredict_DuplicateDatesTolerated(t *testing.T) {
	// Gaps [0, 28, 28] average 18.67, rounded to 19.
	got, ok := engine.Predict(eventsOn("2024-01-01", "2024-01-01", "2024-01-29", "2024-02-26"))
	require.True(t, ok)
	assert.Equal(t, 19, got.AverageCycleLength)
	assert.Equal(t, date("2024-03-16"), got.PredictedDate)
}

func TestPredict_IgnoresTimeOfDay(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	events := []engine.CycleEvent{
		{StartDate: time.Date(2024, 1, 1, 23, 45, 0, 0, paris)},
		{StartDate: time.Date(2024, 1, 29, 0, 5, 0, 0, paris)},
		{StartDate: time.Date(2024, 2, 26, 12, 0, 0, 0, paris)},
	}

	got, ok := engine.Predict(events)
	require.True(t, ok)
	assert.Equal(t, 28, got.AverageCycleLength)
	assert.Equal(t, 100.0, got.ConfidenceLevel)
	assert.Equal(t, time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC), got.PredictedDate)
}

func TestPredict_DoesNotMutateInput(t *testing.T) {
	events := eventsOn("2024-03-25", "2024-01-01", "2024-02-26", "2024-01-29")
	before := slices.Clone(events)

	_, ok := engine.Predict(events)
	require.True(t, ok)

	assert.Equal(t, before, events)
}

// -----------------------------------------------------------------------------
// Properties
// -----------------------------------------------------------------------------

func TestPredict_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))

	for i := 0; i < 200; i++ {
		events := randomHistory(r, 3+r.IntN(10), 1, 60)

		got, ok := engine.Predict(events)
		require.True(t, ok)

		latest := events[len(events)-1].StartDate
		assert.True(t, got.PredictedDate.After(latest), "prediction must follow the latest event")
		assert.GreaterOrEqual(t, got.ConfidenceLevel, 0.0)
		assert.LessOrEqual(t, got.ConfidenceLevel, 100.0)

		shuffled := slices.Clone(events)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		again, ok := engine.Predict(shuffled)
		require.True(t, ok)
		assert.Equal(t, got, again, "order of events must not matter")

		twice, _ := engine.Predict(events)
		assert.Equal(t, got, twice)
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func TestGaps(t *testing.T) {
	assert.Nil(t, engine.Gaps(nil))
	assert.Nil(t, engine.Gaps(eventsOn("2024-01-01")))
	assert.Equal(t, []int{20, 36}, engine.Gaps(eventsOn("2024-02-26", "2024-01-01", "2024-01-21")))
}

func TestSortedByStart_Stable(t *testing.T) {
	events := []engine.CycleEvent{
		{ID: "b", StartDate: date("2024-02-01")},
		{ID: "a1", StartDate: date("2024-01-01")},
		{ID: "a2", StartDate: date("2024-01-01")},
	}

	sorted := engine.SortedByStart(events)

	ids := make([]string, len(sorted))
	for i, e := range sorted {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"a1", "a2", "b"}, ids)
	assert.Equal(t, "b", events[0].ID, "input must be left untouched")
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 28, engine.DaysBetween(date("2024-01-01"), date("2024-01-29")))
	assert.Equal(t, -1, engine.DaysBetween(date("2024-04-23"), date("2024-04-22")))
	assert.Equal(t, 0, engine.DaysBetween(
		time.Date(2024, 4, 22, 0, 1, 0, 0, time.UTC),
		time.Date(2024, 4, 22, 23, 59, 0, 0, time.UTC)))
	// 2024-03-31 is a DST transition in Europe; days stay whole.
	loc, err := time.LoadLocation("Europe/Paris")
	if err == nil {
		assert.Equal(t, 1, engine.DaysBetween(
			time.Date(2024, 3, 30, 12, 0, 0, 0, loc),
			time.Date(2024, 3, 31, 12, 0, 0, 0, loc)))
	}
}
