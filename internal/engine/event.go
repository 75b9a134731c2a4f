package engine

import "time"

// CycleEvent is one logged cycle start, as supplied by a record source.
// Identity and durability belong to the source; the engine only reads it.
type CycleEvent struct {
	// ID is the record identifier assigned by the source, if any.
	ID string

	// StartDate is the calendar day the cycle started. Time-of-day is ignored.
	StartDate time.Time

	// EndDate is the last day of bleeding. Zero when not recorded.
	EndDate time.Time

	// FlowLevel ranges from 1 (light) to 5 (heavy). Zero when not recorded.
	FlowLevel int

	Notes    string
	Symptoms []string
}

// PredictionResult is the forecast derived from a cycle history.
// It is built fresh on every call and owned by the caller.
type PredictionResult struct {
	// PredictedDate is the expected start of the next cycle (UTC midnight).
	PredictedDate time.Time

	// AverageCycleLength is the rounded mean gap between logged starts, in days.
	AverageCycleLength int

	// ConfidenceLevel lies in [0, 100]; it drops as the gaps spread out.
	ConfidenceLevel float64
}
