package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tartampluch/go-cycle/internal/config"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Record is the wire shape of one logged cycle, shared by the local history
// file and the hosted backend's JSON API.
type Record struct {
	ID        string   `json:"id" yaml:"id"`
	StartDate string   `json:"start_date" yaml:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string   `json:"end_date,omitempty" yaml:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	FlowLevel int      `json:"flow_level,omitempty" yaml:"flow_level,omitempty" validate:"min=0,max=5"`
	Notes     string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	Symptoms  []string `json:"symptoms,omitempty" yaml:"symptoms,omitempty"`
}

// ToEvent validates the record and converts it into a CycleEvent.
func (r Record) ToEvent() (CycleEvent, error) {
	if err := validate.Struct(r); err != nil {
		return CycleEvent{}, fmt.Errorf("%s: %w", config.ErrRecordInvalid, err)
	}

	start, err := time.Parse(config.DateFormatISO, r.StartDate)
	if err != nil {
		return CycleEvent{}, fmt.Errorf("%s: %w", config.ErrDateParse, err)
	}

	event := CycleEvent{
		ID:        r.ID,
		StartDate: start,
		FlowLevel: r.FlowLevel,
		Notes:     r.Notes,
		Symptoms:  r.Symptoms,
	}

	if r.EndDate != "" {
		end, err := time.Parse(config.DateFormatISO, r.EndDate)
		if err != nil {
			return CycleEvent{}, fmt.Errorf("%s: %w", config.ErrDateParse, err)
		}
		if end.Before(start) {
			return CycleEvent{}, errors.New(config.ErrEndBeforeStart)
		}
		event.EndDate = end
	}

	return event, nil
}

// FormatForPath picks the record format from a file extension.
// Anything that is not YAML is read as JSON.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case config.ExtYAML, config.ExtYML:
		return config.RecordFormatYAML
	default:
		return config.RecordFormatJSON
	}
}

// DecodeRecords reads a list of records and converts the valid ones.
// Records failing validation are logged and skipped so that one bad entry
// does not hide the rest of the history.
func DecodeRecords(r io.Reader, format string) ([]CycleEvent, error) {
	var records []Record

	switch format {
	case config.RecordFormatYAML:
		if err := yaml.NewDecoder(r).Decode(&records); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", config.ErrRecordDecode, err)
		}
	case config.RecordFormatJSON:
		if err := json.NewDecoder(r).Decode(&records); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", config.ErrRecordDecode, err)
		}
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrFormatUnsupport, format)
	}

	events := make([]CycleEvent, 0, len(records))
	for i, rec := range records {
		event, err := rec.ToEvent()
		if err != nil {
			slog.Warn(config.MsgSkippedRecord,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyIndex, i,
				config.LogKeyRecordID, rec.ID,
				config.LogKeyError, err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
