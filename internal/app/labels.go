package app

import (
	"github.com/tartampluch/go-cycle/internal/config"
	"github.com/tartampluch/go-cycle/internal/locale"
)

// calendarLabels localizes calendar event text with the active language.
type calendarLabels struct {
	tr *locale.Translator
}

func (l calendarLabels) CalendarName() string {
	return l.tr.Msg(config.TKeyCalName)
}

func (l calendarLabels) PredictedSummary(confidence int) string {
	return l.tr.Format(config.TKeyEvtPredicted, map[string]any{config.TemplateKeyConfidence: confidence})
}

func (l calendarLabels) PredictedDescription(averageDays int) string {
	return l.tr.Plural(config.TKeyEvtPredictedDesc, averageDays)
}

func (l calendarLabels) LoggedSummary() string {
	return l.tr.Msg(config.TKeyEvtLogged)
}
