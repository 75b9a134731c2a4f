// Package store provides database-backed record sources for the engine.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/tartampluch/go-cycle/internal/config"
	"github.com/tartampluch/go-cycle/internal/engine"
)

// DBTX abstracts the database access layer.
// It is implemented by both *sql.DB and *sql.Tx.
type DBTX interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const listPeriodsQuery = `
	SELECT id::text, start_date, end_date, flow_level, notes
	FROM periods
	WHERE user_id = $1
	ORDER BY start_date ASC
`

// PeriodStore reads a user's logged cycles from the periods table.
// It is read-only: creating and editing records belongs to the hosted app.
type PeriodStore struct {
	db     DBTX
	logger *slog.Logger
}

// Ensure PeriodStore satisfies the engine's record source contract.
var _ engine.EventLister = (*PeriodStore)(nil)

// NewPeriodStore creates a PeriodStore over a connection or transaction owned
// by the caller. A nil logger falls back to slog.Default().
func NewPeriodStore(db DBTX, logger *slog.Logger) *PeriodStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PeriodStore{
		db:     db,
		logger: logger.With(slog.String(config.LogKeyComponent, config.CompStore)),
	}
}

// Open connects through the pgx database/sql driver and verifies the
// connection within config.DBConnectTimeout.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(config.DBDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrDBOpen, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.DBConnectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", config.ErrDBPing, err)
	}
	return db, nil
}

// ListEvents returns every cycle logged by userID, oldest first.
// Rows with an out-of-range flow level are skipped with a warning, matching
// the validation applied to file and web records.
func (s *PeriodStore) ListEvents(ctx context.Context, userID string) ([]engine.CycleEvent, error) {
	log := s.logger.With(slog.String(config.LogKeyUser, userID))
	log.Debug("listing periods")

	rows, err := s.db.QueryContext(ctx, listPeriodsQuery, userID)
	if err != nil {
		log.Error("failed to query periods", slog.String(config.LogKeyError, err.Error()))
		return nil, fmt.Errorf("%s: %w", config.ErrDBQuery, err)
	}
	defer func() { _ = rows.Close() }()

	var events []engine.CycleEvent
	for rows.Next() {
		var (
			id    string
			start time.Time
			end   sql.NullTime
			flow  sql.NullInt32
			notes sql.NullString
		)
		if err := rows.Scan(&id, &start, &end, &flow, &notes); err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrDBScan, err)
		}

		if flow.Valid && (flow.Int32 < config.MinFlowLevel || flow.Int32 > config.MaxFlowLevel) {
			log.Warn(config.MsgSkippedFlow,
				slog.String(config.LogKeyRecordID, id),
				slog.Int(config.LogKeyFlow, int(flow.Int32)))
			continue
		}

		event := engine.CycleEvent{
			ID:        id,
			StartDate: start,
			Notes:     notes.String,
		}
		if end.Valid {
			event.EndDate = end.Time
		}
		if flow.Valid {
			event.FlowLevel = int(flow.Int32)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrDBScan, err)
	}

	log.Debug("periods listed", slog.Int(config.LogKeyEvents, len(events)))
	return events, nil
}
