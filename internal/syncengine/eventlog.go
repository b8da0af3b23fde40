package syncengine

import (
	"context"
	"database/sql"
	"time"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// Severity is one of the levels original_source's event_log.rs defines;
// spec.md §4.6 step 5 mentions recording a sync event at "severity Error"
// for quarantine but doesn't name the type, so this is a supplemented
// feature (SPEC_FULL.md §5).
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// SyncEvent is one row queryable by the action/query layer for operator
// review — e.g. "show me every quarantined entry in the last day."
type SyncEvent struct {
	ID         int64
	Severity   Severity
	Message    string
	ModelType  string
	RecordUUID string
	CreatedAt  time.Time
}

type EventLogRepo struct{ db *sql.DB }

func NewEventLogRepo(store *Store) *EventLogRepo { return &EventLogRepo{db: store.db} }

func (r *EventLogRepo) Record(ctx context.Context, sev Severity, message, modelType, recordUUID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_event_log (severity, message, model_type, record_uuid, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(sev), message, modelType, recordUUID, time.Now().UnixNano())
	return errs.TransientIO(err, "syncengine: recording sync event")
}

// Recent returns the most recent limit events at severity sev or above
// (Error > Warn > Info), newest first.
func (r *EventLogRepo) Recent(ctx context.Context, minSeverity Severity, limit int) ([]SyncEvent, error) {
	levels := map[Severity]int{SeverityInfo: 0, SeverityWarn: 1, SeverityError: 2}
	threshold := levels[minSeverity]

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, severity, message, model_type, record_uuid, created_at
		FROM sync_event_log ORDER BY id DESC LIMIT ?`, limit*4)
	if err != nil {
		return nil, errs.TransientIO(err, "syncengine: querying sync event log")
	}
	defer rows.Close()

	var out []SyncEvent
	for rows.Next() && len(out) < limit {
		var e SyncEvent
		var sev string
		var createdAt int64
		if err := rows.Scan(&e.ID, &sev, &e.Message, &e.ModelType, &e.RecordUUID, &createdAt); err != nil {
			return nil, errs.TransientIO(err, "syncengine: scanning sync event")
		}
		if levels[Severity(sev)] < threshold {
			continue
		}
		e.Severity = Severity(sev)
		e.CreatedAt = time.Unix(0, createdAt)
		out = append(out, e)
	}
	return out, errs.TransientIO(rows.Err(), "syncengine: iterating sync event log")
}
