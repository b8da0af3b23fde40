package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// IndexMode is spec §3's Location.index_mode enum.
type IndexMode string

const (
	IndexShallow IndexMode = "shallow"
	IndexContent IndexMode = "content"
	IndexDeep    IndexMode = "deep"
)

// Location is a watched root path on a specific device within a library.
type Location struct {
	ID            string
	LibraryID     string
	DeviceID      string
	VolumeID      *string
	RootPath      string
	IndexMode     IndexMode
	WatcherActive bool
	RootEntryID   *int64
	CreatedAt     time.Time
}

type LocationRepo struct{ db *sql.DB }

func NewLocationRepo(s *Store) *LocationRepo { return &LocationRepo{db: s.db} }

func (r *LocationRepo) Create(ctx context.Context, l *Location) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO locations (id, library_id, device_id, volume_id, root_path, index_mode, watcher_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.LibraryID, l.DeviceID, nullString(l.VolumeID), l.RootPath, string(l.IndexMode),
		boolInt(l.WatcherActive), time.Now().UnixNano())
	return errs.TransientIO(err, "catalog: creating location")
}

func (r *LocationRepo) SetRootEntry(ctx context.Context, locationID string, entryID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE locations SET root_entry_id = ? WHERE id = ?`, entryID, locationID)
	return errs.TransientIO(err, "catalog: setting location root entry")
}

func (r *LocationRepo) SetWatcherActive(ctx context.Context, locationID string, active bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE locations SET watcher_active = ? WHERE id = ?`, boolInt(active), locationID)
	return errs.TransientIO(err, "catalog: setting watcher_active")
}

func (r *LocationRepo) Get(ctx context.Context, id string) (*Location, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, library_id, device_id, volume_id, root_path, index_mode, watcher_active, root_entry_id, created_at
		FROM locations WHERE id = ?`, id)
	return scanLocation(row)
}

func (r *LocationRepo) List(ctx context.Context, libraryID string) ([]Location, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, library_id, device_id, volume_id, root_path, index_mode, watcher_active, root_entry_id, created_at
		FROM locations WHERE library_id = ? ORDER BY root_path`, libraryID)
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: listing locations")
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, errs.TransientIO(rows.Err(), "catalog: iterating location rows")
}

func scanLocation(row scanner) (*Location, error) {
	var (
		l             Location
		volumeID      sql.NullString
		indexMode     string
		watcherActive int
		rootEntryID   sql.NullInt64
		createdAt     int64
	)

	err := row.Scan(&l.ID, &l.LibraryID, &l.DeviceID, &volumeID, &l.RootPath, &indexMode, &watcherActive, &rootEntryID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("catalog: location not found")
	}
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: scanning location")
	}

	l.IndexMode = IndexMode(indexMode)
	l.WatcherActive = watcherActive != 0
	l.CreatedAt = time.Unix(0, createdAt)
	if volumeID.Valid {
		l.VolumeID = &volumeID.String
	}
	if rootEntryID.Valid {
		l.RootEntryID = &rootEntryID.Int64
	}

	return &l, nil
}
