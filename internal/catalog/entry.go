package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// EntryKind mirrors spec §3's Entry.kind enum.
type EntryKind string

const (
	EntryFile      EntryKind = "file"
	EntryDirectory EntryKind = "directory"
	EntrySymlink   EntryKind = "symlink"
)

// Entry is one discovered filesystem item (spec §3).
type Entry struct {
	ID            int64
	UUID          string
	DeviceID      string
	PrefixID      int64
	RelativePath  string
	Name          string
	Extension     string
	Kind          EntryKind
	Size          int64
	AggregateSize int64
	ChildCount    int64
	FileCount     int64
	CreatedAt     time.Time
	ModifiedAt    time.Time
	AccessedAt    *time.Time
	IndexedAt     time.Time
	Inode         *uint64
	Permissions   *uint32
	LocationID    *string
	ParentID      *int64
	ContentID     *int64
	MetadataID    *int64
}

// EntryRepo implements the catalog's typed repository API over entries and
// entry_closure, matching the teacher's ledger.go style: one struct wrapping
// the shared *sql.DB, plain exported methods, sql.Null* scan targets.
type EntryRepo struct {
	db *sql.DB
}

func NewEntryRepo(s *Store) *EntryRepo { return &EntryRepo{db: s.db} }

// UpsertRoot inserts the root entry for a location — the one Entry whose
// parent is null, matching spec §3's Location invariant. It also seeds the
// entry's own closure row (depth 0), since every entry is its own ancestor
// at depth 0.
func (r *EntryRepo) UpsertRoot(ctx context.Context, e *Entry) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errs.TransientIO(err, "catalog: begin upsert root")
	}
	defer tx.Rollback()

	id, err := insertEntry(ctx, tx, e, nil)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entry_closure (ancestor_id, descendant_id, depth) VALUES (?, ?, 0)`,
		id, id); err != nil {
		return 0, errs.TransientIO(err, "catalog: seed root closure")
	}

	if err := tx.Commit(); err != nil {
		return 0, errs.TransientIO(err, "catalog: commit upsert root")
	}

	return id, nil
}

// InsertChild inserts e under parentID, maintaining the closure table and
// the ancestor chain's aggregate_size/child_count/file_count counters in
// the same transaction (spec §4.1: "writes that touch size, aggregate_size,
// child_count, file_count are performed inside a single transaction with
// the ancestor closure update").
func (r *EntryRepo) InsertChild(ctx context.Context, e *Entry, parentID int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errs.TransientIO(err, "catalog: begin insert child")
	}
	defer tx.Rollback()

	id, err := insertEntry(ctx, tx, e, &parentID)
	if err != nil {
		return 0, err
	}

	if err := seedClosureForChild(ctx, tx, id, parentID); err != nil {
		return 0, err
	}

	if err := bumpAncestorAggregates(ctx, tx, parentID, e.Size, 1, fileDelta(e.Kind)); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, errs.TransientIO(err, "catalog: commit insert child")
	}

	return id, nil
}

func fileDelta(k EntryKind) int64 {
	if k == EntryFile {
		return 1
	}
	return 0
}

func insertEntry(ctx context.Context, tx *sql.Tx, e *Entry, parentID *int64) (int64, error) {
	now := time.Now().UnixNano()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO entries
			(uuid, device_id, prefix_id, relative_path, name, extension, kind,
			 size, aggregate_size, child_count, file_count,
			 created_at, modified_at, accessed_at, indexed_at,
			 inode, permissions, location_id, parent_id, content_id, metadata_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UUID, e.DeviceID, e.PrefixID, e.RelativePath, e.Name, e.Extension, string(e.Kind),
		e.Size, e.CreatedAt.UnixNano(), e.ModifiedAt.UnixNano(), nullTime(e.AccessedAt), now,
		nullUint64(e.Inode), nullUint32(e.Permissions), nullString(e.LocationID), parentID,
		e.ContentID, e.MetadataID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, errs.Conflict(fmt.Sprintf("catalog: entry already exists at prefix %d path %q", e.PrefixID, e.RelativePath))
		}
		return 0, errs.TransientIO(err, "catalog: inserting entry")
	}

	return res.LastInsertId()
}

// seedClosureForChild inserts one closure row per ancestor of parentID (at
// depth+1) plus the self row (depth 0), in O(depth) inserts — the
// guarantee spec §4.1 requires for closure-table inserts.
func seedClosureForChild(ctx context.Context, tx *sql.Tx, childID, parentID int64) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO entry_closure (ancestor_id, descendant_id, depth)
		SELECT ancestor_id, ?, depth + 1 FROM entry_closure WHERE descendant_id = ?`,
		childID, parentID); err != nil {
		return errs.TransientIO(err, "catalog: seeding closure ancestors")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entry_closure (ancestor_id, descendant_id, depth) VALUES (?, ?, 0)`,
		childID, childID); err != nil {
		return errs.TransientIO(err, "catalog: seeding closure self row")
	}

	return nil
}

// bumpAncestorAggregates adds sizeDelta/childDelta/fileDelta to every
// ancestor of entryID (itself included via the depth=0 closure row), so a
// single insert touches every directory up the chain in one UPDATE.
func bumpAncestorAggregates(ctx context.Context, tx *sql.Tx, entryID int64, sizeDelta, childDelta, fileDeltaVal int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE entries SET
			aggregate_size = aggregate_size + ?,
			child_count = child_count + ?,
			file_count = file_count + ?
		WHERE id IN (
			SELECT ancestor_id FROM entry_closure WHERE descendant_id = ?
		)`, sizeDelta, childDelta, fileDeltaVal, entryID)
	if err != nil {
		return errs.TransientIO(err, "catalog: updating ancestor aggregates")
	}
	return nil
}

// Delete removes an entry and every descendant (closure-table subtree
// delete), decrementing aggregate counters on the surviving ancestor chain.
func (r *EntryRepo) Delete(ctx context.Context, entryID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.TransientIO(err, "catalog: begin delete")
	}
	defer tx.Rollback()

	e, err := getEntry(ctx, tx, entryID)
	if err != nil {
		return err
	}

	if e.ParentID != nil {
		if err := bumpAncestorAggregates(ctx, tx, *e.ParentID, -e.AggregateSize-e.Size, -(1 + e.ChildCount), -e.FileCount-fileDelta(e.Kind)); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM entries WHERE id IN (
			SELECT descendant_id FROM entry_closure WHERE ancestor_id = ?
		)`, entryID); err != nil {
		return errs.TransientIO(err, "catalog: deleting subtree entries")
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM entry_closure WHERE descendant_id IN (
			SELECT descendant_id FROM entry_closure WHERE ancestor_id = ?
		)`, entryID); err != nil {
		return errs.TransientIO(err, "catalog: deleting subtree closure rows")
	}

	return errs.TransientIO(tx.Commit(), "catalog: commit delete")
}

// UpdateStat rewrites entryID's size/modified_at/inode/permissions, per the
// indexer's reconcile phase discovering a watched path changed on disk
// without being removed and recreated. The ancestor chain's aggregate_size
// is adjusted by the size delta in the same transaction, matching
// InsertChild/Delete's "one transaction touches the whole ancestor chain"
// contract.
func (r *EntryRepo) UpdateStat(ctx context.Context, entryID int64, size int64, modifiedAt time.Time, inode *uint64, permissions *uint32) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.TransientIO(err, "catalog: begin update stat")
	}
	defer tx.Rollback()

	e, err := getEntry(ctx, tx, entryID)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE entries SET size = ?, modified_at = ?, indexed_at = ?, inode = ?, permissions = ?
		WHERE id = ?`,
		size, modifiedAt.UnixNano(), time.Now().UnixNano(), nullUint64(inode), nullUint32(permissions), entryID); err != nil {
		return errs.TransientIO(err, "catalog: updating entry stat")
	}

	if e.ParentID != nil && size != e.Size {
		if err := bumpAncestorAggregates(ctx, tx, *e.ParentID, size-e.Size, 0, 0); err != nil {
			return err
		}
	}

	return errs.TransientIO(tx.Commit(), "catalog: commit update stat")
}

// Rename updates entryID's name/relative_path/parent, for the watcher's
// rename-pairing case (spec §4.4: "a paired Remove+Create at the same inode
// becomes a single rename" — no content_id, aggregate counters, or closure
// depth changes, just the identity fields).
func (r *EntryRepo) Rename(ctx context.Context, entryID int64, relativePath, name string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE entries SET relative_path = ?, name = ? WHERE id = ?`, relativePath, name, entryID)
	return errs.TransientIO(err, "catalog: renaming entry")
}

// Subtree returns every descendant of entryID (ancestor included when
// includeSelf is true), using the closure table so no recursive CTE is
// needed on the hot path.
func (r *EntryRepo) Subtree(ctx context.Context, entryID int64, includeSelf bool) ([]Entry, error) {
	minDepth := 1
	if includeSelf {
		minDepth = 0
	}

	rows, err := r.db.QueryContext(ctx, entrySelectCols+`
		WHERE e.id IN (
			SELECT descendant_id FROM entry_closure WHERE ancestor_id = ? AND depth >= ?
		) ORDER BY e.relative_path`, entryID, minDepth)
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: querying subtree")
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Children returns the direct children of entryID (depth exactly 1).
func (r *EntryRepo) Children(ctx context.Context, entryID int64) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, entrySelectCols+`
		WHERE e.id IN (
			SELECT descendant_id FROM entry_closure WHERE ancestor_id = ? AND depth = 1
		) ORDER BY e.name`, entryID)
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: querying children")
	}
	defer rows.Close()

	return scanEntries(rows)
}

// FindByPath looks up an entry by its unique (prefix_id, relative_path).
func (r *EntryRepo) FindByPath(ctx context.Context, prefixID int64, relativePath string) (*Entry, error) {
	row := r.db.QueryRowContext(ctx, entrySelectCols+`WHERE e.prefix_id = ? AND e.relative_path = ?`, prefixID, relativePath)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound(fmt.Sprintf("catalog: no entry at prefix %d path %q", prefixID, relativePath))
	}
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: scanning entry by path")
	}

	return e, nil
}

// SetContentID atomically performs spec §4.1's content_id transition:
// insert-ContentIdentity-if-absent by (size, cas_id), then set Entry.content_id.
// If the Entry update fails, the whole transaction rolls back, which is
// dedup-safe because the ContentIdentity insert used INSERT OR IGNORE.
func (r *EntryRepo) SetContentID(ctx context.Context, entryID int64, libraryID, deviceID, uuid, casID string, size int64, kind, mime, extension string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errs.TransientIO(err, "catalog: begin set content id")
	}
	defer tx.Rollback()

	now := time.Now().UnixNano()

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO content_identities
			(uuid, library_id, device_id, cas_id, size, kind, mime, extension, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid, libraryID, deviceID, casID, size, kind, mime, extension, now); err != nil {
		return 0, errs.TransientIO(err, "catalog: inserting content identity")
	}

	var contentID int64
	if err := tx.QueryRowContext(ctx, `
		SELECT id FROM content_identities WHERE library_id = ? AND device_id = ? AND cas_id = ? AND size = ?`,
		libraryID, deviceID, casID, size).Scan(&contentID); err != nil {
		return 0, errs.TransientIO(err, "catalog: resolving content identity id")
	}

	if _, err := tx.ExecContext(ctx, `UPDATE entries SET content_id = ? WHERE id = ?`, contentID, entryID); err != nil {
		return 0, errs.TransientIO(err, "catalog: setting entry content_id")
	}

	return contentID, errs.TransientIO(tx.Commit(), "catalog: commit set content id")
}

const entrySelectCols = `SELECT e.id, e.uuid, e.device_id, e.prefix_id, e.relative_path, e.name, e.extension,
	e.kind, e.size, e.aggregate_size, e.child_count, e.file_count,
	e.created_at, e.modified_at, e.accessed_at, e.indexed_at,
	e.inode, e.permissions, e.location_id, e.parent_id, e.content_id, e.metadata_id
	FROM entries e `

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e           Entry
		kind        string
		accessedAt  sql.NullInt64
		inode       sql.NullInt64
		permissions sql.NullInt64
		locationID  sql.NullString
		parentID    sql.NullInt64
		contentID   sql.NullInt64
		metadataID  sql.NullInt64
		createdAt   int64
		modifiedAt  int64
		indexedAt   int64
	)

	err := row.Scan(&e.ID, &e.UUID, &e.DeviceID, &e.PrefixID, &e.RelativePath, &e.Name, &e.Extension,
		&kind, &e.Size, &e.AggregateSize, &e.ChildCount, &e.FileCount,
		&createdAt, &modifiedAt, &accessedAt, &indexedAt,
		&inode, &permissions, &locationID, &parentID, &contentID, &metadataID)
	if err != nil {
		return nil, err
	}

	e.Kind = EntryKind(kind)
	e.CreatedAt = time.Unix(0, createdAt)
	e.ModifiedAt = time.Unix(0, modifiedAt)
	e.IndexedAt = time.Unix(0, indexedAt)

	if accessedAt.Valid {
		t := time.Unix(0, accessedAt.Int64)
		e.AccessedAt = &t
	}
	if inode.Valid {
		v := uint64(inode.Int64)
		e.Inode = &v
	}
	if permissions.Valid {
		v := uint32(permissions.Int64)
		e.Permissions = &v
	}
	if locationID.Valid {
		e.LocationID = &locationID.String
	}
	if parentID.Valid {
		e.ParentID = &parentID.Int64
	}
	if contentID.Valid {
		e.ContentID = &contentID.Int64
	}
	if metadataID.Valid {
		e.MetadataID = &metadataID.Int64
	}

	return &e, nil
}

func getEntry(ctx context.Context, tx *sql.Tx, id int64) (*Entry, error) {
	row := tx.QueryRowContext(ctx, entrySelectCols+`WHERE e.id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound(fmt.Sprintf("catalog: no entry %d", id))
	}
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: scanning entry")
	}
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, errs.TransientIO(err, "catalog: scanning entry row")
		}
		out = append(out, *e)
	}
	return out, errs.TransientIO(rows.Err(), "catalog: iterating entry rows")
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func nullUint64(v *uint64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullUint32(v *uint32) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure. modernc.org/sqlite wraps its own error type; matching on the
// message is what the teacher does too for driver-specific errors it
// doesn't want a hard dependency on (see internal/sync/executor.go's
// handling of Graph API 409 responses, matched on status text).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
