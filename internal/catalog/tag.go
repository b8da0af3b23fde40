package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// Tag is a hierarchical user-defined label (spec §3). Applications go
// through UserMetadata, not directly against an Entry, so an entry's tags
// resolve the same way whether the tag was applied to the entry itself or
// (via content-scoped metadata) to every entry sharing that content.
type Tag struct {
	ID        int64
	LibraryID string
	Name      string
	Color     string
	ParentID  *int64
	CreatedAt time.Time
}

type TagRepo struct{ db *sql.DB }

func NewTagRepo(s *Store) *TagRepo { return &TagRepo{db: s.db} }

// Create inserts a tag and maintains TagClosure the same way EntryRepo
// maintains EntryClosure: one O(depth) insert seeding every ancestor row
// plus the self row, so hierarchical tag queries never need a recursive
// CTE either.
func (r *TagRepo) Create(ctx context.Context, t *Tag) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errs.TransientIO(err, "catalog: begin create tag")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO tags (library_id, name, color, parent_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.LibraryID, t.Name, t.Color, t.ParentID, time.Now().UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, errs.Conflict("catalog: tag already exists at this position")
		}
		return 0, errs.TransientIO(err, "catalog: inserting tag")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errs.TransientIO(err, "catalog: reading tag id")
	}

	if t.ParentID != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tag_closure (ancestor_id, descendant_id, depth)
			SELECT ancestor_id, ?, depth + 1 FROM tag_closure WHERE descendant_id = ?`, id, *t.ParentID); err != nil {
			return 0, errs.TransientIO(err, "catalog: seeding tag closure ancestors")
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tag_closure (ancestor_id, descendant_id, depth) VALUES (?, ?, 0)`, id, id); err != nil {
		return 0, errs.TransientIO(err, "catalog: seeding tag closure self row")
	}

	return id, errs.TransientIO(tx.Commit(), "catalog: commit create tag")
}

// Apply links a tag to a UserMetadata row.
func (r *TagRepo) Apply(ctx context.Context, tagID, userMetadataID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO tag_applications (tag_id, user_metadata_id, applied_at) VALUES (?, ?, ?)`,
		tagID, userMetadataID, time.Now().UnixNano())
	return errs.TransientIO(err, "catalog: applying tag")
}

func (r *TagRepo) Unapply(ctx context.Context, tagID, userMetadataID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tag_applications WHERE tag_id = ? AND user_metadata_id = ?`, tagID, userMetadataID)
	return errs.TransientIO(err, "catalog: unapplying tag")
}

// Descendants returns every tag at or below tagID in the hierarchy,
// supporting "find everything tagged X or a child of X" queries.
func (r *TagRepo) Descendants(ctx context.Context, tagID int64) ([]Tag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.library_id, t.name, t.color, t.parent_id, t.created_at
		FROM tags t WHERE t.id IN (
			SELECT descendant_id FROM tag_closure WHERE ancestor_id = ?
		) ORDER BY t.name`, tagID)
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: querying tag descendants")
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var (
			t         Tag
			parentID  sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &t.LibraryID, &t.Name, &t.Color, &parentID, &createdAt); err != nil {
			return nil, errs.TransientIO(err, "catalog: scanning tag row")
		}
		t.CreatedAt = time.Unix(0, createdAt)
		if parentID.Valid {
			t.ParentID = &parentID.Int64
		}
		out = append(out, t)
	}
	return out, errs.TransientIO(rows.Err(), "catalog: iterating tag rows")
}

// UsagePattern reports how many UserMetadata rows carry tagID, directly or
// via a descendant tag — the "TagUsagePattern" spec §5 supplements with,
// used to rank tags by how actively they're applied.
type UsagePattern struct {
	TagID int64
	Count int64
}

func (r *TagRepo) UsagePattern(ctx context.Context, tagID int64) (UsagePattern, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tag_applications WHERE tag_id IN (
			SELECT descendant_id FROM tag_closure WHERE ancestor_id = ?
		)`, tagID).Scan(&count)
	if err != nil {
		return UsagePattern{}, errs.TransientIO(err, "catalog: computing tag usage pattern")
	}
	return UsagePattern{TagID: tagID, Count: count}, nil
}
