// ABOUTME: Save storage operations for SQLite
// ABOUTME: Implements insert, lookup, sparse update, and delete of saved links
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harper/stash/internal/models"
)

// saveColumns is the select list scanned by scanSave, qualified with alias s
const saveColumns = `s.id, s.url, s.title, s.imageUrl, s.siteName, s.platform, s.category,
	s.note, s.summary, s.embedding, s.createdAt, s.updatedAt`

// SaveStore handles save persistence
type SaveStore struct {
	db  *DB
	now func() time.Time
}

// NewSaveStore creates a new SaveStore
func NewSaveStore(db *DB) *SaveStore {
	return &SaveStore{db: db, now: time.Now}
}

// Add inserts a save and returns its id. Both timestamps are set to now.
func (s *SaveStore) Add(ctx context.Context, in models.SaveInput) (int64, error) {
	if strings.TrimSpace(in.URL) == "" {
		return 0, fmt.Errorf("url is required")
	}
	if in.Title == "" {
		in.Title = in.URL
	}
	if in.Platform == "" {
		in.Platform = models.PlatformWeb
	}

	now := formatTime(s.now())
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO saves (url, title, imageUrl, siteName, platform, category, note, summary, embedding, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, in.URL, in.Title, nullString(in.ImageURL), nullString(in.SiteName), string(in.Platform),
		nullString(in.Category), nullString(in.Note), nullString(in.Summary), nullString(in.Embedding),
		now, now)
	if err != nil {
		if isUniqueViolation(err, "saves.url") {
			return 0, ErrDuplicateURL
		}
		return 0, err
	}

	return res.LastInsertId()
}

// GetByID retrieves a save by its ID, or nil when it does not exist
func (s *SaveStore) GetByID(ctx context.Context, id int64) (*models.Save, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+saveColumns+` FROM saves s WHERE s.id = ?`, id)
	save, err := scanSave(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return save, nil
}

// Update writes only the provided fields and refreshes updatedAt. An update
// with no fields is a no-op. ErrNotFound is returned for an unknown id.
func (s *SaveStore) Update(ctx context.Context, id int64, u models.SaveUpdate) error {
	if u.Empty() {
		return nil
	}

	var (
		sets []string
		args []interface{}
	)
	if u.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *u.Category)
	}
	if u.Note != nil {
		sets = append(sets, "note = ?")
		args = append(args, *u.Note)
	}
	if u.Summary != nil {
		sets = append(sets, "summary = ?")
		args = append(args, *u.Summary)
	}
	if u.Embedding != nil {
		sets = append(sets, "embedding = ?")
		args = append(args, *u.Embedding)
	}
	sets = append(sets, "updatedAt = ?")
	args = append(args, formatTime(s.now()), id)

	res, err := s.db.ExecContext(ctx, "UPDATE saves SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes a save; its collection memberships cascade
func (s *SaveStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM saves WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Count returns the number of saves
func (s *SaveStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM saves").Scan(&n)
	return n, err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSave scans one row selected with saveColumns
func scanSave(row rowScanner) (*models.Save, error) {
	var (
		save                 models.Save
		platform             string
		imageURL, siteName   sql.NullString
		category, note       sql.NullString
		summary, embedding   sql.NullString
		createdAt, updatedAt string
	)

	if err := row.Scan(&save.ID, &save.URL, &save.Title, &imageURL, &siteName, &platform,
		&category, &note, &summary, &embedding, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	save.Platform = models.Platform(platform)
	save.ImageURL = stringPtr(imageURL)
	save.SiteName = stringPtr(siteName)
	save.Category = stringPtr(category)
	save.Note = stringPtr(note)
	save.Summary = stringPtr(summary)
	save.Embedding = stringPtr(embedding)

	var err error
	if save.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if save.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &save, nil
}

// scanSaves scans all rows selected with saveColumns
func scanSaves(rows *sql.Rows) ([]models.Save, error) {
	saves := []models.Save{}
	for rows.Next() {
		save, err := scanSave(rows)
		if err != nil {
			return nil, err
		}
		saves = append(saves, *save)
	}
	return saves, rows.Err()
}
