package mail

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bulkmail/internal/adapters/storage"
	domain "bulkmail/internal/domain/mail"
)

const recordColumns = `id, subject, body, recipients, status, success_count, failed_count,
	failed_emails, sender_id, created_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Create assigns an id and creation time and inserts the record.
// PRE: r has been validated
// POST: Returns the stored record with ID and CreatedAt set
func (s *SQLiteStore) Create(ctx context.Context, r domain.Record) (domain.Record, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = s.now().UTC()
	if r.Recipients == nil {
		r.Recipients = []string{}
	}
	if r.FailedEmails == nil {
		r.FailedEmails = []domain.FailedEmail{}
	}

	recipients, err := json.Marshal(r.Recipients)
	if err != nil {
		return domain.Record{}, fmt.Errorf("encode recipients: %w", err)
	}
	failed, err := json.Marshal(r.FailedEmails)
	if err != nil {
		return domain.Record{}, fmt.Errorf("encode failed emails: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO mail_record (`+recordColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Subject, r.Body, string(recipients), r.Status,
		r.SuccessCount, r.FailedCount, string(failed), r.SenderID,
		storage.FormatTime(r.CreatedAt))
	if err != nil {
		return domain.Record{}, fmt.Errorf("insert mail record: %w", err)
	}
	return r, nil
}

// GetByID retrieves a record by its id.
// PRE: id is non-empty
// POST: Returns the record or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM mail_record WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, ErrNotFound
	}
	return r, err
}

// List returns one page of records, newest first.
// Ties on created_at fall back to insertion order, newest first.
// PRE: offset >= 0, limit > 0
// POST: Returns at most limit records
func (s *SQLiteStore) List(ctx context.Context, offset, limit int) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM mail_record
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list mail records: %w", err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the total number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mail_record`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count mail records: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (domain.Record, error) {
	var (
		r                  domain.Record
		recipients, failed string
		createdAt          string
	)
	if err := sc.Scan(&r.ID, &r.Subject, &r.Body, &recipients, &r.Status,
		&r.SuccessCount, &r.FailedCount, &failed, &r.SenderID, &createdAt); err != nil {
		return domain.Record{}, err
	}
	if err := json.Unmarshal([]byte(recipients), &r.Recipients); err != nil {
		return domain.Record{}, fmt.Errorf("decode recipients for %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(failed), &r.FailedEmails); err != nil {
		return domain.Record{}, fmt.Errorf("decode failed emails for %s: %w", r.ID, err)
	}
	t, err := storage.ParseTime(createdAt)
	if err != nil {
		return domain.Record{}, err
	}
	r.CreatedAt = t
	return r, nil
}
