package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/syllabus"
	"github.com/trezcool/syllabus/storage/database"
)

const (
	documentColumns = "id, owner_kind, owner_id, month, weeks, version, created_at, updated_at"
	eventColumns    = "id, document_id, action, actor_id, actor_name, week_number, topic_index, subtopic_index, version, created_at"
)

type documentRow struct {
	ID        string    `db:"id"`
	OwnerKind string    `db:"owner_kind"`
	OwnerID   string    `db:"owner_id"`
	Month     string    `db:"month"`
	Weeks     string    `db:"weeks"` // JSON
	Version   int       `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type eventRow struct {
	ID            string      `db:"id"`
	DocumentID    string      `db:"document_id"`
	Action        string      `db:"action"`
	ActorID       string      `db:"actor_id"`
	ActorName     null.String `db:"actor_name"`
	WeekNumber    null.Int    `db:"week_number"`
	TopicIndex    null.Int    `db:"topic_index"`
	SubtopicIndex null.Int    `db:"subtopic_index"`
	Version       int         `db:"version"`
	CreatedAt     time.Time   `db:"created_at"`
}

type syllabusRepository struct {
	repository
}

var _ syllabus.Repository = (*syllabusRepository)(nil) // interface compliance check

func NewSyllabusRepository(exec core.DBExecutor) *syllabusRepository {
	return &syllabusRepository{repository{exec: exec}}
}

func (repo syllabusRepository) toRow(d syllabus.Document) (documentRow, error) {
	weeks := d.Weeks
	if weeks == nil {
		weeks = []syllabus.Week{}
	}
	data, err := json.Marshal(weeks)
	if err != nil {
		return documentRow{}, errors.Wrap(err, "encoding weeks")
	}
	return documentRow{
		ID:        d.ID,
		OwnerKind: d.OwnerKind,
		OwnerID:   d.OwnerID,
		Month:     d.Month,
		Weeks:     string(data),
		Version:   d.Version,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

func (repo syllabusRepository) fromRow(row documentRow) (syllabus.Document, error) {
	d := syllabus.Document{
		ID:        row.ID,
		OwnerKind: row.OwnerKind,
		OwnerID:   row.OwnerID,
		Month:     row.Month,
		Version:   row.Version,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(row.Weeks), &d.Weeks); err != nil {
		return syllabus.Document{}, errors.Wrapf(err, "decoding weeks of syllabus %s", row.ID)
	}
	d.Weeks = syllabus.Normalize(d.Weeks)
	return d, nil
}

// trapNoRowsErr maps "no rows" err to syllabus.ErrNotFound
func (repo syllabusRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return syllabus.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo syllabusRepository) CreateDocument(ctx context.Context, d syllabus.Document, exec ...core.DBExecutor) (syllabus.Document, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	row, err := repo.toRow(d)
	if err != nil {
		return syllabus.Document{}, err
	}
	exe := repo.getExec(exec)
	q := exe.Rebind("INSERT INTO syllabus_documents (" + documentColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	_, err = exe.ExecContext(ctx, q, row.ID, row.OwnerKind, row.OwnerID, row.Month, row.Weeks, row.Version, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return syllabus.Document{}, syllabus.ErrExists
		}
		return syllabus.Document{}, errors.Wrap(err, "inserting syllabus")
	}
	return repo.fromRow(row)
}

func (repo syllabusRepository) GetDocument(ctx context.Context, id string, exec ...core.DBExecutor) (syllabus.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return syllabus.Document{}, syllabus.ErrNotFound
	}
	exe := repo.getExec(exec)
	var row documentRow
	err := sqlx.GetContext(ctx, exe, &row, exe.Rebind("SELECT "+documentColumns+" FROM syllabus_documents WHERE id = ?"), id)
	if err != nil {
		return syllabus.Document{}, repo.trapNoRowsErr(err, "finding syllabus by ID")
	}
	return repo.fromRow(row)
}

func (repo syllabusRepository) FindDocument(ctx context.Context, key syllabus.Key, exec ...core.DBExecutor) (syllabus.Document, error) {
	exe := repo.getExec(exec)
	q := exe.Rebind("SELECT " + documentColumns + " FROM syllabus_documents WHERE owner_kind = ? AND owner_id = ? AND month = ?")
	var row documentRow
	if err := sqlx.GetContext(ctx, exe, &row, q, key.OwnerKind, key.OwnerID, key.Month); err != nil {
		return syllabus.Document{}, repo.trapNoRowsErr(err, "finding syllabus")
	}
	return repo.fromRow(row)
}

func (repo syllabusRepository) UpdateDocument(ctx context.Context, d syllabus.Document, prevVersion int, exec ...core.DBExecutor) (syllabus.Document, error) {
	row, err := repo.toRow(d)
	if err != nil {
		return syllabus.Document{}, err
	}
	exe := repo.getExec(exec)
	q := exe.Rebind("UPDATE syllabus_documents SET weeks = ?, version = ?, updated_at = ? WHERE id = ? AND version = ?")
	res, err := exe.ExecContext(ctx, q, row.Weeks, row.Version, row.UpdatedAt, row.ID, prevVersion)
	if err != nil {
		return syllabus.Document{}, errors.Wrap(err, "updating syllabus")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return syllabus.Document{}, errors.Wrap(err, "updating syllabus")
	}
	if n == 0 {
		return syllabus.Document{}, syllabus.ErrVersionConflict
	}
	return repo.fromRow(row)
}

func (repo syllabusRepository) AddEvent(ctx context.Context, ev syllabus.Event, exec ...core.DBExecutor) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	exe := repo.getExec(exec)
	q := exe.Rebind("INSERT INTO syllabus_events (" + eventColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	_, err := exe.ExecContext(ctx, q,
		ev.ID,
		ev.DocumentID,
		ev.Action,
		ev.ActorID,
		null.NewString(ev.ActorName, ev.ActorName != ""),
		nullInt(ev.WeekNumber),
		nullInt(ev.TopicIndex),
		nullInt(ev.SubtopicIndex),
		ev.Version,
		ev.CreatedAt.UTC(),
	)
	return errors.Wrap(err, "inserting syllabus event")
}

func (repo syllabusRepository) ListEvents(ctx context.Context, documentID string, exec ...core.DBExecutor) ([]syllabus.Event, error) {
	exe := repo.getExec(exec)
	q := exe.Rebind("SELECT " + eventColumns + " FROM syllabus_events WHERE document_id = ? ORDER BY version ASC, created_at ASC")
	var rows []eventRow
	if err := sqlx.SelectContext(ctx, exe, &rows, q, documentID); err != nil {
		return nil, errors.Wrap(err, "querying syllabus events")
	}

	events := make([]syllabus.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, syllabus.Event{
			ID:            row.ID,
			DocumentID:    row.DocumentID,
			Action:        row.Action,
			ActorID:       row.ActorID,
			ActorName:     row.ActorName.String,
			WeekNumber:    intFromNull(row.WeekNumber),
			TopicIndex:    intFromNull(row.TopicIndex),
			SubtopicIndex: intFromNull(row.SubtopicIndex),
			Version:       row.Version,
			CreatedAt:     row.CreatedAt.UTC(),
		})
	}
	return events, nil
}

func nullInt(i *int) null.Int {
	if i == nil {
		return null.Int{}
	}
	return null.IntFrom(*i)
}

func intFromNull(i null.Int) *int {
	if !i.Valid {
		return nil
	}
	v := i.Int
	return &v
}
