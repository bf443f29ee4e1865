package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/owner"
	"github.com/trezcool/syllabus/storage/database"
)

const ownerColumns = "id, kind, name, teacher_ids, reviewer_emails, created_at, updated_at"

type ownerRow struct {
	ID             string    `db:"id"`
	Kind           string    `db:"kind"`
	Name           string    `db:"name"`
	TeacherIDs     string    `db:"teacher_ids"`     // JSON array
	ReviewerEmails string    `db:"reviewer_emails"` // JSON array
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type ownerRepository struct {
	repository
}

var _ owner.Repository = (*ownerRepository)(nil) // interface compliance check

func NewOwnerRepository(exec core.DBExecutor) *ownerRepository {
	return &ownerRepository{repository{exec: exec}}
}

func (repo ownerRepository) toRow(o owner.Owner) (ownerRow, error) {
	tids, err := json.Marshal(nonNil(o.TeacherIDs))
	if err != nil {
		return ownerRow{}, errors.Wrap(err, "encoding teacher ids")
	}
	emails, err := json.Marshal(nonNil(o.ReviewerEmails))
	if err != nil {
		return ownerRow{}, errors.Wrap(err, "encoding reviewer emails")
	}
	return ownerRow{
		ID:             o.ID,
		Kind:           o.Kind,
		Name:           o.Name,
		TeacherIDs:     string(tids),
		ReviewerEmails: string(emails),
		CreatedAt:      o.CreatedAt.UTC(),
		UpdatedAt:      o.UpdatedAt.UTC(),
	}, nil
}

func (repo ownerRepository) fromRow(row ownerRow) (owner.Owner, error) {
	o := owner.Owner{
		ID:        row.ID,
		Kind:      row.Kind,
		Name:      row.Name,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(row.TeacherIDs), &o.TeacherIDs); err != nil {
		return owner.Owner{}, errors.Wrapf(err, "decoding teacher ids of %s", row.ID)
	}
	if err := json.Unmarshal([]byte(row.ReviewerEmails), &o.ReviewerEmails); err != nil {
		return owner.Owner{}, errors.Wrapf(err, "decoding reviewer emails of %s", row.ID)
	}
	o.TeacherIDs = nonNil(o.TeacherIDs)
	o.ReviewerEmails = nonNil(o.ReviewerEmails)
	return o, nil
}

func (repo ownerRepository) CreateOwner(ctx context.Context, o owner.Owner, exec ...core.DBExecutor) (owner.Owner, error) {
	row, err := repo.toRow(o)
	if err != nil {
		return owner.Owner{}, err
	}
	exe := repo.getExec(exec)
	q := exe.Rebind("INSERT INTO owners (" + ownerColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)")
	_, err = exe.ExecContext(ctx, q, row.ID, row.Kind, row.Name, row.TeacherIDs, row.ReviewerEmails, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return owner.Owner{}, owner.ErrExists
		}
		return owner.Owner{}, errors.Wrap(err, "inserting owner")
	}
	return repo.fromRow(row)
}

func (repo ownerRepository) GetOwner(ctx context.Context, id string, exec ...core.DBExecutor) (owner.Owner, error) {
	exe := repo.getExec(exec)
	var row ownerRow
	err := sqlx.GetContext(ctx, exe, &row, exe.Rebind("SELECT "+ownerColumns+" FROM owners WHERE id = ?"), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return owner.Owner{}, owner.ErrNotFound
		}
		return owner.Owner{}, errors.Wrap(err, "finding owner")
	}
	return repo.fromRow(row)
}

func (repo ownerRepository) QueryOwners(ctx context.Context, filter *owner.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]owner.Owner, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		// owners with Name or ID matching the search keyword
		if filter.Search != "" {
			val := "%" + strings.ToLower(filter.Search) + "%"
			conds = append(conds, "(LOWER(name) LIKE ? OR LOWER(id) LIKE ?)")
			args = append(args, val, val)
		}
		if filter.Kind != "" {
			conds = append(conds, "kind = ?")
			args = append(args, filter.Kind)
		}
	}

	q := "SELECT " + ownerColumns + " FROM owners"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, "name ASC")

	exe := repo.getExec(exec)
	var rows []ownerRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying owners")
	}

	owners := make([]owner.Owner, 0, len(rows))
	for _, row := range rows {
		o, err := repo.fromRow(row)
		if err != nil {
			return nil, err
		}
		// teacher ids are a JSON column; match them here rather than with driver specific JSON operators
		if filter != nil && filter.TeacherID != "" && !o.HasTeacher(filter.TeacherID) {
			continue
		}
		owners = append(owners, o)
	}
	return owners, nil
}

func (repo ownerRepository) UpdateOwner(ctx context.Context, o owner.Owner, exec ...core.DBExecutor) (owner.Owner, error) {
	row, err := repo.toRow(o)
	if err != nil {
		return owner.Owner{}, err
	}
	exe := repo.getExec(exec)
	q := exe.Rebind("UPDATE owners SET name = ?, teacher_ids = ?, reviewer_emails = ?, updated_at = ? WHERE id = ?")
	res, err := exe.ExecContext(ctx, q, row.Name, row.TeacherIDs, row.ReviewerEmails, row.UpdatedAt, row.ID)
	if err != nil {
		return owner.Owner{}, errors.Wrap(err, "updating owner")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return owner.Owner{}, owner.ErrNotFound
	}
	return repo.fromRow(row)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
