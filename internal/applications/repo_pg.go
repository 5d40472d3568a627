package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/shared/storage/db"
)

const (
	uniquePairConstraint = "applications_job_applicant_key"
	jobForeignKey        = "applications_job_id_fkey"
)

type PGRepo struct {
	DB *sql.DB
}

const applicationColumns = `id, job_id, applicant_id, resume_url, cover_letter, status, notes,
reviewed_at, reviewed_by, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, app Application) error {
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		const insert = `
INSERT INTO applications (id, job_id, applicant_id, resume_url, cover_letter, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())`
		_, err := tx.ExecContext(ctx, insert,
			app.ID,
			app.JobID,
			app.ApplicantID,
			app.ResumeURL,
			nullableString(app.CoverLetter),
			string(app.Status),
		)
		if db.IsUniqueViolation(err, uniquePairConstraint) {
			return ErrDuplicate
		}
		if db.IsForeignKeyViolation(err, jobForeignKey) {
			return jobs.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("insert application: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
UPDATE jobs
SET applications_count = applications_count + 1
WHERE id = $1`, app.JobID)
		if err != nil {
			return fmt.Errorf("increment applications_count: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return jobs.ErrNotFound
		}
		return nil
	})
}

func (r *PGRepo) GetByID(ctx context.Context, applicationID string) (Application, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+applicationColumns+`
FROM applications
WHERE id = $1
LIMIT 1`, applicationID)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	return app, err
}

func (r *PGRepo) UpdateReview(ctx context.Context, app Application) error {
	const query = `
UPDATE applications
SET status = $2,
	notes = $3,
	reviewed_by = $4,
	reviewed_at = $5,
	updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		app.ID,
		string(app.Status),
		nullableString(app.Notes),
		nullableString(app.ReviewedBy),
		app.ReviewedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, applicationID string) error {
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var jobID string
		err := tx.QueryRowContext(ctx, `DELETE FROM applications WHERE id = $1 RETURNING job_id`, applicationID).Scan(&jobID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("delete application: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
UPDATE jobs
SET applications_count = GREATEST(applications_count - 1, 0)
WHERE id = $1`, jobID)
		if err != nil {
			return fmt.Errorf("decrement applications_count: %w", err)
		}
		return nil
	})
}

func (r *PGRepo) ListByApplicant(ctx context.Context, applicantID string, filter Filter) ([]Application, int, error) {
	return r.list(ctx, "applicant_id", applicantID, filter)
}

func (r *PGRepo) ListByJob(ctx context.Context, jobID string, filter Filter) ([]Application, int, error) {
	return r.list(ctx, "job_id", jobID, filter)
}

func (r *PGRepo) StatusesForApplicant(ctx context.Context, applicantID string, jobIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(jobIDs))
	if len(jobIDs) == 0 {
		return out, nil
	}
	rows, err := r.DB.QueryContext(ctx, `
SELECT job_id, status
FROM applications
WHERE applicant_id = $1 AND job_id = ANY($2)`, applicantID, pq.Array(jobIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var jobID, status string
		if err := rows.Scan(&jobID, &status); err != nil {
			return nil, err
		}
		out[jobID] = status
	}
	return out, rows.Err()
}

func (r *PGRepo) CountByJob(ctx context.Context, jobID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications WHERE job_id = $1`, jobID).Scan(&n)
	return n, err
}

func (r *PGRepo) DeleteByJob(ctx context.Context, jobID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM applications WHERE job_id = $1`, jobID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// list pages applications where column = value. column is one of two
// fixed names, never caller input.
func (r *PGRepo) list(ctx context.Context, column, value string, filter Filter) ([]Application, int, error) {
	where := column + " = $1"
	args := []any{value}
	if filter.Status != "" {
		where += " AND status = $2"
		args = append(args, string(filter.Status))
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []Application{}, 0, nil
	}

	page := filter.Page.Normalize()
	query := fmt.Sprintf(`SELECT %s
FROM applications
WHERE %s
ORDER BY created_at DESC, id ASC
LIMIT $%d OFFSET $%d`, applicationColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, app)
	}
	return out, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(s scanner) (Application, error) {
	var app Application
	var status string
	var coverLetter, notes, reviewedBy sql.NullString
	var reviewedAt sql.NullTime
	err := s.Scan(
		&app.ID,
		&app.JobID,
		&app.ApplicantID,
		&app.ResumeURL,
		&coverLetter,
		&status,
		&notes,
		&reviewedAt,
		&reviewedBy,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return Application{}, err
	}
	app.Status = Status(status)
	app.CoverLetter = coverLetter.String
	app.Notes = notes.String
	app.ReviewedBy = reviewedBy.String
	if reviewedAt.Valid {
		t := reviewedAt.Time
		app.ReviewedAt = &t
	}
	return app, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
