package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"jobboard-backend/internal/shared/paging"
	"jobboard-backend/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `id, title, company, description, location, type, category, experience_level,
salary_min, salary_max, salary_currency, salary_period, tags, is_active, featured,
application_deadline, applications_count, views_count, created_by, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, job Job) error {
	const query = `
INSERT INTO jobs (id, title, company, description, location, type, category, experience_level,
	salary_min, salary_max, salary_currency, salary_period, tags, is_active, featured,
	application_deadline, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now(), now())`
	_, err := r.DB.ExecContext(ctx, query,
		job.ID,
		job.Title,
		job.Company,
		job.Description,
		job.Location,
		string(job.Type),
		string(job.Category),
		nullableString(string(job.ExperienceLevel)),
		job.Salary.Min,
		job.Salary.Max,
		job.Salary.Currency,
		string(job.Salary.Period),
		pq.Array(tagsOrEmpty(job.Tags)),
		job.IsActive,
		job.Featured,
		job.ApplicationDeadline,
		job.CreatedBy,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+jobColumns+`
FROM jobs
WHERE id = $1
LIMIT 1`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return job, err
}

func (r *PGRepo) GetMany(ctx context.Context, jobIDs []string) (map[string]Job, error) {
	out := make(map[string]Job, len(jobIDs))
	if len(jobIDs) == 0 {
		return out, nil
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+jobColumns+`
FROM jobs
WHERE id = ANY($1)`, pq.Array(jobIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out[job.ID] = job
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, job Job) error {
	const query = `
UPDATE jobs
SET title = $2,
	company = $3,
	description = $4,
	location = $5,
	type = $6,
	category = $7,
	experience_level = $8,
	salary_min = $9,
	salary_max = $10,
	salary_currency = $11,
	salary_period = $12,
	tags = $13,
	is_active = $14,
	featured = $15,
	application_deadline = $16,
	updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		job.ID,
		job.Title,
		job.Company,
		job.Description,
		job.Location,
		string(job.Type),
		string(job.Category),
		nullableString(string(job.ExperienceLevel)),
		job.Salary.Min,
		job.Salary.Max,
		job.Salary.Currency,
		string(job.Salary.Period),
		pq.Array(tagsOrEmpty(job.Tags)),
		job.IsActive,
		job.Featured,
		job.ApplicationDeadline,
	)
	return affectedOne(res, err)
}

func (r *PGRepo) Delete(ctx context.Context, jobID string) error {
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE job_id = $1`, jobID); err != nil {
			return fmt.Errorf("delete applications: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, jobID)
		return affectedOne(res, err)
	})
}

func (r *PGRepo) List(ctx context.Context, filter ListFilter) ([]Job, int, error) {
	q := &listQuery{}
	where := []string{"is_active = TRUE"}
	rank := ""
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		p := q.arg(kw)
		where = append(where, "search_vector @@ websearch_to_tsquery('english', "+p+")")
		rank = "ts_rank(search_vector, websearch_to_tsquery('english', " + p + "))"
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		where = append(where, "location ILIKE "+q.arg("%"+escapeLike(loc)+"%"))
	}
	if len(filter.Types) > 0 {
		where = append(where, "type = ANY("+q.arg(pq.Array(stringsOf(filter.Types)))+")")
	}
	if len(filter.Categories) > 0 {
		where = append(where, "category = ANY("+q.arg(pq.Array(stringsOf(filter.Categories)))+")")
	}
	if len(filter.Levels) > 0 {
		where = append(where, "experience_level = ANY("+q.arg(pq.Array(stringsOf(filter.Levels)))+")")
	}
	if filter.SalaryMin != nil {
		where = append(where, "salary_min >= "+q.arg(*filter.SalaryMin))
	}
	if filter.SalaryMax != nil {
		where = append(where, "salary_max <= "+q.arg(*filter.SalaryMax))
	}
	if filter.Featured != nil {
		where = append(where, "featured = "+q.arg(*filter.Featured))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE `+clause, q.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []Job{}, 0, nil
	}

	page := filter.Page.Normalize()
	query := `SELECT ` + jobColumns + `
FROM jobs
WHERE ` + clause + `
ORDER BY ` + orderBy(filter.Sort, filter.Desc, rank) + `
LIMIT ` + q.arg(page.Limit) + ` OFFSET ` + q.arg(page.Offset())
	jobs, err := r.queryJobs(ctx, query, q.args...)
	return jobs, total, err
}

func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, page paging.Params) ([]Job, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE created_by = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []Job{}, 0, nil
	}
	page = page.Normalize()
	jobs, err := r.queryJobs(ctx, `SELECT `+jobColumns+`
FROM jobs
WHERE created_by = $1
ORDER BY created_at DESC, id ASC
LIMIT $2 OFFSET $3`, ownerID, page.Limit, page.Offset())
	return jobs, total, err
}

func (r *PGRepo) IncrementViews(ctx context.Context, jobID string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE jobs SET views_count = views_count + 1 WHERE id = $1`, jobID)
	return affectedOne(res, err)
}

func (r *PGRepo) AdjustApplicationCount(ctx context.Context, jobID string, delta int) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE jobs
SET applications_count = GREATEST(applications_count + $2, 0)
WHERE id = $1`, jobID, delta)
	return affectedOne(res, err)
}

func (r *PGRepo) SetApplicationCount(ctx context.Context, jobID string, count int) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE jobs
SET applications_count = GREATEST($2, 0)
WHERE id = $1`, jobID, count)
	return affectedOne(res, err)
}

func (r *PGRepo) queryJobs(ctx context.Context, query string, args ...any) ([]Job, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (Job, error) {
	var job Job
	var jobType, category, currency, period string
	var level sql.NullString
	var salaryMin, salaryMax sql.NullFloat64
	var tags pq.StringArray
	var deadline sql.NullTime
	err := s.Scan(
		&job.ID,
		&job.Title,
		&job.Company,
		&job.Description,
		&job.Location,
		&jobType,
		&category,
		&level,
		&salaryMin,
		&salaryMax,
		&currency,
		&period,
		&tags,
		&job.IsActive,
		&job.Featured,
		&deadline,
		&job.ApplicationsCount,
		&job.ViewsCount,
		&job.CreatedBy,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return Job{}, err
	}
	job.Type = EmploymentType(jobType)
	job.Category = Category(category)
	if level.Valid {
		job.ExperienceLevel = ExperienceLevel(level.String)
	}
	job.Salary = Salary{Currency: currency, Period: SalaryPeriod(period)}
	if salaryMin.Valid {
		v := salaryMin.Float64
		job.Salary.Min = &v
	}
	if salaryMax.Valid {
		v := salaryMax.Float64
		job.Salary.Max = &v
	}
	job.Tags = []string(tags)
	if deadline.Valid {
		t := deadline.Time
		job.ApplicationDeadline = &t
	}
	return job, nil
}

type listQuery struct {
	args []any
}

func (q *listQuery) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

func orderBy(field SortField, desc bool, rank string) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	switch field {
	case SortRelevance:
		if rank != "" {
			return rank + " DESC, created_at DESC, id ASC"
		}
		return "created_at DESC, id ASC"
	case SortSalary:
		return "salary_min " + dir + " NULLS LAST, created_at DESC, id ASC"
	case SortApplications:
		return "applications_count " + dir + ", created_at DESC, id ASC"
	default:
		return "created_at " + dir + ", id ASC"
	}
}

func affectedOne(res sql.Result, err error) error {
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

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
