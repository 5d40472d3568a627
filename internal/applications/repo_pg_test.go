package applications

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/shared/paging"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateIncrementsCounterInTransaction(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO applications").
		WithArgs("app-1", "job-1", "seeker-1", "https://cv", nil, "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET applications_count = applications_count + 1")).
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), Application{
		ID:          "app-1",
		JobID:       "job-1",
		ApplicantID: "seeker-1",
		ResumeURL:   "https://cv",
		Status:      StatusPending,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateMapsUniquePair(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO applications").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: uniquePairConstraint})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), Application{ID: "app-2", JobID: "job-1", ApplicantID: "seeker-1", Status: StatusPending})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateMapsDeletedJob(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO applications").
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: jobForeignKey})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), Application{ID: "app-3", JobID: "gone", ApplicantID: "seeker-1", Status: StatusPending})
	if !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected jobs.ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteDecrementsCounter(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM applications WHERE id = $1 RETURNING job_id")).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows([]string{"job_id"}).AddRow("job-1"))
	mock.ExpectExec(regexp.QuoteMeta("GREATEST(applications_count - 1, 0)")).
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Delete(context.Background(), "app-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery("DELETE FROM applications").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"job_id"}))
	mock.ExpectRollback()

	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListByJobWithStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM applications WHERE job_id = $1 AND status = $2")).
		WithArgs("job-1", "reviewed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id ASC LIMIT $3 OFFSET $4")).
		WithArgs("job-1", "reviewed", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "job_id", "applicant_id", "resume_url", "cover_letter", "status", "notes",
			"reviewed_at", "reviewed_by", "created_at", "updated_at",
		}).AddRow("app-1", "job-1", "seeker-1", "https://cv", nil, "reviewed", "ok", now, "emp-1", now, now))

	apps, total, err := repo.ListByJob(context.Background(), "job-1", Filter{Status: StatusReviewed, Page: paging.Params{}})
	if err != nil {
		t.Fatalf("ListByJob: %v", err)
	}
	if total != 1 || len(apps) != 1 {
		t.Fatalf("expected 1 application, got %d of %d", len(apps), total)
	}
	app := apps[0]
	if app.ReviewedAt == nil || app.ReviewedBy != "emp-1" || app.Notes != "ok" || app.CoverLetter != "" {
		t.Fatalf("unexpected application: %+v", app)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoStatusesForApplicant(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE applicant_id = $1 AND job_id = ANY($2)")).
		WithArgs("seeker-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "status"}).
			AddRow("job-1", "pending").
			AddRow("job-3", "hired"))

	got, err := repo.StatusesForApplicant(context.Background(), "seeker-1", []string{"job-1", "job-2", "job-3"})
	if err != nil {
		t.Fatalf("StatusesForApplicant: %v", err)
	}
	if len(got) != 2 || got["job-1"] != "pending" || got["job-3"] != "hired" {
		t.Fatalf("unexpected statuses: %v", got)
	}
}
