package applications

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/shared/apperr"
	"jobboard-backend/internal/shared/identity"
	"jobboard-backend/internal/shared/paging"
	"jobboard-backend/internal/users"
)

var (
	owner     = identity.Identity{UserID: "emp-1", Role: identity.RoleEmployer}
	rival     = identity.Identity{UserID: "emp-2", Role: identity.RoleEmployer}
	admin     = identity.Identity{UserID: "admin-1", Role: identity.RoleAdmin}
	seeker    = identity.Identity{UserID: "seeker-1", Role: identity.RoleJobSeeker}
	bystander = identity.Identity{UserID: "seeker-2", Role: identity.RoleJobSeeker}
)

type testEnv struct {
	svc      *Service
	catalog  *jobs.Service
	jobsRepo *jobs.MemoryRepo
	appsRepo *MemoryRepo
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	userRepo := users.NewMemoryRepo()
	for _, id := range []identity.Identity{owner, rival, admin, seeker, bystander} {
		require.NoError(t, userRepo.Create(context.Background(), users.User{
			ID:    id.UserID,
			Name:  "User " + id.UserID,
			Email: id.UserID + "@example.com",
			Role:  id.Role,
		}))
	}
	directory := users.NewService(userRepo, nil)

	jobsRepo := jobs.NewMemoryRepo()
	appsRepo := NewMemoryRepo()
	catalog := jobs.NewService(jobsRepo, directory, appsRepo)
	appsRepo.Counter = catalog
	jobsRepo.Purger = appsRepo

	env := &testEnv{
		catalog:  catalog,
		jobsRepo: jobsRepo,
		appsRepo: appsRepo,
		now:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	env.svc = NewService(appsRepo, catalog, directory)
	env.svc.Now = func() time.Time { return env.now }
	return env
}

func (e *testEnv) postJob(t *testing.T, mutate func(*jobs.CreateInput)) string {
	t.Helper()
	in := jobs.CreateInput{
		Title:       "Backend Engineer",
		Company:     "Acme",
		Description: strings.Repeat("Ship and operate Go services. ", 3),
		Location:    "Lisbon",
		Type:        jobs.TypeFullTime,
		Category:    jobs.CategoryEngineering,
	}
	if mutate != nil {
		mutate(&in)
	}
	view, err := e.catalog.Create(context.Background(), owner, in)
	require.NoError(t, err)
	return view.ID
}

func (e *testEnv) count(t *testing.T, jobID string) int {
	t.Helper()
	job, err := e.jobsRepo.GetByID(context.Background(), jobID)
	require.NoError(t, err)
	return job.ApplicationsCount
}

func validApply() ApplyInput {
	return ApplyInput{ResumeURL: "https://files.example.com/cv.pdf", CoverLetter: "Hello"}
}

func TestApplyCreatesPendingApplication(t *testing.T) {
	env := newTestEnv(t)
	jobID := env.postJob(t, nil)

	view, err := env.svc.Apply(context.Background(), seeker, jobID, validApply())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, view.Status)
	assert.Equal(t, seeker.UserID, view.ApplicantID)
	assert.Nil(t, view.ReviewedAt)
	require.NotNil(t, view.Job)
	assert.Equal(t, jobID, view.Job.ID)
	require.NotNil(t, view.Applicant)
	assert.Equal(t, "User seeker-1", view.Applicant.Name)
	assert.Equal(t, 1, env.count(t, jobID))
}

func TestApplyTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	jobID := env.postJob(t, nil)

	_, err := env.svc.Apply(context.Background(), seeker, jobID, validApply())
	require.NoError(t, err)
	_, err = env.svc.Apply(context.Background(), seeker, jobID, validApply())
	assert.True(t, errors.Is(err, apperr.ErrConflict))
	assert.Equal(t, 1, env.count(t, jobID))
}

func TestConcurrentApplyStoresOneApplication(t *testing.T) {
	env := newTestEnv(t)
	jobID := env.postJob(t, nil)

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, conflicted := 0, 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Apply(context.Background(), seeker, jobID, validApply())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperr.ErrConflict):
				conflicted++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicted)
	assert.Equal(t, 1, env.count(t, jobID))
}

func TestApplyRejectsClosedJobs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	open := env.postJob(t, nil)
	inactive := env.postJob(t, func(in *jobs.CreateInput) {
		closed := false
		in.IsActive = &closed
	})
	expired := env.postJob(t, func(in *jobs.CreateInput) {
		past := env.now.Add(-time.Hour)
		in.ApplicationDeadline = &past
	})

	_, err := env.svc.Apply(ctx, owner, open, validApply())
	assert.True(t, errors.Is(err, apperr.ErrInvalidOperation), "own job")
	_, err = env.svc.Apply(ctx, seeker, inactive, validApply())
	assert.True(t, errors.Is(err, apperr.ErrInvalidOperation), "inactive job")
	_, err = env.svc.Apply(ctx, seeker, expired, validApply())
	assert.True(t, errors.Is(err, apperr.ErrInvalidOperation), "past deadline")
	_, err = env.svc.Apply(ctx, seeker, "missing", validApply())
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = env.svc.Apply(ctx, rival, open, validApply())
	assert.NoError(t, err, "employers may apply to other postings")
}

func TestApplyToOwnJobFailsWhateverItsState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inactive := env.postJob(t, func(in *jobs.CreateInput) {
		closed := false
		in.IsActive = &closed
	})
	expired := env.postJob(t, func(in *jobs.CreateInput) {
		past := env.now.Add(-time.Hour)
		in.ApplicationDeadline = &past
	})
	jobIDs := map[string]string{
		"open":     env.postJob(t, nil),
		"inactive": inactive,
		"expired":  expired,
	}

	for state, jobID := range jobIDs {
		_, err := env.svc.Apply(ctx, owner, jobID, validApply())
		assert.True(t, errors.Is(err, apperr.ErrInvalidOperation), "%s job", state)
		assert.Equal(t, 0, env.count(t, jobID), "%s job counter", state)
	}
}

func TestApplyValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	jobID := env.postJob(t, nil)

	_, err := env.svc.Apply(context.Background(), seeker, jobID, ApplyInput{
		ResumeURL:   "ftp://files.example.com/cv.pdf",
		CoverLetter: strings.Repeat("x", 2001),
	})
	require.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Len(t, apperr.FieldsOf(err), 2)
	assert.Equal(t, 0, env.count(t, jobID))
}

func TestWithdraw(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jobID := env.postJob(t, nil)
	view, err := env.svc.Apply(ctx, seeker, jobID, validApply())
	require.NoError(t, err)

	err = env.svc.Withdraw(ctx, bystander, view.ID)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	err = env.svc.Withdraw(ctx, owner, view.ID)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	require.NoError(t, env.svc.Withdraw(ctx, seeker, view.ID))
	assert.Equal(t, 0, env.count(t, jobID))
	_, err = env.svc.GetOne(ctx, seeker, view.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	err = env.svc.Withdraw(ctx, seeker, view.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestWithdrawBlockedForHiredAndRejected(t *testing.T) {
	for _, status := range []Status{StatusHired, StatusRejected} {
		t.Run(string(status), func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			jobID := env.postJob(t, nil)
			view, err := env.svc.Apply(ctx, seeker, jobID, validApply())
			require.NoError(t, err)
			_, _, err = env.svc.UpdateStatus(ctx, owner, view.ID, UpdateStatusInput{Status: status})
			require.NoError(t, err)

			err = env.svc.Withdraw(ctx, seeker, view.ID)
			assert.True(t, errors.Is(err, apperr.ErrInvalidOperation))
			assert.Equal(t, 1, env.count(t, jobID))
		})
	}
}

func TestUpdateStatusSetsReviewedAtOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jobID := env.postJob(t, nil)
	view, err := env.svc.Apply(ctx, seeker, jobID, validApply())
	require.NoError(t, err)
	first := env.now

	notes := "  strong portfolio "
	reviewed, previous, err := env.svc.UpdateStatus(ctx, owner, view.ID, UpdateStatusInput{Status: StatusReviewed, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, previous)
	require.NotNil(t, reviewed.ReviewedAt)
	assert.True(t, reviewed.ReviewedAt.Equal(first))
	assert.Equal(t, "strong portfolio", reviewed.Notes)
	require.NotNil(t, reviewed.Reviewer)
	assert.Equal(t, owner.UserID, reviewed.Reviewer.ID)

	env.now = env.now.Add(48 * time.Hour)
	shortlisted, _, err := env.svc.UpdateStatus(ctx, admin, view.ID, UpdateStatusInput{Status: StatusShortlisted})
	require.NoError(t, err)
	assert.True(t, shortlisted.ReviewedAt.Equal(first))
	assert.Equal(t, admin.UserID, shortlisted.ReviewedBy)
	assert.Equal(t, "strong portfolio", shortlisted.Notes)
}

func TestUpdateStatusLeavesReviewedAtUnsetForPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jobID := env.postJob(t, nil)
	view, err := env.svc.Apply(ctx, seeker, jobID, validApply())
	require.NoError(t, err)

	updated, _, err := env.svc.UpdateStatus(ctx, owner, view.ID, UpdateStatusInput{Status: StatusPending})
	require.NoError(t, err)
	assert.Nil(t, updated.ReviewedAt)
	assert.Equal(t, owner.UserID, updated.ReviewedBy)
}

func TestUpdateStatusAuthorizationAndEnum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jobID := env.postJob(t, nil)
	view, err := env.svc.Apply(ctx, seeker, jobID, validApply())
	require.NoError(t, err)

	_, _, err = env.svc.UpdateStatus(ctx, rival, view.ID, UpdateStatusInput{Status: StatusReviewed})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	_, _, err = env.svc.UpdateStatus(ctx, seeker, view.ID, UpdateStatusInput{Status: StatusHired})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	_, _, err = env.svc.UpdateStatus(ctx, owner, view.ID, UpdateStatusInput{Status: "archived"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	_, _, err = env.svc.UpdateStatus(ctx, owner, "missing", UpdateStatusInput{Status: StatusReviewed})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestUpdateStatusCanReopenTerminalApplication(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jobID := env.postJob(t, nil)
	view, err := env.svc.Apply(ctx, seeker, jobID, validApply())
	require.NoError(t, err)

	_, _, err = env.svc.UpdateStatus(ctx, owner, view.ID, UpdateStatusInput{Status: StatusRejected})
	require.NoError(t, err)
	reopened, previous, err := env.svc.UpdateStatus(ctx, owner, view.ID, UpdateStatusInput{Status: StatusInterviewed})
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, previous)
	assert.Equal(t, StatusInterviewed, reopened.Status)
	require.NoError(t, env.svc.Withdraw(ctx, seeker, view.ID))
}

func TestGetOneAuthorization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jobID := env.postJob(t, nil)
	view, err := env.svc.Apply(ctx, seeker, jobID, validApply())
	require.NoError(t, err)

	for _, who := range []identity.Identity{seeker, owner, admin} {
		got, err := env.svc.GetOne(ctx, who, view.ID)
		require.NoError(t, err, who.UserID)
		assert.Equal(t, view.ID, got.ID)
		require.NotNil(t, got.Job)
	}
	for _, who := range []identity.Identity{bystander, rival} {
		_, err := env.svc.GetOne(ctx, who, view.ID)
		assert.True(t, errors.Is(err, apperr.ErrForbidden), who.UserID)
	}
}

func TestListForJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jobID := env.postJob(t, nil)
	first, err := env.svc.Apply(ctx, seeker, jobID, validApply())
	require.NoError(t, err)
	env.appsRepo.mu.Lock()
	app := env.appsRepo.apps[first.ID]
	app.CreatedAt = app.CreatedAt.Add(-time.Minute)
	env.appsRepo.apps[first.ID] = app
	env.appsRepo.mu.Unlock()
	second, err := env.svc.Apply(ctx, bystander, jobID, validApply())
	require.NoError(t, err)
	_, _, err = env.svc.UpdateStatus(ctx, owner, first.ID, UpdateStatusInput{Status: StatusShortlisted})
	require.NoError(t, err)

	_, err = env.svc.ListForJob(ctx, rival, jobID, Filter{})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	_, err = env.svc.ListForJob(ctx, owner, "missing", Filter{})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	page, err := env.svc.ListForJob(ctx, owner, jobID, Filter{})
	require.NoError(t, err)
	require.Len(t, page.Applications, 2)
	assert.Equal(t, second.ID, page.Applications[0].ID, "newest first")
	assert.Equal(t, 2, page.Meta.Total)
	require.NotNil(t, page.Applications[1].Applicant)
	require.NotNil(t, page.Applications[1].Reviewer)
	assert.Equal(t, owner.UserID, page.Applications[1].Reviewer.ID)

	filtered, err := env.svc.ListForJob(ctx, admin, jobID, Filter{Status: StatusShortlisted})
	require.NoError(t, err)
	require.Len(t, filtered.Applications, 1)
	assert.Equal(t, first.ID, filtered.Applications[0].ID)
}

func TestListMineJoinsJobSummaries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jobA := env.postJob(t, nil)
	jobB := env.postJob(t, func(in *jobs.CreateInput) { in.Title = "Data Engineer" })
	_, err := env.svc.Apply(ctx, seeker, jobA, validApply())
	require.NoError(t, err)
	_, err = env.svc.Apply(ctx, seeker, jobB, validApply())
	require.NoError(t, err)
	_, err = env.svc.Apply(ctx, bystander, jobB, validApply())
	require.NoError(t, err)

	page, err := env.svc.ListMine(ctx, seeker, Filter{Page: paging.Params{Page: 1, Limit: 1}})
	require.NoError(t, err)
	assert.Len(t, page.Applications, 1)
	assert.Equal(t, paging.Meta{CurrentPage: 1, TotalPages: 2, Total: 2, Limit: 1}, page.Meta)
	require.NotNil(t, page.Applications[0].Job)
	assert.Nil(t, page.Applications[0].Applicant)
}

func TestDeletingJobCascadesToApplications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jobID := env.postJob(t, nil)
	a, err := env.svc.Apply(ctx, seeker, jobID, validApply())
	require.NoError(t, err)
	b, err := env.svc.Apply(ctx, bystander, jobID, validApply())
	require.NoError(t, err)

	require.NoError(t, env.catalog.Delete(ctx, owner, jobID))

	for _, id := range []string{a.ID, b.ID} {
		_, err := env.svc.GetOne(ctx, seeker, id)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	}
	n, err := env.appsRepo.CountByJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestJobListingAnnotatesApplicantStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	applied := env.postJob(t, nil)
	env.postJob(t, nil)
	_, err := env.svc.Apply(ctx, seeker, applied, validApply())
	require.NoError(t, err)

	page, err := env.catalog.List(ctx, jobs.ListFilter{}, &seeker)
	require.NoError(t, err)
	require.Len(t, page.Jobs, 2)
	for _, v := range page.Jobs {
		assert.True(t, v.Annotated)
		if v.ID == applied {
			assert.Equal(t, string(StatusPending), v.MyApplicationStatus)
			assert.Equal(t, 1, v.ApplicationsCount)
		} else {
			assert.Empty(t, v.MyApplicationStatus)
		}
	}
}
