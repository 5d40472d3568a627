package jobs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobboard-backend/internal/shared/apperr"
	"jobboard-backend/internal/shared/identity"
	"jobboard-backend/internal/shared/metrics"
	"jobboard-backend/internal/shared/paging"
	"jobboard-backend/internal/shared/telemetry"
	"jobboard-backend/internal/users"
)

// Directory resolves poster summaries in one batch.
type Directory interface {
	Summaries(ctx context.Context, userIDs []string) (map[string]users.Summary, error)
}

// ApplicationIndex answers application questions without the jobs package
// depending on the applications package.
type ApplicationIndex interface {
	// StatusesForApplicant maps job id to the applicant's application status
	// for those of jobIDs the applicant applied to.
	StatusesForApplicant(ctx context.Context, applicantID string, jobIDs []string) (map[string]string, error)
	CountByJob(ctx context.Context, jobID string) (int, error)
}

type Service struct {
	Repo         Repo
	Directory    Directory
	Applications ApplicationIndex
	Now          func() time.Time
}

func NewService(repo Repo, directory Directory, applications ApplicationIndex) *Service {
	return &Service{
		Repo:         repo,
		Directory:    directory,
		Applications: applications,
		Now:          time.Now,
	}
}

// View is a job as returned to a particular requester.
type View struct {
	Job
	PostedBy *users.Summary
	// Annotated is true when the requester is a job seeker; MyApplicationStatus
	// is then their status on this job, or empty if they have not applied.
	Annotated           bool
	MyApplicationStatus string
}

type Page struct {
	Jobs []View
	Meta paging.Meta
}

func (s *Service) List(ctx context.Context, filter ListFilter, requester *identity.Identity) (Page, error) {
	filter.Page = filter.Page.Normalize()
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	switch {
	case filter.Sort == "" && filter.Keyword != "":
		filter.Sort = SortRelevance
	case filter.Sort == "" || (filter.Sort == SortRelevance && filter.Keyword == ""):
		filter.Sort = SortCreatedAt
		filter.Desc = true
	}

	jobs, total, err := s.Repo.List(ctx, filter)
	if err != nil {
		return Page{}, apperr.Unavailable("failed to list jobs", err)
	}
	views, err := s.decorate(ctx, jobs, requester)
	if err != nil {
		return Page{}, err
	}
	return Page{Jobs: views, Meta: paging.MetaFor(filter.Page, total)}, nil
}

// Get returns an active job and counts the view. Inactive jobs are not
// visible here to anyone.
func (s *Service) Get(ctx context.Context, jobID string, requester *identity.Identity) (View, error) {
	job, err := s.load(ctx, jobID)
	if err != nil {
		return View{}, err
	}
	if !job.IsActive {
		return View{}, apperr.NotFound("job not found")
	}
	if err := s.Repo.IncrementViews(ctx, job.ID); err != nil {
		metrics.IncViewIncrementFailure()
		telemetry.Warn("job.views.increment_failed", map[string]any{
			"job_id": job.ID,
			"error":  err,
		})
	} else {
		job.ViewsCount++
	}
	return s.decorateOne(ctx, job, requester)
}

func (s *Service) Create(ctx context.Context, requester identity.Identity, in CreateInput) (View, error) {
	if !requester.IsEmployerOrAdmin() {
		return View{}, apperr.Forbidden("only employers can post jobs")
	}
	job := in.toJob()
	if err := Validate(job); err != nil {
		return View{}, err
	}
	job.ID = uuid.NewString()
	job.CreatedBy = requester.UserID
	if err := s.Repo.Create(ctx, job); err != nil {
		return View{}, apperr.Unavailable("failed to create job", err)
	}
	if created, err := s.Repo.GetByID(ctx, job.ID); err == nil {
		job = created
	}
	telemetry.Info("job.created", map[string]any{
		"job_id":  job.ID,
		"user_id": requester.UserID,
	})
	return s.decorateOne(ctx, job, &requester)
}

func (s *Service) Update(ctx context.Context, requester identity.Identity, jobID string, in UpdateInput) (View, error) {
	job, err := s.loadManaged(ctx, requester, jobID)
	if err != nil {
		return View{}, err
	}
	merged := in.apply(job)
	if err := Validate(merged); err != nil {
		return View{}, err
	}
	if err := s.Repo.Update(ctx, merged); err != nil {
		if errors.Is(err, ErrNotFound) {
			return View{}, apperr.NotFound("job not found")
		}
		return View{}, apperr.Unavailable("failed to update job", err)
	}
	updated, err := s.load(ctx, jobID)
	if err != nil {
		return View{}, err
	}
	return s.decorateOne(ctx, updated, &requester)
}

// Delete removes the job together with all of its applications.
func (s *Service) Delete(ctx context.Context, requester identity.Identity, jobID string) error {
	if _, err := s.loadManaged(ctx, requester, jobID); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, jobID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("job not found")
		}
		return apperr.Unavailable("failed to delete job", err)
	}
	telemetry.Info("job.deleted", map[string]any{
		"job_id":  jobID,
		"user_id": requester.UserID,
	})
	return nil
}

// ListMine returns every job the requester posted, active or not.
func (s *Service) ListMine(ctx context.Context, requester identity.Identity, page paging.Params) (Page, error) {
	if !requester.IsEmployerOrAdmin() {
		return Page{}, apperr.Forbidden("only employers have postings")
	}
	page = page.Normalize()
	jobs, total, err := s.Repo.ListByOwner(ctx, requester.UserID, page)
	if err != nil {
		return Page{}, apperr.Unavailable("failed to list jobs", err)
	}
	views, err := s.decorate(ctx, jobs, &requester)
	if err != nil {
		return Page{}, err
	}
	return Page{Jobs: views, Meta: paging.MetaFor(page, total)}, nil
}

// Lookup returns a job regardless of its active flag.
func (s *Service) Lookup(ctx context.Context, jobID string) (Job, error) {
	return s.load(ctx, jobID)
}

// LookupMany returns the jobs that exist among jobIDs.
func (s *Service) LookupMany(ctx context.Context, jobIDs []string) (map[string]Job, error) {
	ids := dedupe(jobIDs)
	if len(ids) == 0 {
		return map[string]Job{}, nil
	}
	out, err := s.Repo.GetMany(ctx, ids)
	if err != nil {
		return nil, apperr.Unavailable("failed to load jobs", err)
	}
	return out, nil
}

// AdjustApplicationCount moves the denormalized counter by delta, clamped at zero.
func (s *Service) AdjustApplicationCount(ctx context.Context, jobID string, delta int) error {
	if err := s.Repo.AdjustApplicationCount(ctx, jobID, delta); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("job not found")
		}
		metrics.IncCounterAdjustFailure()
		telemetry.Warn("job.applications_count.adjust_failed", map[string]any{
			"job_id": jobID,
			"delta":  delta,
			"error":  err,
		})
		return apperr.Unavailable("failed to adjust application count", err)
	}
	return nil
}

// ReconcileApplicationCount resets the counter to the number of stored
// applications for the job.
func (s *Service) ReconcileApplicationCount(ctx context.Context, requester identity.Identity, jobID string) (View, error) {
	job, err := s.loadManaged(ctx, requester, jobID)
	if err != nil {
		return View{}, err
	}
	if s.Applications == nil {
		return View{}, apperr.Unavailable("application index not configured", nil)
	}
	count, err := s.Applications.CountByJob(ctx, jobID)
	if err != nil {
		return View{}, apperr.Unavailable("failed to count applications", err)
	}
	if err := s.Repo.SetApplicationCount(ctx, jobID, count); err != nil {
		return View{}, apperr.Unavailable("failed to reconcile application count", err)
	}
	if count != job.ApplicationsCount {
		telemetry.Info("job.applications_count.reconciled", map[string]any{
			"job_id": jobID,
			"from":   job.ApplicationsCount,
			"to":     count,
		})
	}
	job.ApplicationsCount = count
	return s.decorateOne(ctx, job, &requester)
}

func (s *Service) load(ctx context.Context, jobID string) (Job, error) {
	if strings.TrimSpace(jobID) == "" {
		return Job{}, apperr.NotFound("job not found")
	}
	job, err := s.Repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Job{}, apperr.NotFound("job not found")
		}
		return Job{}, apperr.Unavailable("failed to load job", err)
	}
	return job, nil
}

func (s *Service) loadManaged(ctx context.Context, requester identity.Identity, jobID string) (Job, error) {
	job, err := s.load(ctx, jobID)
	if err != nil {
		return Job{}, err
	}
	if !requester.CanManage(job.CreatedBy) {
		return Job{}, apperr.Forbidden("not allowed to manage this job")
	}
	return job, nil
}

func (s *Service) decorateOne(ctx context.Context, job Job, requester *identity.Identity) (View, error) {
	views, err := s.decorate(ctx, []Job{job}, requester)
	if err != nil {
		return View{}, err
	}
	return views[0], nil
}

// decorate joins poster summaries and, for job seekers, their application
// status, with one batched lookup each.
func (s *Service) decorate(ctx context.Context, jobs []Job, requester *identity.Identity) ([]View, error) {
	views := make([]View, len(jobs))
	if len(jobs) == 0 {
		return views, nil
	}
	jobIDs := make([]string, len(jobs))
	ownerIDs := make([]string, len(jobs))
	for i, job := range jobs {
		jobIDs[i] = job.ID
		ownerIDs[i] = job.CreatedBy
	}

	var posters map[string]users.Summary
	if s.Directory != nil {
		var err error
		posters, err = s.Directory.Summaries(ctx, ownerIDs)
		if err != nil {
			return nil, err
		}
	}

	annotate := requester != nil && requester.IsJobSeeker() && s.Applications != nil
	var statuses map[string]string
	if annotate {
		var err error
		statuses, err = s.Applications.StatusesForApplicant(ctx, requester.UserID, jobIDs)
		if err != nil {
			return nil, apperr.Unavailable("failed to load application statuses", err)
		}
	}

	for i, job := range jobs {
		view := View{Job: job, Annotated: annotate}
		if p, ok := posters[job.CreatedBy]; ok {
			view.PostedBy = &p
		}
		if annotate {
			view.MyApplicationStatus = statuses[job.ID]
		}
		views[i] = view
	}
	return views, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
