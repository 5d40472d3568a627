package applications

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/shared/apperr"
	"jobboard-backend/internal/shared/identity"
	"jobboard-backend/internal/shared/metrics"
	"jobboard-backend/internal/shared/paging"
	"jobboard-backend/internal/shared/telemetry"
	"jobboard-backend/internal/shared/validation"
	"jobboard-backend/internal/users"
)

// JobCatalog is the slice of the job catalog applications depend on.
type JobCatalog interface {
	Lookup(ctx context.Context, jobID string) (jobs.Job, error)
	LookupMany(ctx context.Context, jobIDs []string) (map[string]jobs.Job, error)
}

type Directory interface {
	Summaries(ctx context.Context, userIDs []string) (map[string]users.Summary, error)
}

type Service struct {
	Repo      Repo
	Jobs      JobCatalog
	Directory Directory
	Now       func() time.Time
}

func NewService(repo Repo, catalog JobCatalog, directory Directory) *Service {
	return &Service{
		Repo:      repo,
		Jobs:      catalog,
		Directory: directory,
		Now:       time.Now,
	}
}

type ApplyInput struct {
	ResumeURL   string `json:"resume" validate:"required,http_url,max=2048"`
	CoverLetter string `json:"coverLetter" validate:"max=2000"`
}

type UpdateStatusInput struct {
	Status Status  `json:"status" validate:"required,enum"`
	Notes  *string `json:"notes" validate:"omitempty,max=1000"`
}

// View is an application joined with the summaries its caller may see.
type View struct {
	Application
	Job       *jobs.Summary
	Applicant *users.Summary
	Reviewer  *users.Summary
}

type Page struct {
	Applications []View
	Meta         paging.Meta
}

type joins struct {
	job    bool
	people bool
}

var fullJoin = joins{job: true, people: true}

func (s *Service) Apply(ctx context.Context, requester identity.Identity, jobID string, in ApplyInput) (View, error) {
	in.ResumeURL = strings.TrimSpace(in.ResumeURL)
	in.CoverLetter = strings.TrimSpace(in.CoverLetter)
	if fields := validation.Struct(in); len(fields) > 0 {
		return View{}, apperr.Validation(fields...)
	}

	job, err := s.Jobs.Lookup(ctx, jobID)
	if err != nil {
		return View{}, err
	}
	if job.CreatedBy == requester.UserID {
		return View{}, apperr.InvalidOperation("cannot apply to your own job")
	}
	if !job.IsActive {
		return View{}, apperr.InvalidOperation("job is no longer accepting applications")
	}
	if !job.AcceptingApplications(s.now()) {
		return View{}, apperr.InvalidOperation("application deadline has passed")
	}

	app := Application{
		ID:          uuid.NewString(),
		JobID:       job.ID,
		ApplicantID: requester.UserID,
		ResumeURL:   in.ResumeURL,
		CoverLetter: in.CoverLetter,
		Status:      StatusPending,
	}
	if err := s.Repo.Create(ctx, app); err != nil {
		switch {
		case errors.Is(err, ErrDuplicate):
			return View{}, apperr.Conflict("you have already applied to this job")
		case errors.Is(err, jobs.ErrNotFound), errors.Is(err, apperr.ErrNotFound):
			return View{}, apperr.NotFound("job not found")
		}
		return View{}, apperr.Unavailable("failed to create application", err)
	}
	metrics.IncApplicationCreated()
	telemetry.Info("application.created", map[string]any{
		"application_id": app.ID,
		"job_id":         app.JobID,
		"user_id":        requester.UserID,
	})

	if stored, err := s.Repo.GetByID(ctx, app.ID); err == nil {
		app = stored
	}
	return s.joinOne(ctx, app, fullJoin)
}

// ListMine pages the requester's own applications, newest first.
func (s *Service) ListMine(ctx context.Context, requester identity.Identity, filter Filter) (Page, error) {
	filter.Page = filter.Page.Normalize()
	apps, total, err := s.Repo.ListByApplicant(ctx, requester.UserID, filter)
	if err != nil {
		return Page{}, apperr.Unavailable("failed to list applications", err)
	}
	views, err := s.join(ctx, apps, joins{job: true})
	if err != nil {
		return Page{}, err
	}
	return Page{Applications: views, Meta: paging.MetaFor(filter.Page, total)}, nil
}

// ListForJob pages a job's applications for its owner or an admin.
func (s *Service) ListForJob(ctx context.Context, requester identity.Identity, jobID string, filter Filter) (Page, error) {
	job, err := s.Jobs.Lookup(ctx, jobID)
	if err != nil {
		return Page{}, err
	}
	if !requester.CanManage(job.CreatedBy) {
		return Page{}, apperr.Forbidden("not allowed to view applications for this job")
	}
	filter.Page = filter.Page.Normalize()
	apps, total, err := s.Repo.ListByJob(ctx, job.ID, filter)
	if err != nil {
		return Page{}, apperr.Unavailable("failed to list applications", err)
	}
	views, err := s.join(ctx, apps, joins{people: true})
	if err != nil {
		return Page{}, err
	}
	return Page{Applications: views, Meta: paging.MetaFor(filter.Page, total)}, nil
}

// GetOne is visible to the applicant, the job's owner and admins.
func (s *Service) GetOne(ctx context.Context, requester identity.Identity, applicationID string) (View, error) {
	app, err := s.load(ctx, applicationID)
	if err != nil {
		return View{}, err
	}
	if app.ApplicantID != requester.UserID && !requester.IsAdmin() {
		job, err := s.Jobs.Lookup(ctx, app.JobID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return View{}, err
		}
		if err != nil || job.CreatedBy != requester.UserID {
			return View{}, apperr.Forbidden("not allowed to view this application")
		}
	}
	return s.joinOne(ctx, app, fullJoin)
}

// UpdateStatus records a review decision. It returns the joined application
// and the status it moved from.
func (s *Service) UpdateStatus(ctx context.Context, requester identity.Identity, applicationID string, in UpdateStatusInput) (View, Status, error) {
	app, err := s.load(ctx, applicationID)
	if err != nil {
		return View{}, "", err
	}
	if !requester.IsAdmin() {
		job, err := s.Jobs.Lookup(ctx, app.JobID)
		if err != nil {
			return View{}, "", err
		}
		if job.CreatedBy != requester.UserID {
			return View{}, "", apperr.Forbidden("not allowed to review this application")
		}
	}
	if in.Notes != nil {
		trimmed := strings.TrimSpace(*in.Notes)
		in.Notes = &trimmed
	}
	if fields := validation.Struct(in); len(fields) > 0 {
		return View{}, "", apperr.Validation(fields...)
	}

	previous := app.Status
	app.Status = in.Status
	if in.Notes != nil {
		app.Notes = *in.Notes
	}
	app.ReviewedBy = requester.UserID
	if app.ReviewedAt == nil && in.Status != StatusPending {
		now := s.now().UTC()
		app.ReviewedAt = &now
	}
	if err := s.Repo.UpdateReview(ctx, app); err != nil {
		if errors.Is(err, ErrNotFound) {
			return View{}, "", apperr.NotFound("application not found")
		}
		return View{}, "", apperr.Unavailable("failed to update application", err)
	}
	metrics.IncStatusChange(string(app.Status))
	telemetry.Info("application.status.changed", map[string]any{
		"application_id": app.ID,
		"job_id":         app.JobID,
		"user_id":        requester.UserID,
		"from":           string(previous),
		"to":             string(app.Status),
	})

	if stored, err := s.Repo.GetByID(ctx, app.ID); err == nil {
		app = stored
	}
	view, err := s.joinOne(ctx, app, fullJoin)
	return view, previous, err
}

// Withdraw lets the applicant pull an application that is not hired or rejected.
func (s *Service) Withdraw(ctx context.Context, requester identity.Identity, applicationID string) error {
	app, err := s.load(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.ApplicantID != requester.UserID {
		return apperr.Forbidden("only the applicant can withdraw this application")
	}
	if !app.Status.Withdrawable() {
		return apperr.InvalidOperation("cannot withdraw an application that is " + string(app.Status))
	}
	if err := s.Repo.Delete(ctx, app.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("application not found")
		}
		return apperr.Unavailable("failed to withdraw application", err)
	}
	metrics.IncApplicationWithdrawn()
	telemetry.Info("application.withdrawn", map[string]any{
		"application_id": app.ID,
		"job_id":         app.JobID,
		"user_id":        requester.UserID,
	})
	return nil
}

func (s *Service) load(ctx context.Context, applicationID string) (Application, error) {
	if strings.TrimSpace(applicationID) == "" {
		return Application{}, apperr.NotFound("application not found")
	}
	app, err := s.Repo.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Application{}, apperr.NotFound("application not found")
		}
		return Application{}, apperr.Unavailable("failed to load application", err)
	}
	return app, nil
}

func (s *Service) joinOne(ctx context.Context, app Application, with joins) (View, error) {
	views, err := s.join(ctx, []Application{app}, with)
	if err != nil {
		return View{}, err
	}
	return views[0], nil
}

// join resolves job and user summaries with one batched lookup each.
func (s *Service) join(ctx context.Context, apps []Application, with joins) ([]View, error) {
	views := make([]View, len(apps))
	if len(apps) == 0 {
		return views, nil
	}

	var jobsByID map[string]jobs.Job
	if with.job {
		ids := make([]string, len(apps))
		for i, app := range apps {
			ids[i] = app.JobID
		}
		var err error
		jobsByID, err = s.Jobs.LookupMany(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	var people map[string]users.Summary
	if with.people && s.Directory != nil {
		ids := make([]string, 0, len(apps)*2)
		for _, app := range apps {
			ids = append(ids, app.ApplicantID)
			if app.ReviewedBy != "" {
				ids = append(ids, app.ReviewedBy)
			}
		}
		var err error
		people, err = s.Directory.Summaries(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	for i, app := range apps {
		view := View{Application: app}
		if job, ok := jobsByID[app.JobID]; ok {
			summary := job.Summary()
			view.Job = &summary
		}
		if p, ok := people[app.ApplicantID]; ok {
			view.Applicant = &p
		}
		if app.ReviewedBy != "" {
			if p, ok := people[app.ReviewedBy]; ok {
				view.Reviewer = &p
			}
		}
		views[i] = view
	}
	return views, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
