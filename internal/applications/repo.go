package applications

import (
	"context"
	"errors"

	"jobboard-backend/internal/shared/paging"
)

var (
	ErrNotFound  = errors.New("application not found")
	ErrDuplicate = errors.New("application already exists for this job")
)

// Filter narrows a listing. An empty Status matches every status.
type Filter struct {
	Status Status
	Page   paging.Params
}

type Repo interface {
	// Create stores app and increments its job's applicationsCount as one
	// unit. A second application for the same job and applicant fails with
	// ErrDuplicate.
	Create(ctx context.Context, app Application) error
	GetByID(ctx context.Context, applicationID string) (Application, error)
	// UpdateReview persists status, notes and the reviewer fields.
	UpdateReview(ctx context.Context, app Application) error
	// Delete removes the application and decrements its job's counter as one unit.
	Delete(ctx context.Context, applicationID string) error
	ListByApplicant(ctx context.Context, applicantID string, filter Filter) ([]Application, int, error)
	ListByJob(ctx context.Context, jobID string, filter Filter) ([]Application, int, error)
	StatusesForApplicant(ctx context.Context, applicantID string, jobIDs []string) (map[string]string, error)
	CountByJob(ctx context.Context, jobID string) (int, error)
	DeleteByJob(ctx context.Context, jobID string) (int, error)
}
