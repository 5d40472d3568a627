package jobs

import (
	"context"
	"errors"

	"jobboard-backend/internal/shared/paging"
)

var ErrNotFound = errors.New("job not found")

type SortField string

const (
	SortCreatedAt    SortField = "createdAt"
	SortSalary       SortField = "salary"
	SortApplications SortField = "applicationsCount"
	SortRelevance    SortField = "relevance"
)

func (s SortField) Valid() bool {
	switch s {
	case SortCreatedAt, SortSalary, SortApplications, SortRelevance:
		return true
	}
	return false
}

// ListFilter narrows the public listing. Empty sets and nil bounds do not
// filter. Only active postings are ever listed.
type ListFilter struct {
	Keyword    string
	Location   string
	Types      []EmploymentType
	Categories []Category
	Levels     []ExperienceLevel
	SalaryMin  *float64
	SalaryMax  *float64
	Featured   *bool
	Sort       SortField
	Desc       bool
	Page       paging.Params
}

type Repo interface {
	Create(ctx context.Context, job Job) error
	GetByID(ctx context.Context, jobID string) (Job, error)
	GetMany(ctx context.Context, jobIDs []string) (map[string]Job, error)
	Update(ctx context.Context, job Job) error
	// Delete removes the job and every application against it as one unit.
	Delete(ctx context.Context, jobID string) error
	List(ctx context.Context, filter ListFilter) ([]Job, int, error)
	ListByOwner(ctx context.Context, ownerID string, page paging.Params) ([]Job, int, error)
	IncrementViews(ctx context.Context, jobID string) error
	// AdjustApplicationCount adds delta, never letting the count drop below zero.
	AdjustApplicationCount(ctx context.Context, jobID string, delta int) error
	SetApplicationCount(ctx context.Context, jobID string, count int) error
}

// DependentPurger drops the applications that belong to a job.
type DependentPurger interface {
	DeleteByJob(ctx context.Context, jobID string) (int, error)
}
