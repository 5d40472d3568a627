package jobs

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"jobboard-backend/internal/shared/paging"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	jobs map[string]Job
	// Purger drops a deleted job's applications.
	Purger DependentPurger
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{jobs: make(map[string]Job)}
}

func (r *MemoryRepo) Create(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = clone(job)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	return clone(job), nil
}

func (r *MemoryRepo) GetMany(ctx context.Context, jobIDs []string) (map[string]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Job, len(jobIDs))
	for _, id := range jobIDs {
		if job, ok := r.jobs[id]; ok {
			out[id] = clone(job)
		}
	}
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.jobs[job.ID]
	if !ok {
		return ErrNotFound
	}
	// Counters and ownership belong to the stored row.
	job.CreatedBy = cur.CreatedBy
	job.CreatedAt = cur.CreatedAt
	job.ApplicationsCount = cur.ApplicationsCount
	job.ViewsCount = cur.ViewsCount
	job.UpdatedAt = time.Now().UTC()
	r.jobs[job.ID] = clone(job)
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	if _, ok := r.jobs[jobID]; !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.jobs, jobID)
	r.mu.Unlock()

	// The applications store takes its own lock before ours when it moves
	// the counter, so purge after releasing the jobs lock. New applications
	// cannot land in between: their counter increment fails on the missing job.
	if r.Purger != nil {
		if _, err := r.Purger.DeleteByJob(context.WithoutCancel(ctx), jobID); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, filter ListFilter) ([]Job, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	terms := strings.Fields(strings.ToLower(filter.Keyword))
	scores := make(map[string]int)

	r.mu.RLock()
	matched := make([]Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		if !matches(job, filter) {
			continue
		}
		if len(terms) > 0 {
			score, ok := relevance(job, terms)
			if !ok {
				continue
			}
			scores[job.ID] = score
		}
		matched = append(matched, clone(job))
	}
	r.mu.RUnlock()

	sortJobs(matched, filter.Sort, filter.Desc, scores)
	start, end := filter.Page.Window(len(matched))
	return matched[start:end], len(matched), nil
}

func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, page paging.Params) ([]Job, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	owned := make([]Job, 0)
	for _, job := range r.jobs {
		if job.CreatedBy == ownerID {
			owned = append(owned, clone(job))
		}
	}
	r.mu.RUnlock()

	sortJobs(owned, SortCreatedAt, true, nil)
	start, end := page.Window(len(owned))
	return owned[start:end], len(owned), nil
}

func (r *MemoryRepo) IncrementViews(ctx context.Context, jobID string) error {
	return r.mutate(ctx, jobID, func(job *Job) { job.ViewsCount++ })
}

func (r *MemoryRepo) AdjustApplicationCount(ctx context.Context, jobID string, delta int) error {
	return r.mutate(ctx, jobID, func(job *Job) {
		job.ApplicationsCount += delta
		if job.ApplicationsCount < 0 {
			job.ApplicationsCount = 0
		}
	})
}

func (r *MemoryRepo) SetApplicationCount(ctx context.Context, jobID string, count int) error {
	if count < 0 {
		count = 0
	}
	return r.mutate(ctx, jobID, func(job *Job) { job.ApplicationsCount = count })
}

func (r *MemoryRepo) mutate(ctx context.Context, jobID string, fn func(*Job)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	fn(&job)
	r.jobs[jobID] = job
	return nil
}

func matches(job Job, f ListFilter) bool {
	if !job.IsActive {
		return false
	}
	if loc := strings.ToLower(strings.TrimSpace(f.Location)); loc != "" &&
		!strings.Contains(strings.ToLower(job.Location), loc) {
		return false
	}
	if len(f.Types) > 0 && !contains(f.Types, job.Type) {
		return false
	}
	if len(f.Categories) > 0 && !contains(f.Categories, job.Category) {
		return false
	}
	if len(f.Levels) > 0 && !contains(f.Levels, job.ExperienceLevel) {
		return false
	}
	if f.SalaryMin != nil && (job.Salary.Min == nil || *job.Salary.Min < *f.SalaryMin) {
		return false
	}
	if f.SalaryMax != nil && (job.Salary.Max == nil || *job.Salary.Max > *f.SalaryMax) {
		return false
	}
	if f.Featured != nil && job.Featured != *f.Featured {
		return false
	}
	return true
}

// relevance scores a job against every term; a job must match all terms.
func relevance(job Job, terms []string) (int, bool) {
	title := strings.ToLower(job.Title)
	company := strings.ToLower(job.Company)
	description := strings.ToLower(job.Description)
	total := 0
	for _, term := range terms {
		score := 0
		if strings.Contains(title, term) {
			score += 3
		}
		if strings.Contains(company, term) {
			score += 2
		}
		for _, tag := range job.Tags {
			if strings.Contains(tag, term) {
				score += 2
				break
			}
		}
		if strings.Contains(description, term) {
			score++
		}
		if score == 0 {
			return 0, false
		}
		total += score
	}
	return total, true
}

func sortJobs(jobs []Job, field SortField, desc bool, scores map[string]int) {
	newerFirst := func(a, b Job) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		a, b := jobs[i], jobs[j]
		switch field {
		case SortRelevance:
			if scores[a.ID] != scores[b.ID] {
				return scores[a.ID] > scores[b.ID]
			}
			return newerFirst(a, b)
		case SortSalary:
			if (a.Salary.Min == nil) != (b.Salary.Min == nil) {
				return a.Salary.Min != nil
			}
			if a.Salary.Min != nil && *a.Salary.Min != *b.Salary.Min {
				return (*a.Salary.Min < *b.Salary.Min) != desc
			}
			return newerFirst(a, b)
		case SortApplications:
			if a.ApplicationsCount != b.ApplicationsCount {
				return (a.ApplicationsCount < b.ApplicationsCount) != desc
			}
			return newerFirst(a, b)
		default:
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID < b.ID
			}
			return a.CreatedAt.Before(b.CreatedAt) != desc
		}
	})
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func clone(job Job) Job {
	job.Tags = append([]string(nil), job.Tags...)
	if job.ApplicationDeadline != nil {
		d := *job.ApplicationDeadline
		job.ApplicationDeadline = &d
	}
	if job.Salary.Min != nil {
		v := *job.Salary.Min
		job.Salary.Min = &v
	}
	if job.Salary.Max != nil {
		v := *job.Salary.Max
		job.Salary.Max = &v
	}
	return job
}
