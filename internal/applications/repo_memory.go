package applications

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/shared/apperr"
)

// CounterAdjuster moves a job's applicationsCount.
type CounterAdjuster interface {
	AdjustApplicationCount(ctx context.Context, jobID string, delta int) error
}

type pairKey struct {
	jobID       string
	applicantID string
}

// MemoryRepo keeps applications in process. The (job, applicant) pair is
// unique; the check and insert share one critical section.
type MemoryRepo struct {
	mu     sync.RWMutex
	apps   map[string]Application
	byPair map[pairKey]string
	// Counter, when set, is moved inside the same critical section as the
	// insert or delete.
	Counter CounterAdjuster
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		apps:   make(map[string]Application),
		byPair: make(map[pairKey]string),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := pairKey{jobID: app.JobID, applicantID: app.ApplicantID}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byPair[key]; ok {
		return ErrDuplicate
	}
	if r.Counter != nil {
		if err := r.Counter.AdjustApplicationCount(ctx, app.JobID, 1); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	r.apps[app.ID] = app
	r.byPair[key] = app.ID
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, applicationID string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[applicationID]
	if !ok {
		return Application{}, ErrNotFound
	}
	return cloneApp(app), nil
}

func (r *MemoryRepo) UpdateReview(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.apps[app.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Status = app.Status
	cur.Notes = app.Notes
	cur.ReviewedBy = app.ReviewedBy
	cur.ReviewedAt = app.ReviewedAt
	cur.UpdatedAt = time.Now().UTC()
	r.apps[app.ID] = cur
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, applicationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[applicationID]
	if !ok {
		return ErrNotFound
	}
	if r.Counter != nil {
		err := r.Counter.AdjustApplicationCount(ctx, app.JobID, -1)
		if err != nil && !jobGone(err) {
			return err
		}
	}
	delete(r.apps, applicationID)
	delete(r.byPair, pairKey{jobID: app.JobID, applicantID: app.ApplicantID})
	return nil
}

func (r *MemoryRepo) ListByApplicant(ctx context.Context, applicantID string, filter Filter) ([]Application, int, error) {
	return r.list(ctx, filter, func(a Application) bool { return a.ApplicantID == applicantID })
}

func (r *MemoryRepo) ListByJob(ctx context.Context, jobID string, filter Filter) ([]Application, int, error) {
	return r.list(ctx, filter, func(a Application) bool { return a.JobID == jobID })
}

func (r *MemoryRepo) StatusesForApplicant(ctx context.Context, applicantID string, jobIDs []string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string)
	for _, jobID := range jobIDs {
		if id, ok := r.byPair[pairKey{jobID: jobID, applicantID: applicantID}]; ok {
			out[jobID] = string(r.apps[id].Status)
		}
	}
	return out, nil
}

func (r *MemoryRepo) CountByJob(ctx context.Context, jobID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, app := range r.apps {
		if app.JobID == jobID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) DeleteByJob(ctx context.Context, jobID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, app := range r.apps {
		if app.JobID != jobID {
			continue
		}
		delete(r.apps, id)
		delete(r.byPair, pairKey{jobID: app.JobID, applicantID: app.ApplicantID})
		n++
	}
	return n, nil
}

func (r *MemoryRepo) list(ctx context.Context, filter Filter, keep func(Application) bool) ([]Application, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	matched := make([]Application, 0)
	for _, app := range r.apps {
		if !keep(app) {
			continue
		}
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		matched = append(matched, cloneApp(app))
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	start, end := filter.Page.Window(len(matched))
	return matched[start:end], len(matched), nil
}

// jobGone reports a counter failure caused by the job having been deleted.
func jobGone(err error) bool {
	return errors.Is(err, jobs.ErrNotFound) || errors.Is(err, apperr.ErrNotFound)
}

func cloneApp(app Application) Application {
	if app.ReviewedAt != nil {
		t := *app.ReviewedAt
		app.ReviewedAt = &t
	}
	return app
}
