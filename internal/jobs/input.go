package jobs

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"jobboard-backend/internal/shared/apperr"
	"jobboard-backend/internal/shared/validation"
)

type SalaryInput struct {
	Min      *float64     `json:"min"`
	Max      *float64     `json:"max"`
	Currency string       `json:"currency"`
	Period   SalaryPeriod `json:"period"`
}

// CreateInput is the payload for a new posting. Counters and ownership are
// never taken from the caller.
type CreateInput struct {
	Title               string          `json:"title"`
	Company             string          `json:"company"`
	Description         string          `json:"description"`
	Location            string          `json:"location"`
	Type                EmploymentType  `json:"type"`
	Category            Category        `json:"category"`
	ExperienceLevel     ExperienceLevel `json:"experienceLevel"`
	Salary              *SalaryInput    `json:"salary"`
	Tags                []string        `json:"tags"`
	IsActive            *bool           `json:"isActive"`
	Featured            bool            `json:"featured"`
	ApplicationDeadline *time.Time      `json:"applicationDeadline"`
}

// Nullable tells an absent JSON key apart from an explicit null. Set is true
// whenever the key was present; Value is nil when it was null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Null clears the field.
func Null[T any]() Nullable[T] { return Nullable[T]{Set: true} }

// Value sets the field to v.
func Value[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: &v} }

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// SalaryUpdate changes salary bounds; a null bound clears it.
type SalaryUpdate struct {
	Min      Nullable[float64] `json:"min"`
	Max      Nullable[float64] `json:"max"`
	Currency string            `json:"currency"`
	Period   SalaryPeriod      `json:"period"`
}

// UpdateInput lists the fields an owner may change. Anything absent from
// this struct (createdBy, counters, timestamps) is dropped on decode.
// experienceLevel, applicationDeadline and salary bounds accept null to
// clear them.
type UpdateInput struct {
	Title               *string                   `json:"title"`
	Company             *string                   `json:"company"`
	Description         *string                   `json:"description"`
	Location            *string                   `json:"location"`
	Type                *EmploymentType           `json:"type"`
	Category            *Category                 `json:"category"`
	ExperienceLevel     Nullable[ExperienceLevel] `json:"experienceLevel"`
	Salary              *SalaryUpdate             `json:"salary"`
	Tags                *[]string                 `json:"tags"`
	IsActive            *bool                     `json:"isActive"`
	Featured            *bool                     `json:"featured"`
	ApplicationDeadline Nullable[time.Time]       `json:"applicationDeadline"`
}

func (in CreateInput) toJob() Job {
	job := Job{
		Title:               strings.TrimSpace(in.Title),
		Company:             strings.TrimSpace(in.Company),
		Description:         strings.TrimSpace(in.Description),
		Location:            strings.TrimSpace(in.Location),
		Type:                in.Type,
		Category:            in.Category,
		ExperienceLevel:     in.ExperienceLevel,
		Tags:                NormalizeTags(in.Tags),
		IsActive:            true,
		Featured:            in.Featured,
		ApplicationDeadline: in.ApplicationDeadline,
		Salary:              Salary{Currency: defaultCurrency, Period: defaultPeriod},
	}
	if in.IsActive != nil {
		job.IsActive = *in.IsActive
	}
	if in.Salary != nil {
		job.Salary = mergeSalary(job.Salary, *in.Salary)
	}
	return job
}

// apply merges the provided fields into job.
func (in UpdateInput) apply(job Job) Job {
	if in.Title != nil {
		job.Title = strings.TrimSpace(*in.Title)
	}
	if in.Company != nil {
		job.Company = strings.TrimSpace(*in.Company)
	}
	if in.Description != nil {
		job.Description = strings.TrimSpace(*in.Description)
	}
	if in.Location != nil {
		job.Location = strings.TrimSpace(*in.Location)
	}
	if in.Type != nil {
		job.Type = *in.Type
	}
	if in.Category != nil {
		job.Category = *in.Category
	}
	if in.ExperienceLevel.Set {
		job.ExperienceLevel = ""
		if in.ExperienceLevel.Value != nil {
			job.ExperienceLevel = *in.ExperienceLevel.Value
		}
	}
	if in.Salary != nil {
		job.Salary = in.Salary.merge(job.Salary)
	}
	if in.Tags != nil {
		job.Tags = NormalizeTags(*in.Tags)
	}
	if in.IsActive != nil {
		job.IsActive = *in.IsActive
	}
	if in.Featured != nil {
		job.Featured = *in.Featured
	}
	if in.ApplicationDeadline.Set {
		job.ApplicationDeadline = in.ApplicationDeadline.Value
	}
	return job
}

func (in SalaryUpdate) merge(cur Salary) Salary {
	if in.Min.Set {
		cur.Min = in.Min.Value
	}
	if in.Max.Set {
		cur.Max = in.Max.Value
	}
	return mergeSalary(cur, SalaryInput{Currency: in.Currency, Period: in.Period})
}

func mergeSalary(cur Salary, in SalaryInput) Salary {
	if in.Min != nil {
		cur.Min = in.Min
	}
	if in.Max != nil {
		cur.Max = in.Max
	}
	if c := strings.ToUpper(strings.TrimSpace(in.Currency)); c != "" {
		cur.Currency = c
	}
	if in.Period != "" {
		cur.Period = in.Period
	}
	return cur
}

// NormalizeTags lowercases, trims and dedupes tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

type salaryRules struct {
	Min      *float64     `json:"min" validate:"omitempty,gte=0"`
	Max      *float64     `json:"max" validate:"omitempty,gte=0"`
	Currency string       `json:"currency" validate:"required,len=3"`
	Period   SalaryPeriod `json:"period" validate:"required,enum"`
}

type jobRules struct {
	Title           string          `json:"title" validate:"required,min=3,max=100"`
	Company         string          `json:"company" validate:"required,min=2,max=100"`
	Description     string          `json:"description" validate:"required,min=50,max=5000"`
	Location        string          `json:"location" validate:"required,min=2,max=100"`
	Type            EmploymentType  `json:"type" validate:"required,enum"`
	Category        Category        `json:"category" validate:"required,enum"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel" validate:"omitempty,enum"`
	Salary          salaryRules     `json:"salary"`
	Tags            []string        `json:"tags" validate:"max=20,dive,max=50"`
}

// Validate checks every rule on job and reports all violations at once.
func Validate(job Job) error {
	fields := validation.Struct(jobRules{
		Title:           job.Title,
		Company:         job.Company,
		Description:     job.Description,
		Location:        job.Location,
		Type:            job.Type,
		Category:        job.Category,
		ExperienceLevel: job.ExperienceLevel,
		Salary: salaryRules{
			Min:      job.Salary.Min,
			Max:      job.Salary.Max,
			Currency: job.Salary.Currency,
			Period:   job.Salary.Period,
		},
		Tags: job.Tags,
	})
	s := job.Salary
	if s.Min != nil && s.Max != nil && *s.Min > *s.Max {
		fields = append(fields, apperr.Field("salary.min", "salary.min must not exceed salary.max"))
	}
	if len(fields) > 0 {
		return apperr.Validation(fields...)
	}
	return nil
}
