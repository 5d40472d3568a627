package jobs

import "time"

type EmploymentType string

const (
	TypeFullTime   EmploymentType = "full-time"
	TypePartTime   EmploymentType = "part-time"
	TypeContract   EmploymentType = "contract"
	TypeInternship EmploymentType = "internship"
	TypeRemote     EmploymentType = "remote"
)

func (t EmploymentType) Valid() bool {
	switch t {
	case TypeFullTime, TypePartTime, TypeContract, TypeInternship, TypeRemote:
		return true
	}
	return false
}

type Category string

const (
	CategoryTechnology      Category = "technology"
	CategoryMarketing       Category = "marketing"
	CategorySales           Category = "sales"
	CategoryDesign          Category = "design"
	CategoryFinance         Category = "finance"
	CategoryHealthcare      Category = "healthcare"
	CategoryEducation       Category = "education"
	CategoryEngineering     Category = "engineering"
	CategoryCustomerService Category = "customer-service"
	CategoryOther           Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryTechnology, CategoryMarketing, CategorySales, CategoryDesign, CategoryFinance,
		CategoryHealthcare, CategoryEducation, CategoryEngineering, CategoryCustomerService, CategoryOther:
		return true
	}
	return false
}

type ExperienceLevel string

const (
	LevelEntry     ExperienceLevel = "entry"
	LevelMid       ExperienceLevel = "mid"
	LevelSenior    ExperienceLevel = "senior"
	LevelLead      ExperienceLevel = "lead"
	LevelExecutive ExperienceLevel = "executive"
)

func (l ExperienceLevel) Valid() bool {
	switch l {
	case LevelEntry, LevelMid, LevelSenior, LevelLead, LevelExecutive:
		return true
	}
	return false
}

type SalaryPeriod string

const (
	PeriodHourly  SalaryPeriod = "hourly"
	PeriodMonthly SalaryPeriod = "monthly"
	PeriodYearly  SalaryPeriod = "yearly"
)

func (p SalaryPeriod) Valid() bool {
	switch p {
	case PeriodHourly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

const (
	defaultCurrency = "USD"
	defaultPeriod   = PeriodYearly
)

// Salary is a pay range. Min and Max are optional; when both are set
// Min <= Max.
type Salary struct {
	Min      *float64     `json:"min"`
	Max      *float64     `json:"max"`
	Currency string       `json:"currency"`
	Period   SalaryPeriod `json:"period"`
}

// Job is a posting owned by the user in CreatedBy.
type Job struct {
	ID                  string
	Title               string
	Company             string
	Description         string
	Location            string
	Type                EmploymentType
	Category            Category
	ExperienceLevel     ExperienceLevel
	Salary              Salary
	Tags                []string
	IsActive            bool
	Featured            bool
	ApplicationDeadline *time.Time
	ApplicationsCount   int
	ViewsCount          int
	CreatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AcceptingApplications reports whether the posting is open at now.
func (j Job) AcceptingApplications(now time.Time) bool {
	if !j.IsActive {
		return false
	}
	if j.ApplicationDeadline != nil && j.ApplicationDeadline.Before(now) {
		return false
	}
	return true
}

// Summary is the slice of a job joined into applications.
type Summary struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Company   string         `json:"company"`
	Location  string         `json:"location"`
	Type      EmploymentType `json:"type"`
	IsActive  bool           `json:"isActive"`
	CreatedBy string         `json:"createdBy"`
}

func (j Job) Summary() Summary {
	return Summary{
		ID:        j.ID,
		Title:     j.Title,
		Company:   j.Company,
		Location:  j.Location,
		Type:      j.Type,
		IsActive:  j.IsActive,
		CreatedBy: j.CreatedBy,
	}
}
