package models

import "time"

// AssessmentType discriminates the kind of assessment.
type AssessmentType int

const (
	TypePerformance AssessmentType = 1
	TypeClimate     AssessmentType = 2
	TypeFeedback360 AssessmentType = 3
)

func (t AssessmentType) Valid() bool {
	return t >= TypePerformance && t <= TypeFeedback360
}

func (t AssessmentType) String() string {
	switch t {
	case TypePerformance:
		return "performance"
	case TypeClimate:
		return "climate"
	case TypeFeedback360:
		return "feedback360"
	default:
		return "unknown"
	}
}

// DefaultRole is reported for users created without an explicit role.
const DefaultRole = "user"

// User is an account that can create assessments and answer them.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	PassHash  []byte    `json:"-"`
	Name      *string   `json:"name"`
	Role      *string   `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Assessment is a performance review, climate survey or 360 feedback round.
// StartDate and EndDate are date-only strings (YYYY-MM-DD).
type Assessment struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	TypeID    AssessmentType `json:"typeId"`
	StartDate string         `json:"startDate"`
	EndDate   string         `json:"endDate"`
	CreatedBy int64          `json:"createdBy"`
	CreatedAt time.Time      `json:"createdAt"`
	AIPrompt  *string        `json:"aiPrompt"`
}

// AssessmentPatch carries a partial update. Nil fields are left untouched;
// a non-nil empty AIPrompt clears the prompt.
type AssessmentPatch struct {
	Name      *string
	TypeID    *AssessmentType
	StartDate *string
	EndDate   *string
	AIPrompt  *string
}

// Apply merges the patch into a copy of a and returns it.
func (p AssessmentPatch) Apply(a Assessment) Assessment {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.TypeID != nil {
		a.TypeID = *p.TypeID
	}
	if p.StartDate != nil {
		a.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		a.EndDate = *p.EndDate
	}
	if p.AIPrompt != nil {
		if *p.AIPrompt == "" {
			a.AIPrompt = nil
		} else {
			v := *p.AIPrompt
			a.AIPrompt = &v
		}
	}
	return a
}

type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AIOption is an analysis focus that can be attached to an assessment.
type AIOption struct {
	Key         string `json:"id" yaml:"key"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// Response is one submission to an assessment. Data holds the JSON payload
// exactly as accepted at the boundary.
type Response struct {
	ID           int64     `json:"id"`
	AssessmentID int64     `json:"assessmentId"`
	UserID       int64     `json:"userId"`
	Data         string    `json:"data"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// AnalysisResult stores a JSON-encoded analysis produced for an assessment.
type AnalysisResult struct {
	ID           int64     `json:"id"`
	AssessmentID int64     `json:"assessmentId"`
	Analysis     string    `json:"analysis"`
	GeneratedAt  time.Time `json:"generatedAt"`
}
