package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/soaringjerry/hrpulse/internal/models"
)

const (
	minRating = 1
	maxRating = 5
)

// Payload is the decoded body of a response. The concrete type is selected by
// the assessment type.
type Payload interface {
	Kind() models.AssessmentType
	// Dimensions returns the numeric 1..5 ratings keyed by dimension.
	Dimensions() map[string]int
}

type PerformancePayload struct {
	EmployeeID    *int64         `json:"employeeId,omitempty"`
	Ratings       map[string]int `json:"ratings"`
	GoalsAchieved *int           `json:"goalsAchieved,omitempty"`
	Comments      string         `json:"comments,omitempty"`
}

func (p *PerformancePayload) Kind() models.AssessmentType { return models.TypePerformance }
func (p *PerformancePayload) Dimensions() map[string]int  { return p.Ratings }

type ClimatePayload struct {
	Department string         `json:"department,omitempty"`
	Scores     map[string]int `json:"scores"`
	Comments   string         `json:"comments,omitempty"`
}

func (p *ClimatePayload) Kind() models.AssessmentType { return models.TypeClimate }
func (p *ClimatePayload) Dimensions() map[string]int  { return p.Scores }

type Relationship string

const (
	RelationshipSelf         Relationship = "self"
	RelationshipPeer         Relationship = "peer"
	RelationshipManager      Relationship = "manager"
	RelationshipDirectReport Relationship = "direct_report"
)

var relationships = []Relationship{RelationshipSelf, RelationshipPeer, RelationshipManager, RelationshipDirectReport}

type Feedback360Payload struct {
	SubjectID    *int64         `json:"subjectId,omitempty"`
	Relationship Relationship   `json:"relationship"`
	Ratings      map[string]int `json:"ratings"`
	Strengths    string         `json:"strengths,omitempty"`
	Improvements string         `json:"improvements,omitempty"`
}

func (p *Feedback360Payload) Kind() models.AssessmentType { return models.TypeFeedback360 }
func (p *Feedback360Payload) Dimensions() map[string]int  { return p.Ratings }

// DecodePayload parses data as the payload variant of t and validates it.
// Unknown fields, ratings outside 1..5 and empty rating maps are rejected.
func DecodePayload(t models.AssessmentType, data string) (Payload, error) {
	if strings.TrimSpace(data) == "" {
		return nil, NewFieldError("invalid response data", map[string]string{"data": "data is required"})
	}
	var p Payload
	switch t {
	case models.TypePerformance:
		p = &PerformancePayload{}
	case models.TypeClimate:
		p = &ClimatePayload{}
	case models.TypeFeedback360:
		p = &Feedback360Payload{}
	default:
		return nil, NewInvalidError("unsupported assessment type")
	}
	dec := json.NewDecoder(strings.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, NewFieldError("invalid response data", map[string]string{"data": err.Error()})
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, NewFieldError("invalid response data", map[string]string{"data": "unexpected trailing content"})
	}
	if err := validatePayload(p); err != nil {
		return nil, err
	}
	return p, nil
}

func validatePayload(p Payload) error {
	fields := map[string]string{}
	key := "ratings"
	if p.Kind() == models.TypeClimate {
		key = "scores"
	}
	dims := p.Dimensions()
	if len(dims) == 0 {
		fields[key] = "at least one rating is required"
	}
	for dim, v := range dims {
		if strings.TrimSpace(dim) == "" {
			fields[key] = "rating keys must not be empty"
			continue
		}
		if v < minRating || v > maxRating {
			fields[key+"."+dim] = fmt.Sprintf("must be between %d and %d", minRating, maxRating)
		}
	}
	switch v := p.(type) {
	case *PerformancePayload:
		if v.GoalsAchieved != nil && (*v.GoalsAchieved < 0 || *v.GoalsAchieved > 100) {
			fields["goalsAchieved"] = "must be between 0 and 100"
		}
	case *Feedback360Payload:
		if !validRelationship(v.Relationship) {
			fields["relationship"] = "must be one of self, peer, manager, direct_report"
		}
	}
	return NewFieldError("invalid response data", fields)
}

func validRelationship(r Relationship) bool {
	for _, v := range relationships {
		if r == v {
			return true
		}
	}
	return false
}

// NormalizeData accepts either a JSON string holding the payload or the
// payload object itself and returns the payload text.
func NormalizeData(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(raw), nil
}
