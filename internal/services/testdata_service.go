package services

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/soaringjerry/hrpulse/internal/models"
)

const (
	defaultTestResponses = 5
	maxTestResponses     = 100
)

type TestDataStore interface {
	GetAssessment(id int64) (*models.Assessment, error)
	GetAssessmentParticipants(assessmentID int64) ([]*models.User, error)
	CreateResponse(r *models.Response) (*models.Response, error)
}

// TestDataService fills an assessment with synthetic responses for demos.
type TestDataService struct {
	store TestDataStore
	now   func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

type TestDataResult struct {
	Message   string             `json:"message"`
	Count     int                `json:"count"`
	Responses []*models.Response `json:"responses"`
}

var (
	performanceDims = []string{"productivity", "quality", "communication", "teamwork", "initiative"}
	climateDims     = []string{"leadership", "communication", "recognition", "workload", "culture", "growth"}
	feedbackDims    = []string{"collaboration", "communication", "leadership", "delivery", "empathy"}
	sampleComments  = []string{
		"Bom trabalho em equipe no último trimestre.",
		"Precisa melhorar a comunicação com outras áreas.",
		"Entregas consistentes e dentro do prazo.",
		"Ambiente colaborativo, mas com sobrecarga pontual.",
	}
)

// NewTestDataService seeds the generator from the clock. Use NewSeededTestDataService
// for reproducible output.
func NewTestDataService(store TestDataStore) *TestDataService {
	seed := uint64(time.Now().UnixNano())
	return NewSeededTestDataService(store, seed)
}

func NewSeededTestDataService(store TestDataStore, seed uint64) *TestDataService {
	return &TestDataService{
		store: store,
		now:   utcNow,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Generate creates count responses for the assessment, assigned round-robin
// across its participants. count 0 selects the default.
func (s *TestDataService) Generate(userID, assessmentID int64, count int) (*TestDataResult, error) {
	if count == 0 {
		count = defaultTestResponses
	}
	if count < 1 || count > maxTestResponses {
		return nil, NewFieldError("invalid test data request", map[string]string{
			"count": fmt.Sprintf("must be between 1 and %d", maxTestResponses),
		})
	}
	a, err := loadOwnedAssessment(s.store, userID, assessmentID)
	if err != nil {
		return nil, err
	}
	participants, err := s.store.GetAssessmentParticipants(assessmentID)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, NewInvalidError("assessment has no participants")
	}

	s.mu.Lock()
	payloads := make([]string, count)
	for i := range payloads {
		payloads[i], err = s.samplePayload(a.TypeID, participants, i)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	s.mu.Unlock()

	out := make([]*models.Response, 0, count)
	for i, data := range payloads {
		r, err := s.store.CreateResponse(&models.Response{
			AssessmentID: a.ID,
			UserID:       participants[i%len(participants)].ID,
			Data:         data,
			SubmittedAt:  s.now(),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return &TestDataResult{
		Message:   fmt.Sprintf("%d test responses generated", len(out)),
		Count:     len(out),
		Responses: out,
	}, nil
}

// samplePayload must be called with s.mu held.
func (s *TestDataService) samplePayload(t models.AssessmentType, participants []*models.User, i int) (string, error) {
	var p Payload
	switch t {
	case models.TypePerformance:
		goals := s.rng.IntN(101)
		p = &PerformancePayload{
			Ratings:       s.ratings(performanceDims),
			GoalsAchieved: &goals,
			Comments:      s.comment(),
		}
	case models.TypeClimate:
		p = &ClimatePayload{
			Scores:   s.ratings(climateDims),
			Comments: s.comment(),
		}
	case models.TypeFeedback360:
		subject := participants[(i+1)%len(participants)].ID
		p = &Feedback360Payload{
			SubjectID:    &subject,
			Relationship: relationships[s.rng.IntN(len(relationships))],
			Ratings:      s.ratings(feedbackDims),
			Strengths:    s.comment(),
			Improvements: s.comment(),
		}
	default:
		return "", NewInvalidError("unsupported assessment type")
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *TestDataService) ratings(dims []string) map[string]int {
	out := make(map[string]int, len(dims))
	for _, d := range dims {
		out[d] = minRating + s.rng.IntN(maxRating-minRating+1)
	}
	return out
}

func (s *TestDataService) comment() string {
	return sampleComments[s.rng.IntN(len(sampleComments))]
}
