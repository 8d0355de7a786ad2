package services

import (
	"time"

	"github.com/soaringjerry/hrpulse/internal/models"
)

// ResponseStore abstracts persistence operations required by ResponseService.
type ResponseStore interface {
	GetAssessment(id int64) (*models.Assessment, error)
	CreateResponse(r *models.Response) (*models.Response, error)
	GetResponsesByAssessment(assessmentID int64) ([]*models.Response, error)
	GetResponsesByUser(userID int64) ([]*models.Response, error)
}

type ResponseService struct {
	store ResponseStore
	now   func() time.Time
}

func NewResponseService(store ResponseStore) *ResponseService {
	return &ResponseService{store: store, now: utcNow}
}

// Submit validates data against the payload variant of the assessment type
// and stores it unchanged.
func (s *ResponseService) Submit(userID, assessmentID int64, data string) (*models.Response, error) {
	if assessmentID <= 0 {
		return nil, NewFieldError("invalid response", map[string]string{"assessmentId": "assessmentId is required"})
	}
	a, err := loadAssessment(s.store, assessmentID)
	if err != nil {
		return nil, err
	}
	if _, err := DecodePayload(a.TypeID, data); err != nil {
		return nil, err
	}
	return s.store.CreateResponse(&models.Response{
		AssessmentID: a.ID,
		UserID:       userID,
		Data:         data,
		SubmittedAt:  s.now(),
	})
}

// ListForAssessment returns the responses of an assessment to its creator.
func (s *ResponseService) ListForAssessment(userID, assessmentID int64) ([]*models.Response, error) {
	if _, err := loadOwnedAssessment(s.store, userID, assessmentID); err != nil {
		return nil, err
	}
	return s.store.GetResponsesByAssessment(assessmentID)
}

func (s *ResponseService) ListMine(userID int64) ([]*models.Response, error) {
	return s.store.GetResponsesByUser(userID)
}
