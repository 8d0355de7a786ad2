package services

import (
	"time"

	"github.com/soaringjerry/hrpulse/internal/models"
)

type assessmentGetter interface {
	GetAssessment(id int64) (*models.Assessment, error)
}

func utcNow() time.Time { return time.Now().UTC() }

// loadAssessment fetches an assessment or returns a not-found error.
func loadAssessment(store assessmentGetter, id int64) (*models.Assessment, error) {
	a, err := store.GetAssessment(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("assessment not found")
	}
	return a, nil
}

// loadOwnedAssessment additionally requires userID to be the creator.
func loadOwnedAssessment(store assessmentGetter, userID, id int64) (*models.Assessment, error) {
	a, err := loadAssessment(store, id)
	if err != nil {
		return nil, err
	}
	if a.CreatedBy != userID {
		return nil, NewForbiddenError("not allowed to access this assessment")
	}
	return a, nil
}
