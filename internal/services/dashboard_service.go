package services

import (
	"sort"

	"github.com/soaringjerry/hrpulse/internal/models"
)

const recentAssessmentsLimit = 5

type DashboardStore interface {
	GetAssessmentsByUser(userID int64) ([]*models.Assessment, error)
}

type DashboardService struct {
	store DashboardStore
}

type AssessmentCounts struct {
	Performance int `json:"performance"`
	Climate     int `json:"climate"`
	Feedback360 int `json:"feedback360"`
	Total       int `json:"total"`
}

type Dashboard struct {
	AssessmentCounts  AssessmentCounts     `json:"assessmentCounts"`
	RecentAssessments []*models.Assessment `json:"recentAssessments"`
}

func NewDashboardService(store DashboardStore) *DashboardService {
	return &DashboardService{store: store}
}

// Summary counts the caller's assessments per type and lists the most recent
// ones, newest first with ties broken by id.
func (s *DashboardService) Summary(userID int64) (*Dashboard, error) {
	list, err := s.store.GetAssessmentsByUser(userID)
	if err != nil {
		return nil, err
	}
	var counts AssessmentCounts
	for _, a := range list {
		switch a.TypeID {
		case models.TypePerformance:
			counts.Performance++
		case models.TypeClimate:
			counts.Climate++
		case models.TypeFeedback360:
			counts.Feedback360++
		}
	}
	counts.Total = len(list)

	recent := append([]*models.Assessment(nil), list...)
	sort.SliceStable(recent, func(i, j int) bool {
		if !recent[i].CreatedAt.Equal(recent[j].CreatedAt) {
			return recent[i].CreatedAt.After(recent[j].CreatedAt)
		}
		return recent[i].ID > recent[j].ID
	})
	if len(recent) > recentAssessmentsLimit {
		recent = recent[:recentAssessmentsLimit]
	}
	if recent == nil {
		recent = []*models.Assessment{}
	}
	return &Dashboard{AssessmentCounts: counts, RecentAssessments: recent}, nil
}
