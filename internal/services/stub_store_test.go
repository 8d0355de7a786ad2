package services

import (
	"errors"
	"sort"
	"time"

	"github.com/soaringjerry/hrpulse/internal/models"
)

// stubStore is a minimal in-package record store used by the service tests.
type stubStore struct {
	users       map[int64]*models.User
	assessments map[int64]*models.Assessment
	departments map[int64]*models.Department
	depts       map[int64]map[int64]bool
	parts       map[int64]map[int64]bool
	opts        map[int64]map[string]bool
	responses   []*models.Response
	results     []*models.AnalysisResult

	nextUser, nextAssessment, nextResponse, nextResult int64
	failResponses                                     bool
}

var errStubBackend = errors.New("backend unavailable")

func newStubStore() *stubStore {
	s := &stubStore{
		users:       map[int64]*models.User{},
		assessments: map[int64]*models.Assessment{},
		departments: map[int64]*models.Department{},
		depts:       map[int64]map[int64]bool{},
		parts:       map[int64]map[int64]bool{},
		opts:        map[int64]map[string]bool{},
	}
	for i, name := range []string{"Recursos Humanos", "Tecnologia", "Marketing"} {
		id := int64(i + 1)
		s.departments[id] = &models.Department{ID: id, Name: name}
	}
	return s
}

func (s *stubStore) addUser(username string) *models.User {
	u, _ := s.CreateUser(&models.User{Username: username})
	return u
}

func (s *stubStore) CreateUser(u *models.User) (*models.User, error) {
	s.nextUser++
	c := *u
	c.ID = s.nextUser
	s.users[c.ID] = &c
	out := c
	return &out, nil
}

func (s *stubStore) GetUser(id int64) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (s *stubStore) ListUsers() ([]*models.User, error) {
	out := []*models.User{}
	for _, id := range sortedKeys(s.users) {
		c := *s.users[id]
		out = append(out, &c)
	}
	return out, nil
}

func (s *stubStore) CreateAssessment(a *models.Assessment) (*models.Assessment, error) {
	s.nextAssessment++
	c := *a
	c.ID = s.nextAssessment
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Unix(s.nextAssessment, 0).UTC()
	}
	s.assessments[c.ID] = &c
	out := c
	return &out, nil
}

func (s *stubStore) GetAssessment(id int64) (*models.Assessment, error) {
	if a, ok := s.assessments[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, nil
}

func (s *stubStore) GetAssessmentsByUser(userID int64) ([]*models.Assessment, error) {
	out := []*models.Assessment{}
	for _, id := range sortedKeys(s.assessments) {
		if a := s.assessments[id]; a.CreatedBy == userID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *stubStore) GetAssessmentsByType(t models.AssessmentType) ([]*models.Assessment, error) {
	out := []*models.Assessment{}
	for _, id := range sortedKeys(s.assessments) {
		if a := s.assessments[id]; a.TypeID == t {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateAssessment(id int64, patch models.AssessmentPatch) (*models.Assessment, error) {
	a, ok := s.assessments[id]
	if !ok {
		return nil, nil
	}
	merged := patch.Apply(*a)
	s.assessments[id] = &merged
	out := merged
	return &out, nil
}

func (s *stubStore) DeleteAssessment(id int64) (bool, error) {
	if _, ok := s.assessments[id]; !ok {
		return false, nil
	}
	delete(s.assessments, id)
	delete(s.depts, id)
	delete(s.parts, id)
	delete(s.opts, id)
	return true, nil
}

func (s *stubStore) GetDepartments() ([]*models.Department, error) {
	out := []*models.Department{}
	for _, id := range sortedKeys(s.departments) {
		c := *s.departments[id]
		out = append(out, &c)
	}
	return out, nil
}

func (s *stubStore) GetDepartment(id int64) (*models.Department, error) {
	if d, ok := s.departments[id]; ok {
		c := *d
		return &c, nil
	}
	return nil, nil
}

func (s *stubStore) GetDepartmentsByAssessment(assessmentID int64) ([]*models.Department, error) {
	out := []*models.Department{}
	for _, id := range sortedKeys(s.depts[assessmentID]) {
		if d, ok := s.departments[id]; ok {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *stubStore) AddDepartmentToAssessment(assessmentID, departmentID int64) (bool, error) {
	return addStub(s.depts, assessmentID, departmentID), nil
}

func (s *stubStore) RemoveDepartmentFromAssessment(assessmentID, departmentID int64) (bool, error) {
	return removeStub(s.depts, assessmentID, departmentID), nil
}

func (s *stubStore) GetAssessmentParticipants(assessmentID int64) ([]*models.User, error) {
	out := []*models.User{}
	for _, id := range sortedKeys(s.parts[assessmentID]) {
		if u, ok := s.users[id]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *stubStore) AddParticipantToAssessment(assessmentID, userID int64) (bool, error) {
	return addStub(s.parts, assessmentID, userID), nil
}

func (s *stubStore) RemoveParticipantFromAssessment(assessmentID, userID int64) (bool, error) {
	return removeStub(s.parts, assessmentID, userID), nil
}

func (s *stubStore) GetAIOptionsByAssessment(assessmentID int64) ([]string, error) {
	out := []string{}
	for k := range s.opts[assessmentID] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (s *stubStore) AddAIOptionToAssessment(assessmentID int64, option string) (bool, error) {
	return addStub(s.opts, assessmentID, option), nil
}

func (s *stubStore) RemoveAIOptionFromAssessment(assessmentID int64, option string) (bool, error) {
	return removeStub(s.opts, assessmentID, option), nil
}

func (s *stubStore) CreateResponse(r *models.Response) (*models.Response, error) {
	if s.failResponses {
		return nil, errStubBackend
	}
	s.nextResponse++
	c := *r
	c.ID = s.nextResponse
	if c.SubmittedAt.IsZero() {
		c.SubmittedAt = time.Unix(1700000000+s.nextResponse*3600, 0).UTC()
	}
	s.responses = append(s.responses, &c)
	out := c
	return &out, nil
}

func (s *stubStore) GetResponsesByAssessment(assessmentID int64) ([]*models.Response, error) {
	out := []*models.Response{}
	for _, r := range s.responses {
		if r.AssessmentID == assessmentID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *stubStore) GetResponsesByUser(userID int64) ([]*models.Response, error) {
	out := []*models.Response{}
	for _, r := range s.responses {
		if r.UserID == userID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *stubStore) CreateAnalysisResult(r *models.AnalysisResult) (*models.AnalysisResult, error) {
	s.nextResult++
	c := *r
	c.ID = s.nextResult
	s.results = append(s.results, &c)
	out := c
	return &out, nil
}

func (s *stubStore) GetAnalysisResultsByAssessment(assessmentID int64) ([]*models.AnalysisResult, error) {
	out := []*models.AnalysisResult{}
	for _, r := range s.results {
		if r.AssessmentID == assessmentID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func addStub[K comparable](m map[int64]map[K]bool, parent int64, child K) bool {
	set, ok := m[parent]
	if !ok {
		set = map[K]bool{}
		m[parent] = set
	}
	if set[child] {
		return false
	}
	set[child] = true
	return true
}

func removeStub[K comparable](m map[int64]map[K]bool, parent int64, child K) bool {
	if !m[parent][child] {
		return false
	}
	delete(m[parent], child)
	return true
}

func sortedKeys[V any](m map[int64]V) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func strPtr(s string) *string { return &s }
