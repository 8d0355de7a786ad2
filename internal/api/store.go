package api

import (
	"sort"
	"sync"
	"time"

	"github.com/soaringjerry/hrpulse/internal/models"
)

type idSet map[int64]struct{}

type memoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	users       map[int64]*models.User
	assessments map[int64]*models.Assessment
	departments map[int64]*models.Department
	responses   map[int64]*models.Response
	results     map[int64]*models.AnalysisResult

	// assessment id -> member ids
	assessmentDepartments  map[int64]idSet
	assessmentParticipants map[int64]idSet
	assessmentAIOptions    map[int64]map[string]struct{}

	nextUserID       int64
	nextAssessmentID int64
	nextDepartmentID int64
	nextResponseID   int64
	nextResultID     int64
}

// NewMemoryStore returns a process-lifetime store seeded with the given
// department names.
func NewMemoryStore(departments []string) Store {
	return newMemoryStore(departments)
}

func newMemoryStore(departments []string) *memoryStore {
	s := &memoryStore{
		now:                    func() time.Time { return time.Now().UTC() },
		users:                  map[int64]*models.User{},
		assessments:            map[int64]*models.Assessment{},
		departments:            map[int64]*models.Department{},
		responses:              map[int64]*models.Response{},
		results:                map[int64]*models.AnalysisResult{},
		assessmentDepartments:  map[int64]idSet{},
		assessmentParticipants: map[int64]idSet{},
		assessmentAIOptions:    map[int64]map[string]struct{}{},
	}
	for _, name := range departments {
		s.nextDepartmentID++
		s.departments[s.nextDepartmentID] = &models.Department{ID: s.nextDepartmentID, Name: name}
	}
	return s
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.PassHash = append([]byte(nil), u.PassHash...)
	c.Name = cloneString(u.Name)
	c.Role = cloneString(u.Role)
	return &c
}

func cloneAssessment(a *models.Assessment) *models.Assessment {
	c := *a
	c.AIPrompt = cloneString(a.AIPrompt)
	return &c
}

// --- users ---

func (s *memoryStore) CreateUser(u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	rec := cloneUser(u)
	rec.ID = s.nextUserID
	if rec.Name != nil && *rec.Name == "" {
		rec.Name = nil
	}
	if rec.Role != nil && *rec.Role == "" {
		rec.Role = nil
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	s.users[rec.ID] = rec
	return cloneUser(rec), nil
}

func (s *memoryStore) GetUser(id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := s.users[id]
	if u == nil {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (s *memoryStore) GetUserByUsername(username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (s *memoryStore) ListUsers() ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- assessments ---

func (s *memoryStore) CreateAssessment(a *models.Assessment) (*models.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAssessmentID++
	rec := cloneAssessment(a)
	rec.ID = s.nextAssessmentID
	rec.CreatedAt = s.now()
	if rec.AIPrompt != nil && *rec.AIPrompt == "" {
		rec.AIPrompt = nil
	}
	s.assessments[rec.ID] = rec
	return cloneAssessment(rec), nil
}

func (s *memoryStore) GetAssessment(id int64) (*models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := s.assessments[id]
	if a == nil {
		return nil, nil
	}
	return cloneAssessment(a), nil
}

func (s *memoryStore) filterAssessments(keep func(*models.Assessment) bool) []*models.Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Assessment{}
	for _, a := range s.assessments {
		if keep(a) {
			out = append(out, cloneAssessment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) GetAssessmentsByUser(userID int64) ([]*models.Assessment, error) {
	return s.filterAssessments(func(a *models.Assessment) bool { return a.CreatedBy == userID }), nil
}

func (s *memoryStore) GetAssessmentsByType(t models.AssessmentType) ([]*models.Assessment, error) {
	return s.filterAssessments(func(a *models.Assessment) bool { return a.TypeID == t }), nil
}

func (s *memoryStore) UpdateAssessment(id int64, patch models.AssessmentPatch) (*models.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.assessments[id]
	if a == nil {
		return nil, nil
	}
	merged := patch.Apply(*cloneAssessment(a))
	s.assessments[id] = &merged
	return cloneAssessment(&merged), nil
}

// DeleteAssessment drops the assessment and its relation memberships.
// Responses and analysis results that reference it are kept.
func (s *memoryStore) DeleteAssessment(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assessments[id]; !ok {
		return false, nil
	}
	delete(s.assessments, id)
	delete(s.assessmentDepartments, id)
	delete(s.assessmentParticipants, id)
	delete(s.assessmentAIOptions, id)
	return true, nil
}

// --- departments ---

func (s *memoryStore) GetDepartments() ([]*models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Department, 0, len(s.departments))
	for _, d := range s.departments {
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) GetDepartment(id int64) (*models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.departments[id]
	if d == nil {
		return nil, nil
	}
	c := *d
	return &c, nil
}

func sortedIDs(set idSet) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// addMember reports whether the member was newly inserted.
func addMember(rel map[int64]idSet, parent, child int64) bool {
	set := rel[parent]
	if set == nil {
		set = idSet{}
		rel[parent] = set
	}
	if _, ok := set[child]; ok {
		return false
	}
	set[child] = struct{}{}
	return true
}

func removeMember(rel map[int64]idSet, parent, child int64) bool {
	set := rel[parent]
	if _, ok := set[child]; !ok {
		return false
	}
	delete(set, child)
	if len(set) == 0 {
		delete(rel, parent)
	}
	return true
}

func (s *memoryStore) GetDepartmentsByAssessment(assessmentID int64) ([]*models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Department{}
	for _, id := range sortedIDs(s.assessmentDepartments[assessmentID]) {
		if d := s.departments[id]; d != nil {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *memoryStore) AddDepartmentToAssessment(assessmentID, departmentID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addMember(s.assessmentDepartments, assessmentID, departmentID), nil
}

func (s *memoryStore) RemoveDepartmentFromAssessment(assessmentID, departmentID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeMember(s.assessmentDepartments, assessmentID, departmentID), nil
}

// --- participants ---

func (s *memoryStore) GetAssessmentParticipants(assessmentID int64) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.User{}
	for _, id := range sortedIDs(s.assessmentParticipants[assessmentID]) {
		if u := s.users[id]; u != nil {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (s *memoryStore) AddParticipantToAssessment(assessmentID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addMember(s.assessmentParticipants, assessmentID, userID), nil
}

func (s *memoryStore) RemoveParticipantFromAssessment(assessmentID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeMember(s.assessmentParticipants, assessmentID, userID), nil
}

// --- ai options ---

func (s *memoryStore) GetAIOptionsByAssessment(assessmentID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.assessmentAIOptions[assessmentID]
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (s *memoryStore) AddAIOptionToAssessment(assessmentID int64, option string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.assessmentAIOptions[assessmentID]
	if set == nil {
		set = map[string]struct{}{}
		s.assessmentAIOptions[assessmentID] = set
	}
	if _, ok := set[option]; ok {
		return false, nil
	}
	set[option] = struct{}{}
	return true, nil
}

func (s *memoryStore) RemoveAIOptionFromAssessment(assessmentID int64, option string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.assessmentAIOptions[assessmentID]
	if _, ok := set[option]; !ok {
		return false, nil
	}
	delete(set, option)
	if len(set) == 0 {
		delete(s.assessmentAIOptions, assessmentID)
	}
	return true, nil
}

// --- responses ---

func (s *memoryStore) CreateResponse(r *models.Response) (*models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextResponseID++
	rec := *r
	rec.ID = s.nextResponseID
	rec.SubmittedAt = s.now()
	s.responses[rec.ID] = &rec
	out := rec
	return &out, nil
}

func (s *memoryStore) filterResponses(keep func(*models.Response) bool) []*models.Response {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Response{}
	for _, r := range s.responses {
		if keep(r) {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) GetResponsesByAssessment(assessmentID int64) ([]*models.Response, error) {
	return s.filterResponses(func(r *models.Response) bool { return r.AssessmentID == assessmentID }), nil
}

func (s *memoryStore) GetResponsesByUser(userID int64) ([]*models.Response, error) {
	return s.filterResponses(func(r *models.Response) bool { return r.UserID == userID }), nil
}

// --- analysis results ---

func (s *memoryStore) CreateAnalysisResult(r *models.AnalysisResult) (*models.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextResultID++
	rec := *r
	rec.ID = s.nextResultID
	rec.GeneratedAt = s.now()
	s.results[rec.ID] = &rec
	out := rec
	return &out, nil
}

func (s *memoryStore) GetAnalysisResult(id int64) (*models.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.results[id]
	if r == nil {
		return nil, nil
	}
	c := *r
	return &c, nil
}

func (s *memoryStore) GetAnalysisResultsByAssessment(assessmentID int64) ([]*models.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.AnalysisResult{}
	for _, r := range s.results {
		if r.AssessmentID == assessmentID {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
