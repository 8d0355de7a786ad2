package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/soaringjerry/hrpulse/internal/catalog"
	"github.com/soaringjerry/hrpulse/internal/models"
)

const dateLayout = "2006-01-02"

type AssessmentStore interface {
	GetUser(id int64) (*models.User, error)
	ListUsers() ([]*models.User, error)

	CreateAssessment(a *models.Assessment) (*models.Assessment, error)
	GetAssessment(id int64) (*models.Assessment, error)
	GetAssessmentsByUser(userID int64) ([]*models.Assessment, error)
	GetAssessmentsByType(t models.AssessmentType) ([]*models.Assessment, error)
	UpdateAssessment(id int64, patch models.AssessmentPatch) (*models.Assessment, error)
	DeleteAssessment(id int64) (bool, error)

	GetDepartments() ([]*models.Department, error)
	GetDepartment(id int64) (*models.Department, error)
	GetDepartmentsByAssessment(assessmentID int64) ([]*models.Department, error)
	AddDepartmentToAssessment(assessmentID, departmentID int64) (bool, error)
	RemoveDepartmentFromAssessment(assessmentID, departmentID int64) (bool, error)

	GetAssessmentParticipants(assessmentID int64) ([]*models.User, error)
	AddParticipantToAssessment(assessmentID, userID int64) (bool, error)
	RemoveParticipantFromAssessment(assessmentID, userID int64) (bool, error)

	GetAIOptionsByAssessment(assessmentID int64) ([]string, error)
	AddAIOptionToAssessment(assessmentID int64, option string) (bool, error)
	RemoveAIOptionFromAssessment(assessmentID int64, option string) (bool, error)

	GetResponsesByAssessment(assessmentID int64) ([]*models.Response, error)
}

type AssessmentService struct {
	store   AssessmentStore
	catalog *catalog.Catalog
	now     func() time.Time
}

func NewAssessmentService(store AssessmentStore, cat *catalog.Catalog) *AssessmentService {
	if cat == nil {
		cat = catalog.Default()
	}
	return &AssessmentService{store: store, catalog: cat, now: utcNow}
}

// AssessmentInput is the create payload. Relation lists are optional.
type AssessmentInput struct {
	Name         string                `json:"name"`
	TypeID       models.AssessmentType `json:"typeId"`
	StartDate    string                `json:"startDate"`
	EndDate      string                `json:"endDate"`
	AIPrompt     *string               `json:"aiPrompt"`
	Departments  []int64               `json:"departments"`
	Participants []int64               `json:"participants"`
	AIAnalysis   []string              `json:"aiAnalysis"`
}

// UpdateInput is a partial update. A non-nil relation list replaces the
// current memberships.
type UpdateInput struct {
	Name         *string                `json:"name"`
	TypeID       *models.AssessmentType `json:"typeId"`
	StartDate    *string                `json:"startDate"`
	EndDate      *string                `json:"endDate"`
	AIPrompt     *string                `json:"aiPrompt"`
	Departments  *[]int64               `json:"departments"`
	Participants *[]int64               `json:"participants"`
	AIAnalysis   *[]string              `json:"aiAnalysis"`
}

func (in UpdateInput) patch() models.AssessmentPatch {
	p := models.AssessmentPatch{
		TypeID:    in.TypeID,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
	}
	if in.AIPrompt != nil {
		v := strings.TrimSpace(*in.AIPrompt)
		p.AIPrompt = &v
	}
	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		p.Name = &v
	}
	return p
}

// AssessmentDetail is an assessment joined with its relations.
type AssessmentDetail struct {
	*models.Assessment
	Departments  []*models.Department `json:"departments"`
	Participants []*models.User       `json:"participants"`
	AIOptions    []string             `json:"aiOptions"`
}

func (s *AssessmentService) Create(userID int64, in AssessmentInput) (*models.Assessment, error) {
	in.Name = strings.TrimSpace(in.Name)
	a := models.Assessment{
		Name:      in.Name,
		TypeID:    in.TypeID,
		StartDate: strings.TrimSpace(in.StartDate),
		EndDate:   strings.TrimSpace(in.EndDate),
		CreatedBy: userID,
		CreatedAt: s.now(),
		AIPrompt:  trimmedOrNil(in.AIPrompt),
	}
	fields := validateAssessment(a)
	if err := s.validateRelations(fields, in.Departments, in.Participants, in.AIAnalysis); err != nil {
		return nil, err
	}
	if err := NewFieldError("invalid assessment data", fields); err != nil {
		return nil, err
	}
	created, err := s.store.CreateAssessment(&a)
	if err != nil {
		return nil, err
	}
	if err := s.attach(created.ID, in.Departments, in.Participants, in.AIAnalysis); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *AssessmentService) Get(id int64) (*AssessmentDetail, error) {
	a, err := loadAssessment(s.store, id)
	if err != nil {
		return nil, err
	}
	return s.detail(a)
}

func (s *AssessmentService) ListMine(userID int64) ([]*models.Assessment, error) {
	return s.store.GetAssessmentsByUser(userID)
}

func (s *AssessmentService) ListByType(t models.AssessmentType) ([]*models.Assessment, error) {
	if !t.Valid() {
		return nil, NewFieldError("invalid assessment type", map[string]string{"typeId": "must be 1, 2 or 3"})
	}
	return s.store.GetAssessmentsByType(t)
}

// Update merges in into the assessment, re-validates the merged record and
// replaces relation memberships whose lists are present. The type is frozen
// once responses exist, since stored payloads are shaped by it.
func (s *AssessmentService) Update(userID, id int64, in UpdateInput) (*AssessmentDetail, error) {
	current, err := loadOwnedAssessment(s.store, userID, id)
	if err != nil {
		return nil, err
	}
	patch := in.patch()
	merged := patch.Apply(*current)
	fields := validateAssessment(merged)
	if merged.TypeID != current.TypeID {
		responses, err := s.store.GetResponsesByAssessment(id)
		if err != nil {
			return nil, err
		}
		if len(responses) > 0 {
			fields["typeId"] = "cannot change the type of an assessment that has responses"
		}
	}
	if err := s.validateRelations(fields, deref(in.Departments), deref(in.Participants), derefStrings(in.AIAnalysis)); err != nil {
		return nil, err
	}
	if err := NewFieldError("invalid assessment data", fields); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateAssessment(id, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, NewNotFoundError("assessment not found")
	}
	if in.Departments != nil {
		if err := s.replaceDepartments(id, *in.Departments); err != nil {
			return nil, err
		}
	}
	if in.Participants != nil {
		if err := s.replaceParticipants(id, *in.Participants); err != nil {
			return nil, err
		}
	}
	if in.AIAnalysis != nil {
		if err := s.replaceAIOptions(id, *in.AIAnalysis); err != nil {
			return nil, err
		}
	}
	return s.detail(updated)
}

func (s *AssessmentService) Delete(userID, id int64) error {
	if _, err := loadOwnedAssessment(s.store, userID, id); err != nil {
		return err
	}
	ok, err := s.store.DeleteAssessment(id)
	if err != nil {
		return err
	}
	if !ok {
		return NewNotFoundError("assessment not found")
	}
	return nil
}

func (s *AssessmentService) AddParticipant(userID, id, participantID int64) ([]*models.User, error) {
	if _, err := loadOwnedAssessment(s.store, userID, id); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(participantID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewFieldError("invalid participant", map[string]string{"userId": "user does not exist"})
	}
	if _, err := s.store.AddParticipantToAssessment(id, participantID); err != nil {
		return nil, err
	}
	return s.store.GetAssessmentParticipants(id)
}

func (s *AssessmentService) RemoveParticipant(userID, id, participantID int64) error {
	if _, err := loadOwnedAssessment(s.store, userID, id); err != nil {
		return err
	}
	removed, err := s.store.RemoveParticipantFromAssessment(id, participantID)
	if err != nil {
		return err
	}
	if !removed {
		return NewNotFoundError("participant not found")
	}
	return nil
}

func (s *AssessmentService) Departments() ([]*models.Department, error) {
	return s.store.GetDepartments()
}

func (s *AssessmentService) AIOptions() []models.AIOption {
	return s.catalog.AIOptions
}

func (s *AssessmentService) Users() ([]*models.User, error) {
	return s.store.ListUsers()
}

func (s *AssessmentService) detail(a *models.Assessment) (*AssessmentDetail, error) {
	depts, err := s.store.GetDepartmentsByAssessment(a.ID)
	if err != nil {
		return nil, err
	}
	parts, err := s.store.GetAssessmentParticipants(a.ID)
	if err != nil {
		return nil, err
	}
	opts, err := s.store.GetAIOptionsByAssessment(a.ID)
	if err != nil {
		return nil, err
	}
	if depts == nil {
		depts = []*models.Department{}
	}
	if parts == nil {
		parts = []*models.User{}
	}
	if opts == nil {
		opts = []string{}
	}
	return &AssessmentDetail{Assessment: a, Departments: depts, Participants: parts, AIOptions: opts}, nil
}

func validateAssessment(a models.Assessment) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(a.Name) == "" {
		fields["name"] = "name is required"
	}
	if !a.TypeID.Valid() {
		fields["typeId"] = "must be 1, 2 or 3"
	}
	start, startErr := time.Parse(dateLayout, a.StartDate)
	if startErr != nil {
		fields["startDate"] = "must be a date in YYYY-MM-DD format"
	}
	end, endErr := time.Parse(dateLayout, a.EndDate)
	if endErr != nil {
		fields["endDate"] = "must be a date in YYYY-MM-DD format"
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		fields["endDate"] = "must not be before startDate"
	}
	return fields
}

// validateRelations adds a field error for every id or key that does not
// resolve. Only store failures are returned as errors.
func (s *AssessmentService) validateRelations(fields map[string]string, depts, users []int64, options []string) error {
	for i, id := range depts {
		d, err := s.store.GetDepartment(id)
		if err != nil {
			return err
		}
		if d == nil {
			fields["departments["+strconv.Itoa(i)+"]"] = "unknown department " + strconv.FormatInt(id, 10)
		}
	}
	for i, id := range users {
		u, err := s.store.GetUser(id)
		if err != nil {
			return err
		}
		if u == nil {
			fields["participants["+strconv.Itoa(i)+"]"] = "unknown user " + strconv.FormatInt(id, 10)
		}
	}
	for i, key := range options {
		if !s.catalog.HasAIOption(key) {
			fields["aiAnalysis["+strconv.Itoa(i)+"]"] = "unknown analysis option " + key
		}
	}
	return nil
}

func (s *AssessmentService) attach(id int64, depts, users []int64, options []string) error {
	for _, d := range depts {
		if _, err := s.store.AddDepartmentToAssessment(id, d); err != nil {
			return err
		}
	}
	for _, u := range users {
		if _, err := s.store.AddParticipantToAssessment(id, u); err != nil {
			return err
		}
	}
	for _, o := range options {
		if _, err := s.store.AddAIOptionToAssessment(id, o); err != nil {
			return err
		}
	}
	return nil
}

func (s *AssessmentService) replaceDepartments(id int64, want []int64) error {
	current, err := s.store.GetDepartmentsByAssessment(id)
	if err != nil {
		return err
	}
	keep := idSet(want)
	for _, d := range current {
		if _, ok := keep[d.ID]; !ok {
			if _, err := s.store.RemoveDepartmentFromAssessment(id, d.ID); err != nil {
				return err
			}
		}
	}
	return s.attach(id, want, nil, nil)
}

func (s *AssessmentService) replaceParticipants(id int64, want []int64) error {
	current, err := s.store.GetAssessmentParticipants(id)
	if err != nil {
		return err
	}
	keep := idSet(want)
	for _, u := range current {
		if _, ok := keep[u.ID]; !ok {
			if _, err := s.store.RemoveParticipantFromAssessment(id, u.ID); err != nil {
				return err
			}
		}
	}
	return s.attach(id, nil, want, nil)
}

func (s *AssessmentService) replaceAIOptions(id int64, want []string) error {
	current, err := s.store.GetAIOptionsByAssessment(id)
	if err != nil {
		return err
	}
	keep := make(map[string]struct{}, len(want))
	for _, k := range want {
		keep[k] = struct{}{}
	}
	for _, k := range current {
		if _, ok := keep[k]; !ok {
			if _, err := s.store.RemoveAIOptionFromAssessment(id, k); err != nil {
				return err
			}
		}
	}
	return s.attach(id, nil, nil, want)
}

func idSet(ids []int64) map[int64]struct{} {
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func deref(p *[]int64) []int64 {
	if p == nil {
		return nil
	}
	return *p
}

func derefStrings(p *[]string) []string {
	if p == nil {
		return nil
	}
	return *p
}
