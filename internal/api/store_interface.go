package api

import "github.com/soaringjerry/hrpulse/internal/models"

// Store is the record store behind the HTTP API. Missing records are reported
// as nil (or false) without an error; errors are reserved for infrastructure
// failures of a backing database.
type Store interface {
	CreateUser(u *models.User) (*models.User, error)
	GetUser(id int64) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
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

	CreateResponse(r *models.Response) (*models.Response, error)
	GetResponsesByAssessment(assessmentID int64) ([]*models.Response, error)
	GetResponsesByUser(userID int64) ([]*models.Response, error)

	CreateAnalysisResult(r *models.AnalysisResult) (*models.AnalysisResult, error)
	GetAnalysisResult(id int64) (*models.AnalysisResult, error)
	GetAnalysisResultsByAssessment(assessmentID int64) ([]*models.AnalysisResult, error)
}

var _ Store = (*memoryStore)(nil)
