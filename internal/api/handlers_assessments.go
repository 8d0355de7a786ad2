package api

import (
	"net/http"
	"strconv"

	"github.com/soaringjerry/hrpulse/internal/models"
	"github.com/soaringjerry/hrpulse/internal/services"
)

type assessmentView struct {
	*models.Assessment
	Departments  []*models.Department `json:"departments"`
	Participants []userView           `json:"participants"`
	AIOptions    []string             `json:"aiOptions"`
}

func newAssessmentView(d *services.AssessmentDetail) assessmentView {
	return assessmentView{
		Assessment:   d.Assessment,
		Departments:  d.Departments,
		Participants: newUserViews(d.Participants),
		AIOptions:    d.AIOptions,
	}
}

// listOf keeps empty collections encoded as [] rather than null.
func listOf[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

func (rt *Router) handleDepartments(w http.ResponseWriter, r *http.Request, _ int64) {
	list, err := rt.assessments.Departments()
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(list))
}

func (rt *Router) handleAIOptions(w http.ResponseWriter, _ *http.Request, _ int64) {
	writeJSON(w, http.StatusOK, listOf(rt.assessments.AIOptions()))
}

func (rt *Router) handleDashboard(w http.ResponseWriter, r *http.Request, uid int64) {
	d, err := rt.dashboard.Summary(uid)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (rt *Router) handleCreateAssessment(w http.ResponseWriter, r *http.Request, uid int64) {
	var in services.AssessmentInput
	if err := decodeJSON(r, &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	a, err := rt.assessments.Create(uid, in)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GET /api/assessments lists the caller's assessments, or every assessment
// of one type with ?type=1|2|3.
func (rt *Router) handleListAssessments(w http.ResponseWriter, r *http.Request, uid int64) {
	var (
		list []*models.Assessment
		err  error
	)
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, _ := strconv.Atoi(raw)
		list, err = rt.assessments.ListByType(models.AssessmentType(t))
	} else {
		list, err = rt.assessments.ListMine(uid)
	}
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(list))
}

func (rt *Router) handleGetAssessment(w http.ResponseWriter, r *http.Request, _ int64) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	d, err := rt.assessments.Get(id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAssessmentView(d))
}

func (rt *Router) handleUpdateAssessment(w http.ResponseWriter, r *http.Request, uid int64) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	var in services.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	d, err := rt.assessments.Update(uid, id, in)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAssessmentView(d))
}

func (rt *Router) handleDeleteAssessment(w http.ResponseWriter, r *http.Request, uid int64) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if err := rt.assessments.Delete(uid, id); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleAddParticipant(w http.ResponseWriter, r *http.Request, uid int64) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	var in struct {
		UserID int64 `json:"userId"`
	}
	if err := decodeJSON(r, &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	list, err := rt.assessments.AddParticipant(uid, id, in.UserID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserViews(list))
}

func (rt *Router) handleRemoveParticipant(w http.ResponseWriter, r *http.Request, uid int64) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	participant, err := pathID(r, "userId")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if err := rt.assessments.RemoveParticipant(uid, id, participant); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
