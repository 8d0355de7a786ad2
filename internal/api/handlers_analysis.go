package api

import (
	"encoding/json"
	"net/http"

	"github.com/soaringjerry/hrpulse/internal/services"
)

func (rt *Router) handleSaveAnalysis(w http.ResponseWriter, r *http.Request, uid int64) {
	var in struct {
		AssessmentID int64           `json:"assessmentId"`
		Analysis     json.RawMessage `json:"analysis"`
	}
	if err := decodeJSON(r, &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	analysis, err := services.NormalizeData(in.Analysis)
	if err != nil {
		rt.writeError(w, r, services.NewFieldError("invalid analysis", map[string]string{"analysis": "analysis must be a JSON string or object"}))
		return
	}
	res, err := rt.analysis.Save(uid, in.AssessmentID, analysis)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (rt *Router) handleListAnalysis(w http.ResponseWriter, r *http.Request, _ int64) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	list, err := rt.analysis.List(id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(list))
}

func (rt *Router) handleAIAnalysis(w http.ResponseWriter, r *http.Request, uid int64) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.analysis.Generate(r.Context(), uid, id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (rt *Router) handleVisualizations(w http.ResponseWriter, r *http.Request, uid int64) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.analysis.RecommendVisualizations(r.Context(), uid, id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) handleFeedbackText(w http.ResponseWriter, r *http.Request, uid int64) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	var in struct {
		Aspect string `json:"aspect"`
	}
	if err := decodeJSON(r, &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	text, err := rt.analysis.FeedbackText(r.Context(), uid, id, in.Aspect)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (rt *Router) handleStatistics(w http.ResponseWriter, r *http.Request, uid int64) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	sum, err := rt.statistics.Summary(uid, id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
