package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/soaringjerry/hrpulse/internal/services"
)

// submitRequest accepts data either as a JSON-encoded string or as the
// payload object itself.
type submitRequest struct {
	AssessmentID int64           `json:"assessmentId"`
	Data         json.RawMessage `json:"data"`
}

func (rt *Router) handleSubmitResponse(w http.ResponseWriter, r *http.Request, uid int64) {
	var in submitRequest
	if err := decodeJSON(r, &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	data, err := services.NormalizeData(in.Data)
	if err != nil {
		rt.writeError(w, r, services.NewFieldError("invalid response", map[string]string{"data": "data must be a JSON string or object"}))
		return
	}
	resp, err := rt.responses.Submit(uid, in.AssessmentID, data)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (rt *Router) handleListResponses(w http.ResponseWriter, r *http.Request, uid int64) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	list, err := rt.responses.ListForAssessment(uid, id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(list))
}

func (rt *Router) handleMyResponses(w http.ResponseWriter, r *http.Request, uid int64) {
	list, err := rt.responses.ListMine(uid)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(list))
}

func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request, uid int64) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.export.ExportCSV(uid, id, r.URL.Query().Get("format"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(res.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

func (rt *Router) handleGenerateTestResponses(w http.ResponseWriter, r *http.Request, uid int64) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	var in struct {
		Count int `json:"count"`
	}
	if err := decodeOptionalJSON(r, &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.testData.Generate(uid, id, in.Count)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
