package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/hrpulse/internal/catalog"
	"github.com/soaringjerry/hrpulse/internal/middleware"
	"github.com/soaringjerry/hrpulse/internal/services"
)

type fakeCompleter struct {
	content string
	err     error
	calls   int
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.content}}},
	}, nil
}

type testAPI struct {
	t       *testing.T
	handler http.Handler
}

func newTestAPI(t *testing.T, ai services.ChatCompleter) *testAPI {
	t.Helper()
	auth := middleware.NewAuth("test-secret", "", false)
	rt := NewRouter(NewMemoryStore(catalog.Default().Departments), Options{
		Auth:         auth,
		AI:           ai,
		SessionTTL:   time.Hour,
		TestDataSeed: 7,
	})
	mux := http.NewServeMux()
	rt.Register(mux)
	return &testAPI{t: t, handler: middleware.LocaleMiddleware(auth.WithAuth(mux))}
}

func (a *testAPI) do(method, path, token string, body any, header ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type session struct {
	ID    int64  `json:"id"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

func (a *testAPI) register(username string) session {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/register", "", map[string]string{"username": username, "password": "secret123"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[session](a.t, rec)
}

func (a *testAPI) createAssessment(token string, typeID int) int64 {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/assessments", token, map[string]any{
		"name": "Avaliação", "typeId": typeID, "startDate": "2024-07-01", "endDate": "2024-07-31",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[struct {
		ID int64 `json:"id"`
	}](a.t, rec).ID
}

func TestClimateResponsesRoundTrip(t *testing.T) {
	api := newTestAPI(t, nil)
	owner := api.register("owner")
	id := api.createAssessment(owner.Token, 2)

	payloads := []string{
		`{"department":"Tecnologia","scores":{"culture":4,"leadership":3}}`,
		`{"department":"Marketing","scores":{"culture":5},"comments":"Ótimo ambiente"}`,
		`{"scores":{"culture":2,"workload":1}}`,
	}
	for i, payload := range payloads {
		p := api.register(fmt.Sprintf("participant%d", i))
		rec := api.do(http.MethodPost, fmt.Sprintf("/api/assessments/%d/participants", id), owner.Token, map[string]int64{"userId": p.ID})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = api.do(http.MethodPost, "/api/responses", p.Token, map[string]any{"assessmentId": id, "data": payload})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	detail := api.do(http.MethodGet, fmt.Sprintf("/api/assessments/%d", id), owner.Token, nil)
	require.Equal(t, http.StatusOK, detail.Code)
	assert.Len(t, decode[assessmentView](t, detail).Participants, 3)

	rec := api.do(http.MethodGet, fmt.Sprintf("/api/assessments/%d/responses", id), owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]struct {
		Data string `json:"data"`
	}](t, rec)
	require.Len(t, got, 3)
	for i, r := range got {
		assert.Equal(t, payloads[i], r.Data)
		var want, have any
		require.NoError(t, json.Unmarshal([]byte(payloads[i]), &want))
		require.NoError(t, json.Unmarshal([]byte(r.Data), &have))
		assert.Equal(t, want, have)
	}
}

func TestSubmitAcceptsPayloadObject(t *testing.T) {
	api := newTestAPI(t, nil)
	owner := api.register("owner")
	id := api.createAssessment(owner.Token, 3)

	rec := api.do(http.MethodPost, "/api/responses", owner.Token,
		fmt.Sprintf(`{"assessmentId":%d,"data":{"relationship":"peer","ratings":{"empathy":5}}}`, id))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/responses", owner.Token,
		fmt.Sprintf(`{"assessmentId":%d,"data":{"relationship":"boss","ratings":{"empathy":9}}}`, id))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "invalid response data", body.Message)
	assert.Contains(t, body.Errors, "relationship")

	mine := api.do(http.MethodGet, "/api/user/responses", owner.Token, nil)
	require.Equal(t, http.StatusOK, mine.Code)
	assert.Len(t, decode[[]json.RawMessage](t, mine), 1)
}

func TestAIAnalysisWithoutResponses(t *testing.T) {
	ai := &fakeCompleter{content: `{"summary":"ok"}`}
	api := newTestAPI(t, ai)
	owner := api.register("owner")
	id := api.createAssessment(owner.Token, 1)

	rec := api.do(http.MethodPost, fmt.Sprintf("/api/assessments/%d/ai-analysis", id), owner.Token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, 0, ai.calls)

	list := api.do(http.MethodGet, fmt.Sprintf("/api/assessments/%d/analysis", id), owner.Token, nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Empty(t, decode[[]json.RawMessage](t, list))
}

func TestAIAnalysisGenerateAndFailure(t *testing.T) {
	ai := &fakeCompleter{content: `{"summary":"Equipe engajada","strengths":["colaboração"]}`}
	api := newTestAPI(t, ai)
	owner := api.register("owner")
	id := api.createAssessment(owner.Token, 2)
	rec := api.do(http.MethodPost, "/api/responses", owner.Token, map[string]any{"assessmentId": id, "data": `{"scores":{"culture":4}}`})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/assessments/%d/ai-analysis", id), owner.Token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	gen := decode[services.GeneratedAnalysis](t, rec)
	assert.Equal(t, id, gen.AssessmentID)
	assert.Equal(t, "Equipe engajada", gen.Results.Summary)

	ai.err = errors.New("rate limited")
	rec = api.do(http.MethodPost, fmt.Sprintf("/api/assessments/%d/ai-analysis", id), owner.Token, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "failed to generate AI analysis", body.Message)
	assert.Contains(t, body.Error, "rate limited")

	list := api.do(http.MethodGet, fmt.Sprintf("/api/assessments/%d/analysis", id), owner.Token, nil)
	assert.Len(t, decode[[]json.RawMessage](t, list), 1)
}

func TestSaveAnalysis(t *testing.T) {
	api := newTestAPI(t, nil)
	owner := api.register("owner")
	other := api.register("other")
	id := api.createAssessment(owner.Token, 1)

	rec := api.do(http.MethodPost, "/api/analysis", owner.Token, map[string]any{"assessmentId": id, "analysis": map[string]string{"summary": "s"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/analysis", other.Token, map[string]any{"assessmentId": id, "analysis": `{"summary":"x"}`})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(http.MethodPost, "/api/analysis", owner.Token, map[string]any{"assessmentId": 404, "analysis": `{}`})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(http.MethodPost, "/api/analysis", owner.Token, map[string]any{"assessmentId": id, "analysis": "plain text"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthorizationAndErrors(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(http.MethodGet, "/api/assessments", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication required", decode[errorBody](t, rec).Message)

	owner := api.register("owner")
	assert.Equal(t, "user", owner.Role)
	other := api.register("other")
	id := api.createAssessment(owner.Token, 1)

	rec = api.do(http.MethodPut, fmt.Sprintf("/api/assessments/%d", id), other.Token, map[string]string{"name": "X"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(http.MethodDelete, fmt.Sprintf("/api/assessments/%d", id), other.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(http.MethodGet, fmt.Sprintf("/api/assessments/%d/responses", id), other.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodGet, "/api/assessments/999", owner.Token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "assessment not found", decode[errorBody](t, rec).Message)

	rec = api.do(http.MethodGet, "/api/assessments/abc", owner.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(http.MethodPost, "/api/assessments", owner.Token, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/assessments", owner.Token, map[string]any{"typeId": 9, "startDate": "2024-02-01", "endDate": "2024-01-01"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "invalid assessment data", body.Message)
	assert.Contains(t, body.Errors, "name")
	assert.Contains(t, body.Errors, "typeId")

	rec = api.do(http.MethodPost, "/api/register", "", map[string]string{"username": "owner", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = api.do(http.MethodPost, "/api/login", "", map[string]string{"username": "owner", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodGet, "/api/nowhere", owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPortugueseMessages(t *testing.T) {
	api := newTestAPI(t, nil)
	owner := api.register("owner")

	rec := api.do(http.MethodGet, "/api/assessments/999", owner.Token, nil, "Accept-Language", "pt-BR,pt;q=0.9,en;q=0.5")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "pt", rec.Header().Get("Content-Language"))
	assert.Equal(t, "Avaliação não encontrada", decode[errorBody](t, rec).Message)

	rec = api.do(http.MethodGet, "/health?lang=pt", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "saudável", decode[map[string]any](t, rec)["msg"])
}

func TestSessionCookieLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)
	api.register("ana")

	rec := api.do(http.MethodPost, "/api/login", "", map[string]string{"username": "ana", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	api.handler.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "ana", decode[map[string]any](t, me)["username"])

	out := api.do(http.MethodPost, "/api/logout", decode[session](t, rec).Token, nil)
	require.Equal(t, http.StatusOK, out.Code)
	cleared := out.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestAssessmentLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t, nil)
	owner := api.register("owner")
	p := api.register("peer")
	id := api.createAssessment(owner.Token, 1)

	rec := api.do(http.MethodPut, fmt.Sprintf("/api/assessments/%d", id), owner.Token, map[string]any{
		"name": "Renomeada", "departments": []int64{2, 2, 3}, "aiAnalysis": []string{"patterns"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[assessmentView](t, rec)
	assert.Equal(t, "Renomeada", view.Name)
	assert.Equal(t, "2024-07-01", view.StartDate)
	assert.Len(t, view.Departments, 2)
	assert.Equal(t, []string{"patterns"}, view.AIOptions)

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/assessments/%d/participants", id), owner.Token, map[string]int64{"userId": p.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(http.MethodDelete, fmt.Sprintf("/api/assessments/%d/participants/%d", id, p.ID), owner.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodDelete, fmt.Sprintf("/api/assessments/%d/participants/%d", id, p.ID), owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/assessments?type=1", p.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]json.RawMessage](t, rec), 1)
	rec = api.do(http.MethodGet, "/api/assessments?type=x", p.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	dash := api.do(http.MethodGet, "/api/dashboard", owner.Token, nil)
	require.Equal(t, http.StatusOK, dash.Code)
	assert.Equal(t, 1, decode[services.Dashboard](t, dash).AssessmentCounts.Performance)

	rec = api.do(http.MethodDelete, fmt.Sprintf("/api/assessments/%d", id), owner.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodGet, fmt.Sprintf("/api/assessments/%d", id), owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTestResponsesStatisticsAndExport(t *testing.T) {
	api := newTestAPI(t, nil)
	owner := api.register("owner")
	id := api.createAssessment(owner.Token, 2)

	rec := api.do(http.MethodPost, fmt.Sprintf("/api/assessments/%d/generate-test-responses", id), owner.Token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, "no participants yet")

	p := api.register("peer")
	api.do(http.MethodPost, fmt.Sprintf("/api/assessments/%d/participants", id), owner.Token, map[string]int64{"userId": p.ID})
	rec = api.do(http.MethodPost, fmt.Sprintf("/api/assessments/%d/generate-test-responses", id), owner.Token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 5, decode[services.TestDataResult](t, rec).Count)

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/assessments/%d/generate-test-responses", id), owner.Token, map[string]int{"count": 2})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/assessments/%d/statistics", id), owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[services.StatisticsSummary](t, rec)
	assert.Equal(t, 7, stats.TotalResponses)
	assert.NotEmpty(t, stats.Dimensions)

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/assessments/%d/responses/export?format=wide", id), owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), fmt.Sprintf("assessment_%d_wide.csv", id))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 8)

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/assessments/%d/responses/export?format=xml", id), owner.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	api := newTestAPI(t, nil)
	owner := api.register("owner")

	rec := api.do(http.MethodGet, "/api/departments", owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]json.RawMessage](t, rec), 6)

	rec = api.do(http.MethodGet, "/api/ai-options", owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	opts := decode[[]map[string]string](t, rec)
	require.Len(t, opts, 6)
	assert.Equal(t, "patterns", opts[0]["id"])

	rec = api.do(http.MethodGet, "/api/users", owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]json.RawMessage](t, rec), 1)
}

func TestAssessmentTypeFrozenAfterResponses(t *testing.T) {
	api := newTestAPI(t, nil)
	owner := api.register("owner")
	id := api.createAssessment(owner.Token, 2)
	path := fmt.Sprintf("/api/assessments/%d", id)

	rec := api.do(http.MethodPut, path, owner.Token, `{"aiPrompt":"   "}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, decode[assessmentView](t, rec).AIPrompt)

	rec = api.do(http.MethodPost, "/api/responses", owner.Token, map[string]any{"assessmentId": id, "data": `{"scores":{"culture":4}}`})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPut, path, owner.Token, `{"typeId":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, decode[errorBody](t, rec).Errors, "typeId")

	rec = api.do(http.MethodGet, path+"/statistics", owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[services.StatisticsSummary](t, rec)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 1, stats.TotalResponses)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(http.MethodPost, "/api/register", "", map[string]string{"username": "longpass", "password": strings.Repeat("x", 80)})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, decode[errorBody](t, rec).Errors, "password")
}
