package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/hrpulse/internal/catalog"
	"github.com/soaringjerry/hrpulse/internal/middleware"
	"github.com/soaringjerry/hrpulse/internal/services"
	"github.com/soaringjerry/hrpulse/internal/utils"
)

// Options carries the collaborators of a Router. Zero values fall back to
// the embedded catalog, a disabled AI client and a no-op logger.
type Options struct {
	Auth       *middleware.Auth
	Catalog    *catalog.Catalog
	AI         services.ChatCompleter
	AIConfig   services.AIConfig
	SessionTTL time.Duration
	Logger     *zap.Logger
	// TestDataSeed makes generated test responses reproducible when non-zero.
	TestDataSeed uint64
}

type Router struct {
	auth *middleware.Auth
	log  *zap.Logger

	users       *services.AuthService
	assessments *services.AssessmentService
	responses   *services.ResponseService
	analysis    *services.AnalysisService
	statistics  *services.StatisticsService
	export      *services.ExportService
	testData    *services.TestDataService
	dashboard   *services.DashboardService
}

func NewRouter(store Store, opts Options) *Router {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	auth := opts.Auth
	if auth == nil {
		auth = middleware.NewAuth("", "", false)
	}
	testData := services.NewTestDataService(store)
	if opts.TestDataSeed != 0 {
		testData = services.NewSeededTestDataService(store, opts.TestDataSeed)
	}
	return &Router{
		auth:        auth,
		log:         log,
		users:       services.NewAuthService(store, auth.SignToken, opts.SessionTTL),
		assessments: services.NewAssessmentService(store, opts.Catalog),
		responses:   services.NewResponseService(store),
		analysis:    services.NewAnalysisService(store, opts.AI, opts.Catalog, opts.AIConfig, log),
		statistics:  services.NewStatisticsService(store),
		export:      services.NewExportService(store),
		testData:    testData,
		dashboard:   services.NewDashboardService(store),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", rt.handleHealth)

	mux.HandleFunc("POST /api/register", rt.handleRegister)
	mux.HandleFunc("POST /api/login", rt.handleLogin)
	mux.Handle("POST /api/logout", rt.authed(rt.handleLogout))
	mux.Handle("GET /api/user", rt.authed(rt.handleCurrentUser))
	mux.Handle("GET /api/user/responses", rt.authed(rt.handleMyResponses))
	mux.Handle("GET /api/users", rt.authed(rt.handleUsers))

	mux.Handle("GET /api/departments", rt.authed(rt.handleDepartments))
	mux.Handle("GET /api/ai-options", rt.authed(rt.handleAIOptions))
	mux.Handle("GET /api/dashboard", rt.authed(rt.handleDashboard))

	mux.Handle("POST /api/assessments", rt.authed(rt.handleCreateAssessment))
	mux.Handle("GET /api/assessments", rt.authed(rt.handleListAssessments))
	mux.Handle("GET /api/assessments/{id}", rt.authed(rt.handleGetAssessment))
	mux.Handle("PUT /api/assessments/{id}", rt.authed(rt.handleUpdateAssessment))
	mux.Handle("DELETE /api/assessments/{id}", rt.authed(rt.handleDeleteAssessment))
	mux.Handle("POST /api/assessments/{id}/participants", rt.authed(rt.handleAddParticipant))
	mux.Handle("DELETE /api/assessments/{id}/participants/{userId}", rt.authed(rt.handleRemoveParticipant))

	mux.Handle("POST /api/responses", rt.authed(rt.handleSubmitResponse))
	mux.Handle("GET /api/assessments/{id}/responses", rt.authed(rt.handleListResponses))
	mux.Handle("GET /api/assessments/{id}/responses/export", rt.authed(rt.handleExport))
	mux.Handle("POST /api/assessments/{id}/generate-test-responses", rt.authed(rt.handleGenerateTestResponses))

	mux.Handle("POST /api/analysis", rt.authed(rt.handleSaveAnalysis))
	mux.Handle("GET /api/assessments/{id}/analysis", rt.authed(rt.handleListAnalysis))
	mux.Handle("POST /api/assessments/{id}/ai-analysis", rt.authed(rt.handleAIAnalysis))
	mux.Handle("POST /api/assessments/{id}/visualization-recommendations", rt.authed(rt.handleVisualizations))
	mux.Handle("POST /api/assessments/{id}/feedback-text", rt.authed(rt.handleFeedbackText))
	mux.Handle("GET /api/assessments/{id}/statistics", rt.authed(rt.handleStatistics))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		rt.writeMessage(w, r, http.StatusNotFound, "not found")
	})
}

// authed wraps a handler that needs a session. The claims themselves are
// attached upstream by Auth.WithAuth.
func (rt *Router) authed(h func(http.ResponseWriter, *http.Request, int64)) http.Handler {
	return middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, _ := middleware.UserIDFromContext(r.Context())
		h(w, r, uid)
	}))
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"name":   "hrpulse",
		"locale": locale,
		"msg":    utils.T(locale, "healthy"),
	})
}
