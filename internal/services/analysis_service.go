package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/soaringjerry/hrpulse/internal/catalog"
	"github.com/soaringjerry/hrpulse/internal/models"
)

const (
	defaultAIModel    = openai.GPT4o
	defaultAILanguage = "Brazilian Portuguese"
	feedbackMaxTokens = 500
)

type AnalysisStore interface {
	GetAssessment(id int64) (*models.Assessment, error)
	GetResponsesByAssessment(assessmentID int64) ([]*models.Response, error)
	GetAIOptionsByAssessment(assessmentID int64) ([]string, error)
	CreateAnalysisResult(r *models.AnalysisResult) (*models.AnalysisResult, error)
	GetAnalysisResultsByAssessment(assessmentID int64) ([]*models.AnalysisResult, error)
}

type AnalysisService struct {
	store   AnalysisStore
	ai      ChatCompleter
	catalog *catalog.Catalog
	cfg     AIConfig
	log     *zap.Logger
	now     func() time.Time
}

// AnalysisResults is the structured reply requested from the model.
type AnalysisResults struct {
	Summary            string   `json:"summary"`
	Patterns           []string `json:"patterns,omitempty"`
	DevelopmentAreas   []string `json:"developmentAreas,omitempty"`
	Strengths          []string `json:"strengths,omitempty"`
	Suggestions        []string `json:"suggestions,omitempty"`
	Trends             []string `json:"trends,omitempty"`
	RiskAreas          []string `json:"riskAreas,omitempty"`
	RecommendedActions []string `json:"recommendedActions,omitempty"`
}

type GeneratedAnalysis struct {
	ID           int64            `json:"id"`
	AssessmentID int64            `json:"assessmentId"`
	Results      *AnalysisResults `json:"results"`
	GeneratedAt  time.Time        `json:"generatedAt"`
}

type Visualization struct {
	ChartType   string         `json:"chartType"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	DataFields  []string       `json:"dataFields"`
	Config      map[string]any `json:"config"`
}

type VisualizationRecommendations struct {
	Recommendations []Visualization `json:"recommendations"`
}

// NewAnalysisService wires the AI client. ai may be nil, in which case
// every generation fails with an upstream error.
func NewAnalysisService(store AnalysisStore, ai ChatCompleter, cat *catalog.Catalog, cfg AIConfig, log *zap.Logger) *AnalysisService {
	if cat == nil {
		cat = catalog.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultAIModel
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = defaultAILanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &AnalysisService{store: store, ai: ai, catalog: cat, cfg: cfg, log: log, now: utcNow}
}

// Save persists an analysis computed elsewhere. analysis must be JSON.
func (s *AnalysisService) Save(userID, assessmentID int64, analysis string) (*models.AnalysisResult, error) {
	fields := map[string]string{}
	if assessmentID <= 0 {
		fields["assessmentId"] = "assessmentId is required"
	}
	if strings.TrimSpace(analysis) == "" {
		fields["analysis"] = "analysis is required"
	} else if !json.Valid([]byte(analysis)) {
		fields["analysis"] = "analysis must be valid JSON"
	}
	if err := NewFieldError("invalid analysis", fields); err != nil {
		return nil, err
	}
	if _, err := loadOwnedAssessment(s.store, userID, assessmentID); err != nil {
		return nil, err
	}
	return s.store.CreateAnalysisResult(&models.AnalysisResult{
		AssessmentID: assessmentID,
		Analysis:     analysis,
		GeneratedAt:  s.now(),
	})
}

func (s *AnalysisService) List(assessmentID int64) ([]*models.AnalysisResult, error) {
	if _, err := loadAssessment(s.store, assessmentID); err != nil {
		return nil, err
	}
	return s.store.GetAnalysisResultsByAssessment(assessmentID)
}

// Generate asks the model for an analysis of every stored response and
// persists the result. Nothing is stored when the call fails.
func (s *AnalysisService) Generate(ctx context.Context, userID, assessmentID int64) (*GeneratedAnalysis, error) {
	a, data, err := s.collect(userID, assessmentID)
	if err != nil {
		return nil, err
	}
	options, err := s.store.GetAIOptionsByAssessment(assessmentID)
	if err != nil {
		return nil, err
	}
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, err
	}
	content, err := s.complete(ctx, openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.analysisPrompt(a, options)},
			{Role: openai.ChatMessageRoleUser, Content: analysisRequest(body)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		s.log.Warn("ai analysis failed", zap.Int64("assessment_id", assessmentID), zap.Error(err))
		return nil, NewUpstreamError("failed to generate AI analysis", err)
	}
	var results AnalysisResults
	if err := json.Unmarshal([]byte(content), &results); err != nil {
		s.log.Warn("ai analysis returned invalid JSON", zap.Int64("assessment_id", assessmentID), zap.Error(err))
		return nil, NewUpstreamError("failed to generate AI analysis", fmt.Errorf("invalid JSON from model: %w", err))
	}
	stored, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}
	saved, err := s.store.CreateAnalysisResult(&models.AnalysisResult{
		AssessmentID: assessmentID,
		Analysis:     string(stored),
		GeneratedAt:  s.now(),
	})
	if err != nil {
		return nil, err
	}
	return &GeneratedAnalysis{
		ID:           saved.ID,
		AssessmentID: assessmentID,
		Results:      &results,
		GeneratedAt:  saved.GeneratedAt,
	}, nil
}

func (s *AnalysisService) RecommendVisualizations(ctx context.Context, userID, assessmentID int64) (*VisualizationRecommendations, error) {
	a, data, err := s.collect(userID, assessmentID)
	if err != nil {
		return nil, err
	}
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, err
	}
	content, err := s.complete(ctx, openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: s.visualizationPrompt(a, body)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		s.log.Warn("visualization recommendations failed", zap.Int64("assessment_id", assessmentID), zap.Error(err))
		return nil, NewUpstreamError("failed to generate visualization recommendations", err)
	}
	var out VisualizationRecommendations
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, NewUpstreamError("failed to generate visualization recommendations", fmt.Errorf("invalid JSON from model: %w", err))
	}
	if out.Recommendations == nil {
		out.Recommendations = []Visualization{}
	}
	return &out, nil
}

// FeedbackText writes a report paragraph focused on one aspect.
func (s *AnalysisService) FeedbackText(ctx context.Context, userID, assessmentID int64, aspect string) (string, error) {
	aspect = strings.TrimSpace(aspect)
	if aspect == "" {
		return "", NewFieldError("invalid feedback request", map[string]string{"aspect": "aspect is required"})
	}
	a, data, err := s.collect(userID, assessmentID)
	if err != nil {
		return "", err
	}
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	content, err := s.complete(ctx, openai.ChatCompletionRequest{
		MaxTokens: feedbackMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: s.feedbackPrompt(a, aspect, body)},
		},
	})
	if err != nil {
		s.log.Warn("feedback text failed", zap.Int64("assessment_id", assessmentID), zap.Error(err))
		return "", NewUpstreamError("failed to generate feedback text", err)
	}
	return strings.TrimSpace(content), nil
}

// collect loads an owned assessment and the decoded payloads of its
// responses. An assessment without usable responses is rejected.
func (s *AnalysisService) collect(userID, assessmentID int64) (*models.Assessment, []json.RawMessage, error) {
	a, err := loadOwnedAssessment(s.store, userID, assessmentID)
	if err != nil {
		return nil, nil, err
	}
	responses, err := s.store.GetResponsesByAssessment(assessmentID)
	if err != nil {
		return nil, nil, err
	}
	if len(responses) == 0 {
		return nil, nil, NewInvalidError("no responses to analyze for this assessment")
	}
	data := make([]json.RawMessage, 0, len(responses))
	for _, r := range responses {
		if !json.Valid([]byte(r.Data)) {
			s.log.Warn("skipping malformed response", zap.Int64("response_id", r.ID))
			continue
		}
		data = append(data, json.RawMessage(r.Data))
	}
	if len(data) == 0 {
		return nil, nil, NewInvalidError("no responses to analyze for this assessment")
	}
	return a, data, nil
}

func (s *AnalysisService) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if s.ai == nil {
		return "", errAIDisabled
	}
	if req.Model == "" {
		req.Model = s.cfg.Model
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	resp, err := s.ai.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.New("empty response from AI provider")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *AnalysisService) analysisPrompt(a *models.Assessment, options []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an analyst specialized in %s. Analyze the data below and write your insights in %s.",
		typeSubject(a.TypeID), s.cfg.Language)
	for _, key := range options {
		if opt := s.catalog.AIOption(key); opt != nil && opt.Description != "" {
			b.WriteString(" ")
			b.WriteString(opt.Description)
		}
	}
	if a.AIPrompt != nil && strings.TrimSpace(*a.AIPrompt) != "" {
		b.WriteString(" ")
		b.WriteString(strings.TrimSpace(*a.AIPrompt))
	}
	return b.String()
}

func analysisRequest(body []byte) string {
	return "Here is the data to analyze:\n" + string(body) +
		"\n\nReturn the complete analysis as a JSON object with the fields \"summary\" (overall summary), " +
		"\"patterns\", \"developmentAreas\", \"strengths\", \"suggestions\", \"trends\", \"riskAreas\" and " +
		"\"recommendedActions\". Every field except summary is an array of strings."
}

func (s *AnalysisService) visualizationPrompt(a *models.Assessment, body []byte) string {
	return fmt.Sprintf(`As an HR data visualization specialist, recommend the best charts for the data below from %s. Write titles and descriptions in %s.

Data:
%s

Answer with a JSON object of the form:
{"recommendations": [{"chartType": "bar|pie|line|radar|heat", "title": "chart title", "description": "why this chart suits the data", "dataFields": ["fields", "to", "use"], "config": {}}]}`,
		typeReport(a.TypeID), s.cfg.Language, body)
}

func (s *AnalysisService) feedbackPrompt(a *models.Assessment, aspect string, body []byte) string {
	return fmt.Sprintf(`Write a detailed feedback text in %s for a report on %s.
Focus specifically on the aspect %q, based on the following data:
%s

Keep it professional, objective and constructive, highlighting tendencies, insights and practical recommendations.`,
		s.cfg.Language, typeReport(a.TypeID), aspect, body)
}

func typeSubject(t models.AssessmentType) string {
	switch t {
	case models.TypeClimate:
		return "organizational climate surveys"
	case models.TypeFeedback360:
		return "360-degree feedback assessments"
	default:
		return "employee performance reviews"
	}
}

func typeReport(t models.AssessmentType) string {
	switch t {
	case models.TypeClimate:
		return "an organizational climate survey"
	case models.TypeFeedback360:
		return "a 360-degree feedback assessment"
	default:
		return "a performance review"
	}
}
