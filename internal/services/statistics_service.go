package services

import (
	"math"
	"sort"

	"github.com/soaringjerry/hrpulse/internal/models"
)

type StatisticsStore interface {
	GetAssessment(id int64) (*models.Assessment, error)
	GetResponsesByAssessment(assessmentID int64) ([]*models.Response, error)
}

type StatisticsService struct {
	store StatisticsStore
}

type DimensionStats struct {
	Name      string  `json:"name"`
	Mean      float64 `json:"mean"`
	Histogram []int   `json:"histogram"`
	Total     int     `json:"total"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type StatisticsSummary struct {
	AssessmentID   int64                 `json:"assessmentId"`
	TypeID         models.AssessmentType `json:"typeId"`
	TotalResponses int                   `json:"totalResponses"`
	Respondents    int                   `json:"respondents"`
	Skipped        int                   `json:"skipped"`
	Dimensions     []DimensionStats      `json:"dimensions"`
	Timeseries     []DailyCount          `json:"timeseries"`
	Alpha          float64               `json:"alpha"`
	N              int                   `json:"n"`
}

func NewStatisticsService(store StatisticsStore) *StatisticsService {
	return &StatisticsService{store: store}
}

// Summary aggregates the ratings of an assessment for its creator.
// Responses whose payload no longer decodes are counted in Skipped.
func (s *StatisticsService) Summary(userID, assessmentID int64) (*StatisticsSummary, error) {
	a, err := loadOwnedAssessment(s.store, userID, assessmentID)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.GetResponsesByAssessment(assessmentID)
	if err != nil {
		return nil, err
	}
	rows, skipped := decodeRows(a.TypeID, responses)
	names := dimensionNames(rows)
	matrix := completeRows(rows, names)
	return &StatisticsSummary{
		AssessmentID:   a.ID,
		TypeID:         a.TypeID,
		TotalResponses: len(responses),
		Respondents:    countRespondents(responses),
		Skipped:        skipped,
		Dimensions:     buildDimensionStats(rows, names),
		Timeseries:     buildTimeseries(responses),
		Alpha:          CronbachAlpha(matrix),
		N:              len(matrix),
	}, nil
}

type ratingRow struct {
	response *models.Response
	ratings  map[string]int
}

func decodeRows(t models.AssessmentType, responses []*models.Response) ([]ratingRow, int) {
	rows := make([]ratingRow, 0, len(responses))
	skipped := 0
	for _, r := range responses {
		p, err := DecodePayload(t, r.Data)
		if err != nil {
			skipped++
			continue
		}
		rows = append(rows, ratingRow{response: r, ratings: p.Dimensions()})
	}
	return rows, skipped
}

func dimensionNames(rows []ratingRow) []string {
	seen := map[string]struct{}{}
	for _, row := range rows {
		for name := range row.ratings {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildDimensionStats(rows []ratingRow, names []string) []DimensionStats {
	out := make([]DimensionStats, 0, len(names))
	for _, name := range names {
		ds := DimensionStats{Name: name, Histogram: make([]int, maxRating)}
		var values []float64
		for _, row := range rows {
			v, ok := row.ratings[name]
			if !ok || v < minRating || v > maxRating {
				continue
			}
			ds.Histogram[v-1]++
			ds.Total++
			values = append(values, float64(v))
		}
		ds.Mean = math.Round(mean(values)*100) / 100
		out = append(out, ds)
	}
	return out
}

// completeRows keeps only responses that rate every dimension.
func completeRows(rows []ratingRow, names []string) [][]float64 {
	matrix := make([][]float64, 0, len(rows))
	for _, row := range rows {
		vals := make([]float64, 0, len(names))
		for _, name := range names {
			v, ok := row.ratings[name]
			if !ok {
				break
			}
			vals = append(vals, float64(v))
		}
		if len(vals) == len(names) {
			matrix = append(matrix, vals)
		}
	}
	return matrix
}

func buildTimeseries(responses []*models.Response) []DailyCount {
	counts := map[string]int{}
	for _, r := range responses {
		counts[r.SubmittedAt.UTC().Format(dateLayout)]++
	}
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]DailyCount, 0, len(days))
	for _, d := range days {
		out = append(out, DailyCount{Date: d, Count: counts[d]})
	}
	return out
}

func countRespondents(responses []*models.Response) int {
	seen := map[int64]struct{}{}
	for _, r := range responses {
		seen[r.UserID] = struct{}{}
	}
	return len(seen)
}
