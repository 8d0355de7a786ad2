package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/soaringjerry/hrpulse/internal/models"
)

type ExportStore interface {
	GetAssessment(id int64) (*models.Assessment, error)
	GetResponsesByAssessment(assessmentID int64) ([]*models.Response, error)
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store ExportStore
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{store: store}
}

// ExportCSV renders the ratings of an assessment for its creator in long
// (default) or wide format. Responses that fail to decode are left out.
func (s *ExportService) ExportCSV(userID, assessmentID int64, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "long"
	}
	if format != "long" && format != "wide" {
		return nil, NewFieldError("invalid export format", map[string]string{"format": "must be long or wide"})
	}
	a, err := loadOwnedAssessment(s.store, userID, assessmentID)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.GetResponsesByAssessment(assessmentID)
	if err != nil {
		return nil, err
	}
	rows, _ := decodeRows(a.TypeID, responses)

	var data []byte
	switch format {
	case "wide":
		wide := make([]WideRow, 0, len(rows))
		for _, row := range rows {
			wide = append(wide, WideRow{
				ResponseID:  row.response.ID,
				UserID:      row.response.UserID,
				SubmittedAt: row.response.SubmittedAt.UTC().Format(time.RFC3339),
				Ratings:     row.ratings,
			})
		}
		data, err = ExportWideCSV(dimensionNames(rows), wide)
	default:
		var long []LongRow
		for _, row := range rows {
			dims := make([]string, 0, len(row.ratings))
			for d := range row.ratings {
				dims = append(dims, d)
			}
			sort.Strings(dims)
			for _, d := range dims {
				long = append(long, LongRow{
					ResponseID:  row.response.ID,
					UserID:      row.response.UserID,
					Dimension:   d,
					Value:       row.ratings[d],
					SubmittedAt: row.response.SubmittedAt.UTC().Format(time.RFC3339),
				})
			}
		}
		data, err = ExportLongCSV(long)
	}
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("assessment_%d_%s.csv", a.ID, format),
		ContentType: "text/csv; charset=utf-8",
		Data:        data,
	}, nil
}
