package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// LongRow is one rating in a long-format export.
type LongRow struct {
	ResponseID  int64
	UserID      int64
	Dimension   string
	Value       int
	SubmittedAt string
}

// ExportLongCSV renders one line per (response, dimension).
func ExportLongCSV(rows []LongRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"response_id", "user_id", "dimension", "value", "submitted_at"}); err != nil {
		return nil, err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.ResponseID, 10),
			strconv.FormatInt(r.UserID, 10),
			r.Dimension,
			strconv.Itoa(r.Value),
			r.SubmittedAt,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// WideRow is one response in a wide-format export.
type WideRow struct {
	ResponseID  int64
	UserID      int64
	SubmittedAt string
	Ratings     map[string]int
}

// ExportWideCSV renders one line per response with a column per dimension.
// Dimensions a response did not rate are left empty.
func ExportWideCSV(dimensions []string, rows []WideRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := append([]string{"response_id", "user_id", "submitted_at"}, dimensions...)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, strconv.FormatInt(r.ResponseID, 10), strconv.FormatInt(r.UserID, 10), r.SubmittedAt)
		for _, d := range dimensions {
			if v, ok := r.Ratings[d]; ok {
				rec = append(rec, strconv.Itoa(v))
			} else {
				rec = append(rec, "")
			}
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
