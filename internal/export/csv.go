package export

import (
	"bunker-backend/internal/service"
	"io"

	"github.com/gocarina/gocsv"
)

type subjectRow struct {
	Code       string  `csv:"code"`
	Name       string  `csv:"name"`
	Total      int     `csv:"total"`
	Attended   int     `csv:"attended"`
	Percentage float64 `csv:"percentage"`
	Action     string  `csv:"action"`
	Count      int     `csv:"count"`
}

// WriteSubjectsCsv writes one row per subject with its advice, preceded by a header.
func WriteSubjectsCsv(w io.Writer, subjects []service.Subject) error {
	rows := make([]subjectRow, len(subjects))
	for i, s := range subjects {
		rows[i] = subjectRow{
			Code:       s.Code,
			Name:       s.Name,
			Total:      s.Total,
			Attended:   s.Attended,
			Percentage: s.Percentage,
			Action:     s.Advice.Action.String(),
			Count:      s.Advice.Count,
		}
	}
	return gocsv.Marshal(rows, w)
}
