package lifecycle

import (
	"oceanwatch/models"
)

// Summary holds the per-severity and per-status report counts shown on the
// administrative dashboard. Each report lands in exactly one severity bucket
// and one status bucket, so both families sum to Total.
type Summary struct {
	Total   int `json:"total"`
	High    int `json:"high"`
	Medium  int `json:"medium"`
	Low     int `json:"low"`
	Unknown int `json:"unknown"`

	Pending   int `json:"pending"`
	Validated int `json:"validated"`
	Resolved  int `json:"resolved"`
	False     int `json:"false"`
}

// Summarize recomputes the summary from scratch over the given reports.
// Critical severity counts toward the high bucket.
func Summarize(reports []models.Report) Summary {
	s := Summary{Total: len(reports)}
	for _, r := range reports {
		switch r.Severity {
		case models.SeverityHigh, models.SeverityCritical:
			s.High++
		case models.SeverityMedium:
			s.Medium++
		case models.SeverityLow:
			s.Low++
		default:
			s.Unknown++
		}

		switch r.Status {
		case models.StatusPending:
			s.Pending++
		case models.StatusValidated:
			s.Validated++
		case models.StatusResolved:
			s.Resolved++
		case models.StatusFalse:
			s.False++
		}
	}
	return s
}
