package lifecycle

import (
	"testing"

	"oceanwatch/models"
)

func TestSummarize(t *testing.T) {
	reports := []models.Report{
		{Severity: models.SeverityHigh, Status: models.StatusPending},
		{Severity: models.SeverityCritical, Status: models.StatusValidated},
		{Severity: models.SeverityLow, Status: models.StatusResolved},
	}

	s := Summarize(reports)

	if s.Total != 3 {
		t.Errorf("Total = %d, want 3", s.Total)
	}
	if s.High != 2 {
		t.Errorf("High = %d, want 2 (critical counts as high)", s.High)
	}
	if s.Medium != 0 {
		t.Errorf("Medium = %d, want 0", s.Medium)
	}
	if s.Low != 1 {
		t.Errorf("Low = %d, want 1", s.Low)
	}
	if s.Unknown != 0 {
		t.Errorf("Unknown = %d, want 0", s.Unknown)
	}
}

func TestSummarizeUnknownSeverity(t *testing.T) {
	reports := []models.Report{
		{Severity: "extreme", Status: models.StatusPending},
		{Severity: "", Status: models.StatusFalse},
	}

	s := Summarize(reports)
	if s.Unknown != 2 {
		t.Errorf("Unknown = %d, want 2", s.Unknown)
	}
}

func TestSummarizeBucketsSumToTotal(t *testing.T) {
	reports := []models.Report{
		{Severity: models.SeverityHigh, Status: models.StatusPending},
		{Severity: models.SeverityCritical, Status: models.StatusPending},
		{Severity: models.SeverityMedium, Status: models.StatusValidated},
		{Severity: models.SeverityLow, Status: models.StatusResolved},
		{Severity: "bogus", Status: models.StatusFalse},
		{Severity: models.SeverityMedium, Status: models.StatusValidated},
	}

	s := Summarize(reports)

	if got := s.High + s.Medium + s.Low + s.Unknown; got != s.Total {
		t.Errorf("Severity buckets sum to %d, want total %d", got, s.Total)
	}
	if got := s.Pending + s.Validated + s.Resolved + s.False; got != s.Total {
		t.Errorf("Status buckets sum to %d, want total %d", got, s.Total)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if s := Summarize(nil); s != (Summary{}) {
		t.Errorf("Empty input should yield a zero summary, got %+v", s)
	}
}
