package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"oceanwatch/models"
)

type fakeGateway struct {
	reports     map[int64]models.Report
	nextID      int64
	insertCalls int
	insertErr   error
	selectErr   error
	updateErr   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{reports: make(map[int64]models.Report), nextID: 1}
}

func (g *fakeGateway) Insert(ctx context.Context, r *models.Report) (int64, error) {
	g.insertCalls++
	if g.insertErr != nil {
		return 0, g.insertErr
	}
	id := g.nextID
	g.nextID++
	rec := *r
	rec.ID = id
	g.reports[id] = rec
	return id, nil
}

func (g *fakeGateway) SelectAll(ctx context.Context, f Filter) ([]models.Report, error) {
	if g.selectErr != nil {
		return nil, g.selectErr
	}
	var out []models.Report
	for _, r := range g.reports {
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (g *fakeGateway) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	r, ok := g.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	return &r, nil
}

func (g *fakeGateway) UpdateStatus(ctx context.Context, id int64, status models.Status, updatedAt time.Time) error {
	if g.updateErr != nil {
		return g.updateErr
	}
	r, ok := g.reports[id]
	if !ok {
		return ErrReportNotFound
	}
	r.Status = status
	r.UpdatedAt = updatedAt
	g.reports[id] = r
	return nil
}

type fakeMedia struct {
	uploads   int
	uploadErr error
}

func (m *fakeMedia) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	m.uploads++
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	return "http://media.local/" + name, nil
}

func (m *fakeMedia) PublicURL(name string) string {
	return "http://media.local/" + name
}

func testViewConfig() ViewConfig {
	return ViewConfig{
		Default:      Viewport{Latitude: 0, Longitude: 0, LatDelta: 5, LngDelta: 5},
		CitizenSpan:  Span{Lat: 0.0922, Lng: 0.0421},
		AdminMinSpan: Span{Lat: 0, Lng: 0},
		Padding:      1.0,
	}
}

func newTestService(gw *fakeGateway, media *fakeMedia) *Service {
	s := NewService(gw, media, testViewConfig())
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	s.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	return s
}

func pos(lat, lng float64) *Position {
	return &Position{Latitude: lat, Longitude: lng}
}

func validSubmission() Submission {
	return Submission{
		Description: "Large debris field near the pier",
		HazardType:  "Debris",
		Severity:    "high",
		Position:    pos(36.6, -121.9),
	}
}

func TestSubmit(t *testing.T) {
	gw := newFakeGateway()
	svc := newTestService(gw, &fakeMedia{})

	r, err := svc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if gw.insertCalls != 1 {
		t.Errorf("Expected exactly 1 insert, got %d", gw.insertCalls)
	}
	if r.ID == 0 {
		t.Error("Expected a persistence-assigned id")
	}
	if r.Status != models.StatusPending {
		t.Errorf("New report status = %s, want pending", r.Status)
	}
	if r.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set")
	}
	if !r.UpdatedAt.Equal(r.CreatedAt) {
		t.Errorf("New report updated_at %v should equal created_at %v", r.UpdatedAt, r.CreatedAt)
	}
}

func TestSubmitValidation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Submission)
		field  string
	}{
		{name: "empty description", mutate: func(s *Submission) { s.Description = "" }, field: "description"},
		{name: "blank description", mutate: func(s *Submission) { s.Description = "   " }, field: "description"},
		{name: "missing hazard type", mutate: func(s *Submission) { s.HazardType = "" }, field: "hazard_type"},
		{name: "missing severity", mutate: func(s *Submission) { s.Severity = "" }, field: "severity"},
		{name: "no location", mutate: func(s *Submission) { s.Position = nil }, field: "location"},
		{name: "latitude out of range", mutate: func(s *Submission) { s.Position = pos(91, 0) }, field: "latitude"},
		{name: "longitude out of range", mutate: func(s *Submission) { s.Position = pos(0, 181) }, field: "longitude"},
	}

	for _, tc := range testCases {
		gw := newFakeGateway()
		media := &fakeMedia{}
		svc := newTestService(gw, media)

		sub := validSubmission()
		sub.Media = &MediaAttachment{Data: []byte{1, 2, 3}, ContentType: "image/jpeg"}
		tc.mutate(&sub)

		_, err := svc.Submit(context.Background(), sub)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected ValidationError, got %v", tc.name, err)
			continue
		}
		if verr.Field != tc.field {
			t.Errorf("%s: ValidationError field = %s, want %s", tc.name, verr.Field, tc.field)
		}
		if gw.insertCalls != 0 {
			t.Errorf("%s: validation failure must not reach the gateway, got %d inserts", tc.name, gw.insertCalls)
		}
		if media.uploads != 0 {
			t.Errorf("%s: validation failure must not reach media storage, got %d uploads", tc.name, media.uploads)
		}
	}
}

func TestSubmitWithMedia(t *testing.T) {
	gw := newFakeGateway()
	svc := newTestService(gw, &fakeMedia{})

	sub := validSubmission()
	sub.Media = &MediaAttachment{Data: []byte("img"), ContentType: "image/png"}

	r, err := svc.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if r.MediaURL == "" {
		t.Error("Expected media_url to be set from the upload")
	}
}

func TestSubmitMediaFailureAbortsSubmission(t *testing.T) {
	gw := newFakeGateway()
	media := &fakeMedia{uploadErr: fmt.Errorf("bucket unavailable")}
	svc := newTestService(gw, media)

	sub := validSubmission()
	sub.Media = &MediaAttachment{Data: []byte("img"), ContentType: "image/jpeg"}

	_, err := svc.Submit(context.Background(), sub)
	var serr *SubmissionError
	if !errors.As(err, &serr) {
		t.Fatalf("Expected SubmissionError, got %v", err)
	}
	if gw.insertCalls != 0 {
		t.Errorf("Failed upload must abort before any insert, got %d inserts", gw.insertCalls)
	}
}

func TestSubmitMediaPermissionDenied(t *testing.T) {
	gw := newFakeGateway()
	media := &fakeMedia{uploadErr: fmt.Errorf("open media: %w", fs.ErrPermission)}
	svc := newTestService(gw, media)

	sub := validSubmission()
	sub.Media = &MediaAttachment{Data: []byte("img"), ContentType: "image/jpeg"}

	_, err := svc.Submit(context.Background(), sub)
	var perr *PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected PermissionError, got %v", err)
	}
	if gw.insertCalls != 0 {
		t.Errorf("Denied upload must abort before any insert, got %d inserts", gw.insertCalls)
	}
}

func TestSubmitGatewayFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.insertErr = fmt.Errorf("store unreachable")
	svc := newTestService(gw, &fakeMedia{})

	_, err := svc.Submit(context.Background(), validSubmission())
	var serr *SubmissionError
	if !errors.As(err, &serr) {
		t.Fatalf("Expected SubmissionError, got %v", err)
	}
}

func TestPublicIsValidatedSubsetOfAdmin(t *testing.T) {
	gw := newFakeGateway()
	svc := newTestService(gw, &fakeMedia{})

	seed := []models.Status{
		models.StatusPending,
		models.StatusValidated,
		models.StatusResolved,
		models.StatusFalse,
		models.StatusValidated,
	}
	for _, st := range seed {
		r, err := svc.Submit(context.Background(), validSubmission())
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if st != models.StatusPending {
			if _, err := svc.SetStatus(context.Background(), r.ID, st); err != nil {
				t.Fatalf("SetStatus failed: %v", err)
			}
		}
	}

	public, err := svc.Public(context.Background(), nil)
	if err != nil {
		t.Fatalf("Public failed: %v", err)
	}
	admin, err := svc.Admin(context.Background())
	if err != nil {
		t.Fatalf("Admin failed: %v", err)
	}

	if len(admin.Reports) != len(seed) {
		t.Errorf("Admin view has %d reports, want %d", len(admin.Reports), len(seed))
	}
	if len(public.Reports) != 2 {
		t.Errorf("Public view has %d reports, want 2 validated", len(public.Reports))
	}
	adminIDs := make(map[int64]models.Status)
	for _, r := range admin.Reports {
		adminIDs[r.ID] = r.Status
	}
	for _, r := range public.Reports {
		if r.Status != models.StatusValidated {
			t.Errorf("Public view leaked report %d with status %s", r.ID, r.Status)
		}
		if _, ok := adminIDs[r.ID]; !ok {
			t.Errorf("Public view report %d missing from admin view", r.ID)
		}
	}
}

func TestQueryErrorOnStoreFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.selectErr = fmt.Errorf("store unreachable")
	svc := newTestService(gw, &fakeMedia{})

	var qerr *QueryError
	if _, err := svc.Public(context.Background(), nil); !errors.As(err, &qerr) {
		t.Errorf("Public: expected QueryError, got %v", err)
	}
	if _, err := svc.Admin(context.Background()); !errors.As(err, &qerr) {
		t.Errorf("Admin: expected QueryError, got %v", err)
	}
}

func TestSetStatusAdvancesUpdatedAt(t *testing.T) {
	gw := newFakeGateway()
	svc := newTestService(gw, &fakeMedia{})

	r, err := svc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	tr1, err := svc.SetStatus(context.Background(), r.ID, models.StatusValidated)
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if tr1.Report.Status != models.StatusValidated {
		t.Errorf("Status = %s, want validated", tr1.Report.Status)
	}
	if !tr1.Report.UpdatedAt.After(r.UpdatedAt) {
		t.Errorf("updated_at %v should advance past %v", tr1.Report.UpdatedAt, r.UpdatedAt)
	}
	if tr1.From != models.StatusPending {
		t.Errorf("Transition from = %s, want pending", tr1.From)
	}

	// Repeating the same transition keeps the terminal state but still
	// advances updated_at.
	tr2, err := svc.SetStatus(context.Background(), r.ID, models.StatusValidated)
	if err != nil {
		t.Fatalf("Repeated SetStatus failed: %v", err)
	}
	if tr2.Report.Status != models.StatusValidated {
		t.Errorf("Repeated status = %s, want validated", tr2.Report.Status)
	}
	if !tr2.Report.UpdatedAt.After(tr1.Report.UpdatedAt) {
		t.Errorf("Repeated updated_at %v should advance past %v", tr2.Report.UpdatedAt, tr1.Report.UpdatedAt)
	}

	admin, err := svc.Admin(context.Background())
	if err != nil {
		t.Fatalf("Admin failed: %v", err)
	}
	if admin.Reports[0].Status != models.StatusValidated {
		t.Errorf("Admin view status = %s, want validated", admin.Reports[0].Status)
	}

	// created_at never moves.
	if !admin.Reports[0].CreatedAt.Equal(r.CreatedAt) {
		t.Errorf("created_at changed from %v to %v", r.CreatedAt, admin.Reports[0].CreatedAt)
	}
}

func TestSetStatusUnknownReport(t *testing.T) {
	gw := newFakeGateway()
	svc := newTestService(gw, &fakeMedia{})

	_, err := svc.SetStatus(context.Background(), 12345, models.StatusValidated)
	var terr *TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("Expected TransitionError, got %v", err)
	}
	if !errors.Is(err, ErrReportNotFound) {
		t.Errorf("Expected ErrReportNotFound in chain, got %v", err)
	}
}

func TestSetStatusInvalidValue(t *testing.T) {
	gw := newFakeGateway()
	svc := newTestService(gw, &fakeMedia{})

	r, err := svc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	_, err = svc.SetStatus(context.Background(), r.ID, models.Status("archived"))
	var terr *TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("Expected TransitionError for unknown status, got %v", err)
	}
	if got := gw.reports[r.ID].Status; got != models.StatusPending {
		t.Errorf("Report status should stay pending, got %s", got)
	}
}
