package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"oceanwatch/models"
)

// Filter narrows a Gateway select. A nil Status means all statuses.
type Filter struct {
	Status      *models.Status
	NewestFirst bool
}

// Gateway is the persistence collaborator. Implementations must provide
// atomic single-row insert and update; the lifecycle core adds no
// transactions or retries on top.
type Gateway interface {
	Insert(ctx context.Context, r *models.Report) (int64, error)
	SelectAll(ctx context.Context, f Filter) ([]models.Report, error)
	GetByID(ctx context.Context, id int64) (*models.Report, error)
	// UpdateStatus must return ErrReportNotFound when id is unknown.
	UpdateStatus(ctx context.Context, id int64, status models.Status, updatedAt time.Time) error
}

// MediaStore is the media storage collaborator.
type MediaStore interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
	PublicURL(name string) string
}

// Submission is a candidate report as handed in by the citizen screen.
type Submission struct {
	Description  string
	HazardType   string
	Severity     string
	Position     *Position
	ContactName  string
	ContactPhone string
	// Media, when present, is uploaded before the record is persisted. A
	// failed upload aborts the whole submission so no report ever references
	// media that does not exist.
	Media *MediaAttachment
	// MediaURL may carry a pre-resolved URL instead of raw bytes.
	MediaURL string
}

// MediaAttachment is a raw media payload attached to a submission.
type MediaAttachment struct {
	Data        []byte
	ContentType string
}

// PublicView is the citizen-facing projection: validated reports only, plus
// a viewport centered on the caller's device position.
type PublicView struct {
	Reports  []models.Report `json:"reports"`
	Viewport Viewport        `json:"viewport"`
}

// AdminView is the moderation projection: every report newest-first, a
// viewport covering the whole dataset, and the recomputed summary.
type AdminView struct {
	Reports  []models.Report `json:"reports"`
	Viewport Viewport        `json:"viewport"`
	Summary  Summary         `json:"summary"`
}

// Service implements the report lifecycle: intake validation, the two query
// projections, and the moderation state machine. It holds no report state of
// its own; every view re-reads the gateway.
type Service struct {
	gateway Gateway
	media   MediaStore
	view    ViewConfig
	now     func() time.Time
}

// NewService creates a lifecycle service over the given collaborators.
func NewService(gw Gateway, media MediaStore, view ViewConfig) *Service {
	return &Service{
		gateway: gw,
		media:   media,
		view:    view,
		now:     time.Now,
	}
}

// Submit validates a candidate report, uploads its media if any, and
// persists it with status pending. Exactly one insert happens per successful
// call and intake never originates any other status.
func (s *Service) Submit(ctx context.Context, sub Submission) (*models.Report, error) {
	if err := validate(sub); err != nil {
		return nil, err
	}

	mediaURL := sub.MediaURL
	if sub.Media != nil {
		name := mediaObjectName(sub.Media.ContentType)
		url, err := s.media.Upload(ctx, name, sub.Media.Data, sub.Media.ContentType)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil, &PermissionError{Capability: "media storage"}
			}
			return nil, &SubmissionError{Err: fmt.Errorf("media upload: %w", err)}
		}
		mediaURL = url
	}

	now := s.now().UTC()
	rec := &models.Report{
		Description:  strings.TrimSpace(sub.Description),
		HazardType:   strings.TrimSpace(sub.HazardType),
		Severity:     models.Severity(strings.ToLower(strings.TrimSpace(sub.Severity))),
		Latitude:     &sub.Position.Latitude,
		Longitude:    &sub.Position.Longitude,
		ContactName:  sub.ContactName,
		ContactPhone: sub.ContactPhone,
		MediaURL:     mediaURL,
		Status:       models.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	id, err := s.gateway.Insert(ctx, rec)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}
	rec.ID = id

	log.WithField("id", id).WithField("hazard_type", rec.HazardType).Info("report submitted")
	return rec, nil
}

// Public returns the citizen projection. pos is the caller's device
// position; nil means location was denied or unavailable, in which case the
// default viewport is used.
func (s *Service) Public(ctx context.Context, pos *Position) (*PublicView, error) {
	validated := models.StatusValidated
	reports, err := s.gateway.SelectAll(ctx, Filter{Status: &validated, NewestFirst: true})
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	return &PublicView{
		Reports:  reports,
		Viewport: CitizenViewport(pos, s.view),
	}, nil
}

// Admin returns the moderation projection over every report, newest first.
func (s *Service) Admin(ctx context.Context) (*AdminView, error) {
	reports, err := s.gateway.SelectAll(ctx, Filter{NewestFirst: true})
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	return &AdminView{
		Reports:  reports,
		Viewport: AdminViewport(reports, s.view),
		Summary:  Summarize(reports),
	}, nil
}

// Transition is the outcome of a moderation status change.
type Transition struct {
	Report models.Report
	From   models.Status
	To     models.Status
}

// SetStatus applies a moderation transition. The write is deliberately
// last-writer-wins: no version precondition is checked, so concurrent
// administrators race and the later write overwrites the earlier one.
// updated_at advances on every call, repeat-same-status included.
func (s *Service) SetStatus(ctx context.Context, id int64, status models.Status) (*Transition, error) {
	if !status.Valid() {
		return nil, &TransitionError{ID: id, Err: fmt.Errorf("unknown status %q", status)}
	}

	cur, err := s.gateway.GetByID(ctx, id)
	if err != nil {
		return nil, &TransitionError{ID: id, Err: err}
	}

	if !TransitionAllowed(cur.Status, status) {
		return nil, &TransitionError{ID: id, Err: fmt.Errorf("transition %s -> %s denied", cur.Status, status)}
	}

	updatedAt := s.now().UTC()
	if err := s.gateway.UpdateStatus(ctx, id, status, updatedAt); err != nil {
		return nil, &TransitionError{ID: id, Err: err}
	}

	log.WithField("id", id).WithField("from", cur.Status).WithField("to", status).Info("report status changed")

	from := cur.Status
	cur.Status = status
	cur.UpdatedAt = updatedAt
	return &Transition{Report: *cur, From: from, To: status}, nil
}

func validate(sub Submission) error {
	if strings.TrimSpace(sub.Description) == "" {
		return &ValidationError{Field: "description", Reason: "is required"}
	}
	if strings.TrimSpace(sub.HazardType) == "" {
		return &ValidationError{Field: "hazard_type", Reason: "is required"}
	}
	if strings.TrimSpace(sub.Severity) == "" {
		return &ValidationError{Field: "severity", Reason: "is required"}
	}
	// No fallback position is ever substituted: a submission without a
	// resolved location is blocked outright.
	if sub.Position == nil {
		return &ValidationError{Field: "location", Reason: "is unavailable"}
	}
	if sub.Position.Latitude < -90 || sub.Position.Latitude > 90 {
		return &ValidationError{Field: "latitude", Reason: "must be between -90 and 90"}
	}
	if sub.Position.Longitude < -180 || sub.Position.Longitude > 180 {
		return &ValidationError{Field: "longitude", Reason: "must be between -180 and 180"}
	}
	return nil
}

func mediaObjectName(contentType string) string {
	return "public/" + uuid.NewString() + extForContentType(contentType)
}

func extForContentType(ct string) string {
	switch strings.ToLower(ct) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	default:
		return ".bin"
	}
}
