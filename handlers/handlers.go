package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"oceanwatch/config"
	"oceanwatch/database"
	"oceanwatch/lifecycle"
	"oceanwatch/models"
	"oceanwatch/rabbitmq"
	ws "oceanwatch/websocket"
)

// Handlers holds all HTTP handlers. The hub and publisher are optional;
// side effects are skipped when they are absent.
type Handlers struct {
	svc       *lifecycle.Service
	db        *database.Database
	hub       *ws.Hub
	publisher *rabbitmq.Publisher
	cfg       *config.Config
}

// NewHandlers creates a new handlers instance.
func NewHandlers(svc *lifecycle.Service, db *database.Database, hub *ws.Hub, publisher *rabbitmq.Publisher, cfg *config.Config) *Handlers {
	return &Handlers{
		svc:       svc,
		db:        db,
		hub:       hub,
		publisher: publisher,
		cfg:       cfg,
	}
}

// SubmitReport accepts a citizen hazard report.
func (h *Handlers) SubmitReport(c *gin.Context) {
	var req models.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
		return
	}

	sub := lifecycle.Submission{
		Description:  req.Description,
		HazardType:   req.HazardType,
		Severity:     req.Severity,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
	}
	if req.Latitude != nil && req.Longitude != nil {
		sub.Position = &lifecycle.Position{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	if len(req.Image) > 0 {
		sub.Media = &lifecycle.MediaAttachment{Data: req.Image, ContentType: req.ImageType}
	}

	report, err := h.svc.Submit(c.Request.Context(), sub)
	if err != nil {
		var verr *lifecycle.ValidationError
		var perr *lifecycle.PermissionError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Report validation failed",
				"error":   verr.Error(),
			})
		case errors.As(err, &perr):
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Capability denied",
				"error":   perr.Error(),
			})
		default:
			log.Errorf("Failed to submit report: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to submit report",
				"error":   err.Error(),
			})
		}
		return
	}

	if h.hub != nil {
		h.hub.BroadcastSubmitted(*report)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Report submitted. It will be reviewed by an admin.",
		"data":    report,
	})
}

// PublicReports returns validated reports plus a viewport centered on the
// caller's position when latitude/longitude query params are present.
func (h *Handlers) PublicReports(c *gin.Context) {
	pos := positionFromQuery(c)

	view, err := h.svc.Public(c.Request.Context(), pos)
	if err != nil {
		log.Errorf("Failed to load public view: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Could not load validated reports",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    view,
	})
}

// AdminReports returns every report newest-first with the dataset viewport
// and the recomputed summary.
func (h *Handlers) AdminReports(c *gin.Context) {
	view, err := h.svc.Admin(c.Request.Context())
	if err != nil {
		log.Errorf("Failed to load admin view: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Could not load reports",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    view,
	})
}

// AdminSummary returns just the severity/status counts.
func (h *Handlers) AdminSummary(c *gin.Context) {
	view, err := h.svc.Admin(c.Request.Context())
	if err != nil {
		log.Errorf("Failed to load summary: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Could not load summary",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    view.Summary,
	})
}

// SetReportStatus applies a moderation transition.
func (h *Handlers) SetReportStatus(c *gin.Context) {
	var req models.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
		return
	}

	status := models.Status(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Status must be one of pending, validated, resolved, false",
		})
		return
	}

	tr, err := h.svc.SetStatus(c.Request.Context(), req.ID, status)
	if err != nil {
		if errors.Is(err, lifecycle.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Report not found",
				"id":      req.ID,
			})
			return
		}
		log.Errorf("Failed to set status for report %d: %v", req.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to update report status",
			"error":   err.Error(),
		})
		return
	}

	h.recordModeration(c, tr)

	c.JSON(http.StatusOK, models.SetStatusResponse{
		Success:   true,
		Message:   "Report status updated to " + string(tr.To),
		ID:        tr.Report.ID,
		Status:    tr.Report.Status,
		UpdatedAt: tr.Report.UpdatedAt,
	})
}

// recordModeration fans the transition out to the audit table, the broker
// and live listeners. All three are best-effort; the transition itself has
// already committed.
func (h *Handlers) recordModeration(c *gin.Context, tr *lifecycle.Transition) {
	adminID := c.GetString("admin_id")

	if h.db != nil {
		ev := database.ModerationEvent{
			Actor:    adminID,
			ActorIP:  c.ClientIP(),
			Action:   "set_status",
			ReportID: tr.Report.ID,
			Details:  gin.H{"from": tr.From, "to": tr.To},
		}
		if err := h.db.InsertModerationEvent(c.Request.Context(), ev); err != nil {
			log.Warnf("Failed to record moderation event: %v", err)
		}
	}

	if h.publisher != nil {
		msg := rabbitmq.ModerationEventMessage{
			ReportID:   tr.Report.ID,
			PrevStatus: tr.From,
			NewStatus:  tr.To,
			Actor:      adminID,
			OccurredAt: tr.Report.UpdatedAt,
		}
		if err := h.publisher.PublishModerationEvent(msg); err != nil {
			log.Warnf("Failed to publish moderation event: %v", err)
		}
	}

	if h.hub != nil {
		h.hub.BroadcastStatusChange(tr.Report, tr.From)
	}
}

// Meta serves the reporter-screen configuration: hazard categories and
// marker palettes.
func (h *Handlers) Meta(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"hazard_types":    h.cfg.HazardTypes,
			"severity_colors": h.cfg.SeverityColors,
			"status_colors":   h.cfg.StatusColors,
		},
	})
}

// WebSocket upgrader
var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now
		return true
	},
}

// ListenReports upgrades the connection and attaches it to the hub.
func (h *Handlers) ListenReports(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live feed unavailable"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("Failed to upgrade connection to WebSocket: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

// HealthCheck returns the service health status.
func (h *Handlers) HealthCheck(c *gin.Context) {
	connected := 0
	if h.hub != nil {
		connected = h.hub.GetStats()
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:           "healthy",
		Service:          "oceanwatch",
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ConnectedClients: connected,
	})
}

func positionFromQuery(c *gin.Context) *lifecycle.Position {
	latStr := c.Query("latitude")
	lngStr := c.Query("longitude")
	if latStr == "" || lngStr == "" {
		return nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil
	}
	return &lifecycle.Position{Latitude: lat, Longitude: lng}
}
