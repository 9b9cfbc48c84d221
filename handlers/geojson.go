package handlers

import (
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"
)

// PublicReportsGeoJSON exports validated reports as a GeoJSON
// FeatureCollection for map layers. Reports without coordinates carry no
// geometry and are skipped.
func (h *Handlers) PublicReportsGeoJSON(c *gin.Context) {
	view, err := h.svc.Public(c.Request.Context(), nil)
	if err != nil {
		log.Errorf("Failed to load reports for GeoJSON export: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Could not export reports",
			"error":   err.Error(),
		})
		return
	}

	fc := geojson.NewFeatureCollection()
	for i := range view.Reports {
		r := &view.Reports[i]
		if !r.HasCoordinates() {
			continue
		}

		f := geojson.NewPointFeature([]float64{*r.Longitude, *r.Latitude})
		f.SetProperty("id", r.ID)
		f.SetProperty("hazard_type", r.HazardType)
		f.SetProperty("severity", string(r.Severity))
		f.SetProperty("description", r.Description)
		f.SetProperty("created_at", r.CreatedAt.Format(time.RFC3339))
		if r.MediaURL != "" {
			f.SetProperty("media_url", r.MediaURL)
		}
		if color, ok := h.cfg.SeverityColors[string(r.Severity)]; ok {
			f.SetProperty("marker-color", color)
		} else {
			f.SetProperty("marker-color", h.cfg.SeverityColors["unknown"])
		}

		fc.AddFeature(f)
	}

	c.JSON(http.StatusOK, fc)
}
