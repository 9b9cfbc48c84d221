package lifecycle

import (
	"math"

	"github.com/golang/geo/s2"

	"oceanwatch/models"
)

// Position is a device or report location in degrees.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Span is a viewport extent in degrees of latitude and longitude.
type Span struct {
	Lat float64 `json:"latitude_delta"`
	Lng float64 `json:"longitude_delta"`
}

// Viewport is the map center and span a screen should render with.
type Viewport struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	LatDelta  float64 `json:"latitude_delta"`
	LngDelta  float64 `json:"longitude_delta"`
}

// ViewConfig carries the viewport defaults that used to live as module-level
// constants in the screens. It is passed in so the core has no presentation
// dependency.
type ViewConfig struct {
	// Default is used whenever there is nothing to center on: an admin view
	// with no located reports, or a citizen view without a device position.
	Default Viewport
	// CitizenSpan is the span of the citizen map around the device position.
	CitizenSpan Span
	// AdminMinSpan is the floor for the admin span so a single cluster of
	// reports still renders with a wide view.
	AdminMinSpan Span
	// Padding scales the admin span beyond the exact data bounds.
	Padding float64
}

// CitizenViewport centers on the caller's device position. A nil position
// (location denied or unavailable) falls back to the default viewport.
func CitizenViewport(pos *Position, cfg ViewConfig) Viewport {
	if pos == nil {
		return cfg.Default
	}
	return Viewport{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		LatDelta:  cfg.CitizenSpan.Lat,
		LngDelta:  cfg.CitizenSpan.Lng,
	}
}

// AdminViewport centers on the arithmetic mean of all located reports and
// sizes the span so every located report fits. Reports without coordinates
// are ignored; with no located reports the default viewport is returned.
func AdminViewport(reports []models.Report, cfg ViewConfig) Viewport {
	rect := s2.EmptyRect()
	var sumLat, sumLng float64
	n := 0
	for i := range reports {
		if !reports[i].HasCoordinates() {
			continue
		}
		lat, lng := *reports[i].Latitude, *reports[i].Longitude
		rect = rect.AddPoint(s2.LatLngFromDegrees(lat, lng))
		sumLat += lat
		sumLng += lng
		n++
	}
	if n == 0 {
		return cfg.Default
	}

	centerLat := sumLat / float64(n)
	centerLng := sumLng / float64(n)

	// The span is measured from the mean center, not the bounding-box center,
	// so the larger side of an asymmetric spread decides it.
	lo, hi := rect.Lo(), rect.Hi()
	latDelta := 2 * math.Max(hi.Lat.Degrees()-centerLat, centerLat-lo.Lat.Degrees()) * cfg.Padding
	lngDelta := 2 * math.Max(hi.Lng.Degrees()-centerLng, centerLng-lo.Lng.Degrees()) * cfg.Padding

	if latDelta < cfg.AdminMinSpan.Lat {
		latDelta = cfg.AdminMinSpan.Lat
	}
	if lngDelta < cfg.AdminMinSpan.Lng {
		lngDelta = cfg.AdminMinSpan.Lng
	}

	return Viewport{
		Latitude:  centerLat,
		Longitude: centerLng,
		LatDelta:  latDelta,
		LngDelta:  lngDelta,
	}
}
