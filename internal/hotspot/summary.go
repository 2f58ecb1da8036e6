package hotspot

import (
	"math"

	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/observability"
)

// Summarize rolls a batch of hotspots up into counts.
func Summarize(hotspots []model.Hotspot) model.HotspotSummary {
	summary := model.HotspotSummary{
		UrgencyBreakdown: map[model.Urgency]int{
			model.UrgencyHigh:   0,
			model.UrgencyMedium: 0,
			model.UrgencyLow:    0,
		},
		HazardTypeBreakdown: map[string]int{},
	}

	for _, h := range hotspots {
		u := h.OverallUrgency
		if !u.Valid() {
			u = model.UrgencyLow
		}
		hazard := h.HazardType
		if hazard == "" {
			hazard = model.HazardOther
		}
		summary.UrgencyBreakdown[u]++
		summary.HazardTypeBreakdown[hazard]++
		summary.TotalPostsInHotspots += h.PostCount
	}

	summary.TotalHotspots = len(hotspots)
	if len(hotspots) > 0 {
		avg := float64(summary.TotalPostsInHotspots) / float64(len(hotspots))
		summary.AveragePostsPerHotspot = math.Round(avg*10) / 10
	}
	return summary
}

// ByUrgency keeps the hotspots whose overall urgency is u.
func ByUrgency(hotspots []model.Hotspot, u model.Urgency) []model.Hotspot {
	out := []model.Hotspot{}
	for _, h := range hotspots {
		if h.OverallUrgency == u {
			out = append(out, h)
		}
	}
	return out
}

// ByHazardType keeps the hotspots of one hazard type.
func ByHazardType(hotspots []model.Hotspot, hazard string) []model.Hotspot {
	out := []model.Hotspot{}
	for _, h := range hotspots {
		if h.HazardType == hazard {
			out = append(out, h)
		}
	}
	return out
}

// RecordDetected counts hotspots by overall urgency. A nil m is a no-op.
func RecordDetected(m *observability.Metrics, hotspots []model.Hotspot) {
	if m == nil {
		return
	}
	for _, h := range hotspots {
		m.HotspotsDetected.WithLabelValues(string(h.OverallUrgency)).Inc()
	}
}
