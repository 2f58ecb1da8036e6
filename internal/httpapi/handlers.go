package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ppiankov/coastwatch/internal/cluster"
	"github.com/ppiankov/coastwatch/internal/hotspot"
	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/store"
)

// SubmitResponse acknowledges an accepted report.
type SubmitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ClusterResponse is the body of POST /v1/clusters.
type ClusterResponse struct {
	RadiusKm float64         `json:"radius_km"`
	Clusters []model.Cluster `json:"clusters"`
}

// HotspotResponse is the body of POST /v1/hotspots.
type HotspotResponse struct {
	Threshold int                  `json:"threshold"`
	Hotspots  []model.Hotspot      `json:"hotspots"`
	Summary   model.HotspotSummary `json:"summary"`
}

// submitReport stores the report and schedules it. The response does not
// wait for correlation.
func (s *Server) submitReport(w http.ResponseWriter, r *http.Request) {
	var report model.Report
	if err := decodeBody(w, r, &report); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid report body: "+err.Error())
		return
	}
	if err := report.Validate(); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	now := s.clock.Now().UTC()
	report.ID = uuid.NewString()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.CorrelationConfidence = nil
	report.SocialMediaCorrelations = nil
	report.GeneratedKeywords = nil
	report.ProcessingError = ""
	report.StatusHistory = []model.StatusNote{{At: now, Note: "Report submitted"}}

	if err := s.reports.Put(r.Context(), report); err != nil {
		s.logger.Error("store report failed", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "could not store report")
		return
	}

	if err := s.queue.Enqueue(report.ID); err != nil {
		s.logger.Warn("report not queued", "report_id", report.ID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, SubmitResponse{ID: report.ID, Status: "stored_not_queued"})
		return
	}

	s.logger.Info("report accepted", "report_id", report.ID, "hazard", report.HazardType)
	writeJSON(w, http.StatusAccepted, SubmitResponse{ID: report.ID, Status: "queued"})
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := s.reports.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, "report not found: "+id)
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) clusterReports(w http.ResponseWriter, r *http.Request) {
	radius := s.radiusKm
	if raw := r.URL.Query().Get("radius_km"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			s.writeError(w, r, http.StatusBadRequest, "radius_km must be a positive number")
			return
		}
		radius = v
	}

	var reports []model.Report
	if err := decodeBody(w, r, &reports); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid reports body: "+err.Error())
		return
	}

	c := cluster.NewClusterer(radius)
	clusters := c.Cluster(reports)
	if clusters == nil {
		clusters = []model.Cluster{}
	}
	writeJSON(w, http.StatusOK, ClusterResponse{RadiusKm: c.RadiusKm(), Clusters: clusters})
}

func (s *Server) detectHotspots(w http.ResponseWriter, r *http.Request) {
	threshold := s.threshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			s.writeError(w, r, http.StatusBadRequest, "threshold must be a positive integer")
			return
		}
		threshold = v
	}
	verify, _ := strconv.ParseBool(r.URL.Query().Get("verify"))
	urgency := r.URL.Query().Get("urgency")
	if urgency != "" && !model.Urgency(urgency).Valid() {
		s.writeError(w, r, http.StatusBadRequest, "urgency must be High, Medium or Low")
		return
	}
	hazardType := r.URL.Query().Get("hazard_type")

	var posts []model.SocialPost
	if err := decodeBody(w, r, &posts); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid posts body: "+err.Error())
		return
	}

	if s.analyzer != nil {
		posts = s.analyzeMissing(r, posts)
	}

	d := hotspot.NewDetector(threshold, s.clock, s.logger)
	hotspots := d.Detect(posts)
	hotspot.RecordDetected(s.metrics, hotspots)

	if urgency != "" {
		hotspots = hotspot.ByUrgency(hotspots, model.Urgency(urgency))
	}
	if hazardType != "" {
		hotspots = hotspot.ByHazardType(hotspots, hazardType)
	}
	if verify && s.verifier != nil {
		hotspots = s.verifier.VerifyHotspots(r.Context(), hotspots, posts)
	}

	writeJSON(w, http.StatusOK, HotspotResponse{
		Threshold: d.Threshold(),
		Hotspots:  hotspots,
		Summary:   hotspot.Summarize(hotspots),
	})
}

// analyzeMissing runs the analyzer over posts that carry no analysis and
// keeps the rest as submitted.
func (s *Server) analyzeMissing(r *http.Request, posts []model.SocialPost) []model.SocialPost {
	var idx []int
	var pending []model.SocialPost
	for i, p := range posts {
		if p.Analysis == nil {
			idx = append(idx, i)
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		return posts
	}

	analyzed := s.analyzer.Analyze(r.Context(), pending)
	out := make([]model.SocialPost, len(posts))
	copy(out, posts)
	for j, i := range idx {
		out[i] = analyzed[j]
	}
	return out
}
