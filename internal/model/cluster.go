package model

import "time"

// Cluster groups reports that fall within a fixed radius of a seed report.
type Cluster struct {
	ID            string    `json:"cluster_id"`
	Centroid      GeoPoint  `json:"centroid"`
	LocationName  string    `json:"location_name"`
	Reports       []Report  `json:"reports"`
	Count         int       `json:"count"`
	FirstReport   time.Time `json:"first_report"`
	LastReport    time.Time `json:"last_report"`
	HazardTypes   []string  `json:"hazard_types"`
	Severities    []string  `json:"severities"`
	AvgConfidence float64   `json:"avg_confidence"`
}
