// Package cluster groups citizen reports that plausibly describe the same event.
package cluster

import (
	"sort"

	"github.com/google/uuid"

	"github.com/ppiankov/coastwatch/internal/geo"
	"github.com/ppiankov/coastwatch/internal/model"
)

// DefaultRadiusKm is the clustering radius used when none is configured.
const DefaultRadiusKm = 4.0

// Clusterer performs greedy seed-radius clustering.
//
// Reports are visited in input order. Each unassigned report seeds a new
// cluster and pulls in every other unassigned report within the radius of
// the seed itself (not of the growing cluster), so membership is never
// transitive and the result depends on input order.
type Clusterer struct {
	radiusKm float64
	newID    func() string
}

// NewClusterer creates a clusterer. A non-positive radius selects DefaultRadiusKm.
func NewClusterer(radiusKm float64) *Clusterer {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return &Clusterer{
		radiusKm: radiusKm,
		newID:    func() string { return uuid.NewString() },
	}
}

// RadiusKm returns the effective clustering radius.
func (c *Clusterer) RadiusKm() float64 {
	return c.radiusKm
}

// Cluster groups the geotagged reports and returns clusters ordered by
// member count, largest first. Reports without coordinates are ignored.
func (c *Clusterer) Cluster(reports []model.Report) []model.Cluster {
	located := make([]model.Report, 0, len(reports))
	for _, r := range reports {
		if r.HasCoordinates() {
			located = append(located, r)
		}
	}

	clusters := []model.Cluster{}
	assigned := make([]bool, len(located))

	for i, seed := range located {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		members := []model.Report{seed}

		for j := i + 1; j < len(located); j++ {
			if assigned[j] {
				continue
			}
			other := located[j]
			d := geo.DistanceKm(*seed.Latitude, *seed.Longitude, *other.Latitude, *other.Longitude)
			if d <= c.radiusKm {
				assigned[j] = true
				members = append(members, other)
			}
		}

		clusters = append(clusters, c.build(seed, members))
	}

	sort.SliceStable(clusters, func(a, b int) bool {
		return clusters[a].Count > clusters[b].Count
	})

	return clusters
}

// build computes centroid and aggregate metadata once membership is final.
func (c *Clusterer) build(seed model.Report, members []model.Report) model.Cluster {
	var sumLat, sumLon, sumConf float64
	hazards := newOrderedSet()
	severities := newOrderedSet()
	first := members[0].CreatedAt
	last := members[0].CreatedAt

	for _, m := range members {
		sumLat += *m.Latitude
		sumLon += *m.Longitude
		sumConf += m.Confidence()
		hazards.add(m.HazardType)
		severities.add(m.Severity)
		if m.CreatedAt.Before(first) {
			first = m.CreatedAt
		}
		if m.CreatedAt.After(last) {
			last = m.CreatedAt
		}
	}

	n := float64(len(members))
	return model.Cluster{
		ID: c.newID(),
		Centroid: model.GeoPoint{
			Latitude:  sumLat / n,
			Longitude: sumLon / n,
		},
		LocationName:  locationName(seed),
		Reports:       members,
		Count:         len(members),
		FirstReport:   first,
		LastReport:    last,
		HazardTypes:   hazards.items,
		Severities:    severities.items,
		AvgConfidence: sumConf / n,
	}
}

// locationName prefers the seed's address, then "city, state".
func locationName(r model.Report) string {
	if r.Address != "" {
		return r.Address
	}
	if r.City != "" || r.State != "" {
		return r.City + ", " + r.State
	}
	return model.UnknownLocation
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool), items: []string{}}
}

func (s *orderedSet) add(v string) {
	if v == "" || s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}
