// Package trajectory implements TrajectoryService: an ordered map of
// ETA -> 3D waypoint that interpolates a position for a time and exposes
// a savepoint set to the predictor.
package trajectory

import (
	"sort"
	"sync"

	"github.com/cuemby/prognose/internal/errs"
	"github.com/cuemby/prognose/internal/message"
)

// SavePointProvider is the capability a predictor needs from whatever
// supplies its savepoints. Kept as an interface (rather than a concrete
// dependency on *Service) so a CompositeSavePointProvider — combining a
// trajectory service with, say, a fixed horizon list — is a drop-in
// replacement; see original_source/inc/CompositeSavePointProvider.h.
type SavePointProvider interface {
	SavePoints() []message.Timestamp
}

// Service is a TrajectoryService: ordered waypoints plus the savepoint
// set and dirty flag described in spec §4.3.
type Service struct {
	mu sync.Mutex

	etas      []message.Timestamp // kept sorted ascending
	waypoints map[message.Timestamp]message.Point3D
	savepts   map[message.Timestamp]bool
	dirty     bool
}

// New returns an empty TrajectoryService.
func New() *Service {
	return &Service{
		waypoints: make(map[message.Timestamp]message.Point3D),
		savepts:   make(map[message.Timestamp]bool),
	}
}

// SetWaypoint inserts or overwrites the waypoint at eta and marks eta as
// a savepoint.
func (s *Service) SetWaypoint(eta message.Timestamp, point message.Point3D) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.waypoints[eta]; !exists {
		idx := sort.Search(len(s.etas), func(i int) bool { return s.etas[i] >= eta })
		s.etas = append(s.etas, 0)
		copy(s.etas[idx+1:], s.etas[idx:])
		s.etas[idx] = eta
	}
	s.waypoints[eta] = point
	s.savepts[eta] = true
	s.dirty = true
}

// DeleteWaypoint removes eta from both the waypoint map and the
// savepoint set.
func (s *Service) DeleteWaypoint(eta message.Timestamp) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.waypoints[eta]; !exists {
		return
	}
	delete(s.waypoints, eta)
	delete(s.savepts, eta)
	idx := sort.Search(len(s.etas), func(i int) bool { return s.etas[i] >= eta })
	if idx < len(s.etas) && s.etas[idx] == eta {
		s.etas = append(s.etas[:idx], s.etas[idx+1:]...)
	}
	s.dirty = true
}

// ClearWaypoints removes every waypoint and savepoint.
func (s *Service) ClearWaypoints() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.etas = nil
	s.waypoints = make(map[message.Timestamp]message.Point3D)
	s.savepts = make(map[message.Timestamp]bool)
	s.dirty = true
}

// GetSavepoints returns a snapshot of the current savepoint set, sorted
// ascending, and clears the dirty flag.
func (s *Service) GetSavepoints() []message.Timestamp {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]message.Timestamp, 0, len(s.savepts))
	for eta := range s.savepts {
		out = append(out, eta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	s.dirty = false
	return out
}

// SavePoints implements SavePointProvider.
func (s *Service) SavePoints() []message.Timestamp {
	return s.GetSavepoints()
}

// Dirty reports whether the waypoint or savepoint set has changed since
// the last GetSavepoints call.
func (s *Service) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// GetPoint linearly interpolates a position for time between the
// waypoint at or before it and the first waypoint after it. Querying
// before the first waypoint or after the last fails with OutOfRange;
// querying exactly at a waypoint's eta returns that waypoint's point with
// no interpolation.
func (s *Service) GetPoint(t message.Timestamp) (message.Point3D, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.etas) == 0 {
		return message.Point3D{}, errs.New(errs.OutOfRange, "trajectory.GetPoint", "no waypoints set")
	}

	idx := sort.Search(len(s.etas), func(i int) bool { return s.etas[i] >= t })
	if idx < len(s.etas) && s.etas[idx] == t {
		return s.waypoints[s.etas[idx]], nil
	}
	if idx == 0 {
		return message.Point3D{}, errs.New(errs.OutOfRange, "trajectory.GetPoint", "time %v precedes first waypoint", t)
	}
	if idx == len(s.etas) {
		return message.Point3D{}, errs.New(errs.OutOfRange, "trajectory.GetPoint", "time %v follows last waypoint", t)
	}

	lowerETA, upperETA := s.etas[idx-1], s.etas[idx]
	lower, upper := s.waypoints[lowerETA], s.waypoints[upperETA]

	ratio := float64(t-lowerETA) / float64(upperETA-lowerETA)
	return message.Point3D{
		Lat: lower.Lat + ratio*(upper.Lat-lower.Lat),
		Lon: lower.Lon + ratio*(upper.Lon-lower.Lon),
		Alt: lower.Alt + ratio*(upper.Alt-lower.Alt),
	}, nil
}

// CompositeSavePointProvider unions the savepoints of several providers,
// deduplicated and sorted. Supplemented from the original's
// CompositeSavePointProvider.h: the distilled spec only wires a single
// trajectory-backed provider, but keeping SavePointProvider an interface
// and shipping this composite gives the same extension point the
// original had.
type CompositeSavePointProvider struct {
	providers []SavePointProvider
}

// NewComposite builds a CompositeSavePointProvider over providers.
func NewComposite(providers ...SavePointProvider) *CompositeSavePointProvider {
	return &CompositeSavePointProvider{providers: providers}
}

// SavePoints implements SavePointProvider.
func (c *CompositeSavePointProvider) SavePoints() []message.Timestamp {
	seen := make(map[message.Timestamp]bool)
	var out []message.Timestamp
	for _, p := range c.providers {
		for _, eta := range p.SavePoints() {
			if !seen[eta] {
				seen[eta] = true
				out = append(out, eta)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
