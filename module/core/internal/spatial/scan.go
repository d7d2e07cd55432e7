package spatial

import (
	"sync"

	"github.com/paulmach/orb"

	"github.com/nandanugg/geotrack/module/core/geo"
)

// ScanIndex tests every stored point on each query. It is O(n) per query and
// exists as the correctness reference for GridIndex; do not use it for
// production-sized data.
type ScanIndex struct {
	mu     sync.RWMutex
	points map[string]orb.Point
}

func NewScanIndex() *ScanIndex {
	return &ScanIndex{points: make(map[string]orb.Point)}
}

func (s *ScanIndex) Insert(id string, p orb.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[id] = p
}

func (s *ScanIndex) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.points[id]; !ok {
		return false
	}
	delete(s.points, id)
	return true
}

func (s *ScanIndex) Query(c geo.Circle) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, p := range s.points {
		if c.Contains(p) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *ScanIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}
