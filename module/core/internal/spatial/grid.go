package spatial

import (
	"math"
	"sync"

	"github.com/paulmach/orb"

	"github.com/nandanugg/geotrack/module/core/geo"
)

const DefaultCellSizeKm = 10.0

// GridIndex buckets points into fixed lon/lat cells. A query visits only the
// cells overlapping the circle's bounding boxes and then applies the exact
// haversine test, so cost grows with the number of nearby points rather than
// with the size of the index.
type GridIndex struct {
	mu       sync.RWMutex
	cellSize float64 // degrees
	cells    map[cellKey]map[string]orb.Point
	entries  map[string]cellKey
}

type cellKey struct {
	X, Y int
}

func NewGridIndex(cellSizeKm float64) *GridIndex {
	if cellSizeKm <= 0 {
		cellSizeKm = DefaultCellSizeKm
	}
	return &GridIndex{
		cellSize: cellSizeKm / geo.KmPerDegree,
		cells:    make(map[cellKey]map[string]orb.Point),
		entries:  make(map[string]cellKey),
	}
}

func (g *GridIndex) key(p orb.Point) cellKey {
	return cellKey{
		X: int(math.Floor(p.Lon() / g.cellSize)),
		Y: int(math.Floor(p.Lat() / g.cellSize)),
	}
}

func (g *GridIndex) Insert(id string, p orb.Point) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.entries[id]; ok {
		g.removeUnlocked(id, old)
	}

	k := g.key(p)
	cell, ok := g.cells[k]
	if !ok {
		cell = make(map[string]orb.Point, 4)
		g.cells[k] = cell
	}
	cell[id] = p
	g.entries[id] = k
}

func (g *GridIndex) Remove(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	k, ok := g.entries[id]
	if !ok {
		return false
	}
	g.removeUnlocked(id, k)
	return true
}

// removeUnlocked drops id from cell k (caller must hold the write lock).
func (g *GridIndex) removeUnlocked(id string, k cellKey) {
	delete(g.entries, id)
	cell := g.cells[k]
	delete(cell, id)
	if len(cell) == 0 {
		delete(g.cells, k)
	}
}

func (g *GridIndex) Query(c geo.Circle) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ids []string
	seen := make(map[cellKey]struct{})
	visit := func(k cellKey, cell map[string]orb.Point) {
		if _, done := seen[k]; done {
			return
		}
		seen[k] = struct{}{}
		for id, p := range cell {
			if c.Contains(p) {
				ids = append(ids, id)
			}
		}
	}

	for _, b := range c.Bounds() {
		lo, hi := g.key(b.Min), g.key(b.Max)
		span := (hi.X - lo.X + 1) * (hi.Y - lo.Y + 1)

		// Large boxes (poles, huge radii) are cheaper to answer by walking
		// the occupied cells.
		if span > len(g.cells) {
			for k, cell := range g.cells {
				if k.X >= lo.X && k.X <= hi.X && k.Y >= lo.Y && k.Y <= hi.Y {
					visit(k, cell)
				}
			}
			continue
		}

		for x := lo.X; x <= hi.X; x++ {
			for y := lo.Y; y <= hi.Y; y++ {
				k := cellKey{X: x, Y: y}
				if cell, ok := g.cells[k]; ok {
					visit(k, cell)
				}
			}
		}
	}
	return ids
}

func (g *GridIndex) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// NumCells returns the number of occupied cells.
func (g *GridIndex) NumCells() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cells)
}
