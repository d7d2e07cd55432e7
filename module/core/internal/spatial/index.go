// Package spatial answers "which stored points lie within radius R of
// center C". Distances are great-circle kilometers as defined by package geo.
package spatial

import (
	"github.com/paulmach/orb"

	"github.com/nandanugg/geotrack/module/core/geo"
)

// Index stores points by id. Implementations are safe for concurrent use.
type Index interface {
	// Insert adds or moves the point stored under id.
	Insert(id string, p orb.Point)
	Remove(id string) bool
	// Query returns the ids whose points satisfy c.Contains. Order is
	// unspecified.
	Query(c geo.Circle) []string
	Len() int
}

var (
	_ Index = (*GridIndex)(nil)
	_ Index = (*ScanIndex)(nil)
)
