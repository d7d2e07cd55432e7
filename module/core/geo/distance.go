// Package geo holds the spherical math used for geofence containment.
//
// Unit contract: coordinates are degrees as orb.Point{lon, lat}; distances
// and circle radii are kilometers. Place radii enter in meters and are
// converted exactly once, by MetersToKm.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusKm is the sphere radius used by Distance.
const EarthRadiusKm = 6378.1

// KmPerDegree is the arc length of one degree on the sphere.
const KmPerDegree = EarthRadiusKm * math.Pi / 180

// boundPad widens prefilter boxes so rounding never drops a point sitting
// exactly on the circle.
const boundPad = 1e-6

// Distance returns the great-circle distance between a and b in kilometers.
func Distance(a, b orb.Point) float64 {
	lat1 := toRad(a.Lat())
	lat2 := toRad(b.Lat())
	dLat := toRad(b.Lat() - a.Lat())
	dLon := toRad(b.Lon() - a.Lon())

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

func MetersToKm(m int) float64 {
	return float64(m) / 1000.0
}

// Circle is a closed disk on the sphere.
type Circle struct {
	Center   orb.Point
	RadiusKm float64
}

// NewCircle builds the query circle for a place radius given in meters.
func NewCircle(center orb.Point, radiusMeters int) Circle {
	return Circle{Center: center, RadiusKm: MetersToKm(radiusMeters)}
}

// Contains reports whether p lies inside the circle, boundary included.
func (c Circle) Contains(p orb.Point) bool {
	return Distance(c.Center, p) <= c.RadiusKm
}

// Bounds returns one or two lon/lat boxes that together cover the circle.
// A circle crossing the antimeridian is split in two; one touching a pole
// spans every longitude.
func (c Circle) Bounds() []orb.Bound {
	if c.RadiusKm < 0 || math.IsNaN(c.RadiusKm) {
		return nil
	}
	angular := c.RadiusKm / EarthRadiusKm
	dLat := toDeg(angular) + boundPad
	minLat := c.Center.Lat() - dLat
	maxLat := c.Center.Lat() + dLat

	if minLat <= -90 || maxLat >= 90 {
		return []orb.Bound{fullLon(math.Max(minLat, -90), math.Min(maxLat, 90))}
	}

	s := math.Sin(angular) / math.Cos(toRad(c.Center.Lat()))
	if s >= 1 {
		return []orb.Bound{fullLon(minLat, maxLat)}
	}
	dLon := toDeg(math.Asin(s)) + boundPad
	if dLon >= 180 {
		return []orb.Bound{fullLon(minLat, maxLat)}
	}

	minLon := c.Center.Lon() - dLon
	maxLon := c.Center.Lon() + dLon
	switch {
	case minLon < -180:
		return []orb.Bound{
			box(minLon+360, minLat, 180, maxLat),
			box(-180, minLat, maxLon, maxLat),
		}
	case maxLon > 180:
		return []orb.Bound{
			box(minLon, minLat, 180, maxLat),
			box(-180, minLat, maxLon-360, maxLat),
		}
	}
	return []orb.Bound{box(minLon, minLat, maxLon, maxLat)}
}

func fullLon(minLat, maxLat float64) orb.Bound {
	return box(-180, minLat, 180, maxLat)
}

func box(minLon, minLat, maxLon, maxLat float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
