// Package geo supplies the planar and spherical geometry the geo_point
// and geo_shape value variants delegate to: great-circle distance,
// point-in-polygon tests, and intersects/contains shape relations over
// go-geom geometries.
package geo

import (
	"math"

	geom "github.com/twpayne/go-geom"
)

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// Haversine returns the great-circle distance in meters between two
// points specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// PointDistanceMeters returns the great-circle distance between two
// points stored in lon/lat order.
func PointDistanceMeters(a, b *geom.Point) float64 {
	return Haversine(a.Y(), a.X(), b.Y(), b.X())
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Intersects reports whether two geometries share at least one point.
// Supported geometries: Point, Polygon, MultiPolygon.
func Intersects(a, b geom.T) bool {
	switch ag := a.(type) {
	case *geom.Point:
		switch bg := b.(type) {
		case *geom.Point:
			return samePoint(ag, bg)
		default:
			return coversPoint(b, ag)
		}
	case *geom.Polygon:
		if p, ok := b.(*geom.Point); ok {
			return coversPoint(ag, p)
		}
		return polygonsIntersect(polygons(a), polygons(b))
	case *geom.MultiPolygon:
		if p, ok := b.(*geom.Point); ok {
			return coversPoint(ag, p)
		}
		return polygonsIntersect(polygons(a), polygons(b))
	}
	return false
}

// Contains reports whether geometry a fully contains geometry b.
func Contains(a, b geom.T) bool {
	switch bg := b.(type) {
	case *geom.Point:
		if ap, ok := a.(*geom.Point); ok {
			return samePoint(ap, bg)
		}
		return coversPoint(a, bg)
	case *geom.Polygon:
		return polygonsContain(polygons(a), polygons(b))
	case *geom.MultiPolygon:
		return polygonsContain(polygons(a), polygons(b))
	}
	return false
}

func samePoint(a, b *geom.Point) bool {
	return a.X() == b.X() && a.Y() == b.Y()
}

// coversPoint reports whether any polygon of g covers p (interior or boundary).
func coversPoint(g geom.T, p *geom.Point) bool {
	pt := geom.Coord{p.X(), p.Y()}
	for _, poly := range polygons(g) {
		if polygonCoversCoord(poly, pt) {
			return true
		}
	}
	return false
}

func polygons(g geom.T) []*geom.Polygon {
	switch t := g.(type) {
	case *geom.Polygon:
		return []*geom.Polygon{t}
	case *geom.MultiPolygon:
		out := make([]*geom.Polygon, 0, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			out = append(out, t.Polygon(i))
		}
		return out
	}
	return nil
}

// polygonCoversCoord tests the exterior ring minus any interior rings.
func polygonCoversCoord(poly *geom.Polygon, c geom.Coord) bool {
	rings := poly.Coords()
	if len(rings) == 0 {
		return false
	}
	if !coordInRing(c, rings[0]) {
		return false
	}
	for _, hole := range rings[1:] {
		if coordInRing(c, hole) && !coordOnRing(c, hole) {
			return false
		}
	}
	return true
}

// coordInRing is a ray cast along +X; boundary points count as inside.
func coordInRing(c geom.Coord, ring []geom.Coord) bool {
	if coordOnRing(c, ring) {
		return true
	}
	inside := false
	n := len(ring)
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		if (a.Y() > c.Y()) != (b.Y() > c.Y()) {
			x := a.X() + (c.Y()-a.Y())*(b.X()-a.X())/(b.Y()-a.Y())
			if c.X() < x {
				inside = !inside
			}
		}
	}
	return inside
}

func coordOnRing(c geom.Coord, ring []geom.Coord) bool {
	n := len(ring)
	for i := 0; i < n; i++ {
		if onSegment(ring[i], ring[(i+1)%n], c) {
			return true
		}
	}
	return false
}

func onSegment(a, b, p geom.Coord) bool {
	cross := (b.X()-a.X())*(p.Y()-a.Y()) - (b.Y()-a.Y())*(p.X()-a.X())
	if math.Abs(cross) > 1e-12 {
		return false
	}
	dot := (p.X()-a.X())*(b.X()-a.X()) + (p.Y()-a.Y())*(b.Y()-a.Y())
	if dot < 0 {
		return false
	}
	sq := (b.X()-a.X())*(b.X()-a.X()) + (b.Y()-a.Y())*(b.Y()-a.Y())
	return dot <= sq
}

func segmentsCross(a1, a2, b1, b2 geom.Coord) bool {
	d1 := orientation(b1, b2, a1)
	d2 := orientation(b1, b2, a2)
	d3 := orientation(a1, a2, b1)
	d4 := orientation(a1, a2, b2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(b1, b2, a1)) ||
		(d2 == 0 && onSegment(b1, b2, a2)) ||
		(d3 == 0 && onSegment(a1, a2, b1)) ||
		(d4 == 0 && onSegment(a1, a2, b2))
}

func orientation(a, b, c geom.Coord) float64 {
	return (b.X()-a.X())*(c.Y()-a.Y()) - (b.Y()-a.Y())*(c.X()-a.X())
}

func polygonsIntersect(as, bs []*geom.Polygon) bool {
	for _, a := range as {
		for _, b := range bs {
			if polygonPairIntersects(a, b) {
				return true
			}
		}
	}
	return false
}

func polygonPairIntersects(a, b *geom.Polygon) bool {
	ea, eb := exterior(a), exterior(b)
	if len(ea) == 0 || len(eb) == 0 {
		return false
	}
	for i := 0; i < len(ea); i++ {
		for j := 0; j < len(eb); j++ {
			if segmentsCross(ea[i], ea[(i+1)%len(ea)], eb[j], eb[(j+1)%len(eb)]) {
				return true
			}
		}
	}
	// No edge crossings: one polygon may sit entirely inside the other.
	return polygonCoversCoord(a, eb[0]) || polygonCoversCoord(b, ea[0])
}

func polygonsContain(as, bs []*geom.Polygon) bool {
	if len(as) == 0 || len(bs) == 0 {
		return false
	}
	for _, b := range bs {
		contained := false
		for _, a := range as {
			if polygonPairContains(a, b) {
				contained = true
				break
			}
		}
		if !contained {
			return false
		}
	}
	return true
}

func polygonPairContains(a, b *geom.Polygon) bool {
	eb := exterior(b)
	if len(eb) == 0 {
		return false
	}
	for _, c := range eb {
		if !polygonCoversCoord(a, c) {
			return false
		}
	}
	ea := exterior(a)
	for i := 0; i < len(ea); i++ {
		for j := 0; j < len(eb); j++ {
			if segmentsCross(ea[i], ea[(i+1)%len(ea)], eb[j], eb[(j+1)%len(eb)]) {
				return false
			}
		}
	}
	return true
}

func exterior(p *geom.Polygon) []geom.Coord {
	rings := p.Coords()
	if len(rings) == 0 {
		return nil
	}
	return rings[0]
}
