package value

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mmcloughlin/geohash"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/kailas-cloud/elastimock/internal/domain"
)

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// ParseGeopoint reads a single point from any of the source forms a
// geo_point field accepts: an object with lat/lon keys, a WKT point, a
// "lat,lon" string, a geohash, or a [lon, lat] array.
func ParseGeopoint(v any) (*geom.Point, error) {
	switch t := v.(type) {
	case map[string]any:
		lat, okLat := asFloat(t["lat"])
		lon, okLon := asFloat(t["lon"])
		if !okLat || !okLon {
			return nil, geopointError(v)
		}
		return geom.NewPointFlat(geom.XY, []float64{lon, lat}), nil
	case string:
		return parseGeopointString(t)
	case []any:
		if len(t) != 2 && len(t) != 3 {
			return nil, geopointError(v)
		}
		lon, okLon := asFloat(t[0])
		lat, okLat := asFloat(t[1])
		if !okLon || !okLat {
			return nil, geopointError(v)
		}
		return geom.NewPointFlat(geom.XY, []float64{lon, lat}), nil
	default:
		return nil, geopointError(v)
	}
}

// ParseGeopoints reads one or more points. An array source is tried as
// a single [lon, lat] point first, then element by element.
func ParseGeopoints(v any) ([]*geom.Point, error) {
	if p, err := ParseGeopoint(v); err == nil {
		return []*geom.Point{p}, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, geopointError(v)
	}
	points := make([]*geom.Point, 0, len(arr))
	for _, el := range arr {
		p, err := ParseGeopoint(el)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

func parseGeopointString(s string) (*geom.Point, error) {
	if g, err := wkt.Unmarshal(s); err == nil {
		if p, ok := g.(*geom.Point); ok {
			return p, nil
		}
		return nil, geopointError(s)
	}
	if lat, lon, ok := splitLatLon(s); ok {
		return geom.NewPointFlat(geom.XY, []float64{lon, lat}), nil
	}
	if isGeohash(s) {
		lat, lon := geohash.Decode(s)
		return geom.NewPointFlat(geom.XY, []float64{lon, lat}), nil
	}
	return nil, geopointError(s)
}

func splitLatLon(s string) (lat, lon float64, ok bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

func isGeohash(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune(geohashAlphabet, c) {
			return false
		}
	}
	return true
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func geopointError(v any) error {
	return domain.MapperParsing("failed to parse field of type [geo_point], value [%v]", v)
}
