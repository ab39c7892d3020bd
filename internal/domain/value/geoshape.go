package value

import (
	"strings"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/kailas-cloud/elastimock/internal/domain"
)

// ParseGeoshape reads a shape from either a WKT string or a GeoJSON
// style object with "type" and "coordinates" keys. Coordinates follow
// the GeoJSON lon, lat order.
func ParseGeoshape(v any) (geom.T, error) {
	switch t := v.(type) {
	case string:
		g, err := wkt.Unmarshal(t)
		if err != nil {
			return nil, geoshapeError(t)
		}
		return g, nil
	case map[string]any:
		return parseGeoshapeObject(t)
	default:
		return nil, geoshapeError(v)
	}
}

func parseGeoshapeObject(obj map[string]any) (geom.T, error) {
	kind, _ := obj["type"].(string)
	coords := obj["coordinates"]
	switch strings.ToLower(kind) {
	case "point":
		c, ok := parseCoord(coords)
		if !ok {
			return nil, geoshapeError(obj)
		}
		return geom.NewPointFlat(geom.XY, c), nil
	case "polygon":
		return parsePolygon(coords)
	case "multipolygon":
		arr, ok := coords.([]any)
		if !ok {
			return nil, geoshapeError(obj)
		}
		mp := geom.NewMultiPolygon(geom.XY)
		for _, el := range arr {
			poly, err := parsePolygon(el)
			if err != nil {
				return nil, err
			}
			if err := mp.Push(poly); err != nil {
				return nil, geoshapeError(obj)
			}
		}
		return mp, nil
	default:
		return nil, domain.MapperParsing("unknown geo_shape type [%s]", kind)
	}
}

func parsePolygon(coords any) (*geom.Polygon, error) {
	rings, ok := coords.([]any)
	if !ok || len(rings) == 0 {
		return nil, geoshapeError(coords)
	}
	var flat []float64
	var ends []int
	for _, r := range rings {
		ring, ok := r.([]any)
		if !ok {
			return nil, geoshapeError(coords)
		}
		for _, p := range ring {
			c, ok := parseCoord(p)
			if !ok {
				return nil, geoshapeError(coords)
			}
			flat = append(flat, c...)
		}
		ends = append(ends, len(flat))
	}
	return geom.NewPolygonFlat(geom.XY, flat, ends), nil
}

func parseCoord(v any) ([]float64, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) < 2 {
		return nil, false
	}
	lon, okLon := asFloat(arr[0])
	lat, okLat := asFloat(arr[1])
	if !okLon || !okLat {
		return nil, false
	}
	return []float64{lon, lat}, true
}

func geoshapeError(v any) error {
	return domain.MapperParsing("failed to parse field of type [geo_shape], value [%v]", v)
}
