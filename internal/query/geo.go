package query

import (
	geom "github.com/twpayne/go-geom"

	"github.com/kailas-cloud/elastimock/internal/domain"
	"github.com/kailas-cloud/elastimock/internal/domain/document"
	"github.com/kailas-cloud/elastimock/internal/domain/mapping"
	"github.com/kailas-cloud/elastimock/internal/domain/value"
	"github.com/kailas-cloud/elastimock/internal/engine"
	"github.com/kailas-cloud/elastimock/internal/geo"
)

var geoDistanceParams = map[string]bool{
	"distance":          true,
	"distance_type":     true,
	"validation_method": true,
	"_name":             true,
}

type geoDistanceQuery struct {
	field  string
	origin *geom.Point
	meters float64
}

func parseGeoDistance(v any) (Query, error) {
	params, err := asObject("geo_distance", v)
	if err != nil {
		return nil, err
	}

	rawDistance, ok := params["distance"]
	if !ok {
		return nil, domain.Parsing("[geo_distance] query malformed, no [distance] specified")
	}
	meters, err := value.ParseDistance(rawDistance)
	if err != nil {
		return nil, err
	}
	if dt, ok := params["distance_type"].(string); ok && dt != "arc" {
		return nil, domain.IllegalArgument("unsupported distance_type [%s], only [arc] is supported", dt)
	}

	field, spec, err := singleField("geo_distance", params, geoDistanceParams)
	if err != nil {
		return nil, err
	}
	origin, err := value.ParseGeopoint(spec)
	if err != nil {
		return nil, err
	}
	return geoDistanceQuery{field: field, origin: origin, meters: meters}, nil
}

func (q geoDistanceQuery) Resolve(ind *engine.Indice) error {
	_, err := resolveField(ind, q.field, "geo_distance", mapping.TypeGeoPoint)
	return err
}

func (q geoDistanceQuery) Match(ind *engine.Indice, doc *document.Document) (bool, error) {
	mapper, ok := ind.FieldMapper(q.field)
	if !ok {
		return false, nil
	}
	if mapper.Type != mapping.TypeGeoPoint {
		return false, domain.QueryShard(q.field, string(mapper.Type), "geo_distance")
	}
	for _, leaf := range document.ExtractLeaves(doc.Source, mapper.SourcePath) {
		points, err := value.ParseGeopoints(leaf)
		if err != nil {
			return false, err
		}
		for _, p := range points {
			if geo.PointDistanceMeters(q.origin, p) <= q.meters {
				return true, nil
			}
		}
	}
	return false, nil
}

type geoShapeQuery struct {
	field    string
	shape    geom.T
	relation string
}

func parseGeoShape(v any) (Query, error) {
	params, err := asObject("geo_shape", v)
	if err != nil {
		return nil, err
	}
	field, spec, err := singleField("geo_shape", params, map[string]bool{"ignore_unmapped": true})
	if err != nil {
		return nil, err
	}
	body, err := asObject("geo_shape", spec)
	if err != nil {
		return nil, err
	}

	rawShape, ok := body["shape"]
	if !ok {
		return nil, domain.Parsing("[geo_shape] query malformed, no [shape] specified for field [%s]", field)
	}
	shape, err := value.ParseGeoshape(rawShape)
	if err != nil {
		return nil, err
	}

	relation := "intersects"
	if r, ok := body["relation"].(string); ok {
		relation = r
	}
	switch relation {
	case "intersects", "contains":
	default:
		return nil, domain.IllegalArgument("unsupported relation [%s] for [geo_shape] query", relation)
	}
	return geoShapeQuery{field: field, shape: shape, relation: relation}, nil
}

func (q geoShapeQuery) Resolve(ind *engine.Indice) error {
	_, err := resolveField(ind, q.field, "geo_shape", mapping.TypeGeoShape)
	return err
}

func (q geoShapeQuery) Match(ind *engine.Indice, doc *document.Document) (bool, error) {
	mapper, ok := ind.FieldMapper(q.field)
	if !ok {
		return false, nil
	}
	if mapper.Type != mapping.TypeGeoShape {
		return false, domain.QueryShard(q.field, string(mapper.Type), "geo_shape")
	}
	for _, leaf := range document.ExtractLeaves(doc.Source, mapper.SourcePath) {
		shape, err := value.ParseGeoshape(leaf)
		if err != nil {
			return false, err
		}
		var hit bool
		switch q.relation {
		case "contains":
			hit = geo.Contains(shape, q.shape)
		default:
			hit = geo.Intersects(shape, q.shape)
		}
		if hit {
			return true, nil
		}
	}
	return false, nil
}
