package value

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/kailas-cloud/elastimock/internal/domain"
)

var distancePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)(mi|miles|yd|yards|ft|feet|in|inch|km|kilometers|m|meters|cm|centimeters|mm|millimeters|NM|nmi|nauticalmiles)$`)

// millimeters per distance unit
var unitMillimeters = map[string]float64{
	"mi":            1_609_344,
	"miles":         1_609_344,
	"yd":            914.4,
	"yards":         914.4,
	"ft":            304.8,
	"feet":          304.8,
	"in":            25.4,
	"inch":          25.4,
	"km":            1_000_000,
	"kilometers":    1_000_000,
	"m":             1_000,
	"meters":        1_000,
	"cm":            10,
	"centimeters":   10,
	"mm":            1,
	"millimeters":   1,
	"NM":            1_852_000,
	"nmi":           1_852_000,
	"nauticalmiles": 1_852_000,
}

// ParseDistance reads a distance literal such as "2km" or "500m" and
// returns its length in meters. A bare number reads as meters.
func ParseDistance(v any) (float64, error) {
	switch t := v.(type) {
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case float64:
		return t, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, domain.IllegalArgument("failed to parse distance [%s]", t.String())
		}
		return f, nil
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, nil
		}
		m := distancePattern.FindStringSubmatch(t)
		if m == nil {
			return 0, domain.IllegalArgument("failed to parse distance [%s]", t)
		}
		magnitude, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, domain.IllegalArgument("failed to parse distance [%s]", t)
		}
		return magnitude * unitMillimeters[m[2]] / 1000, nil
	default:
		return 0, domain.IllegalArgument("failed to parse distance [%v]", v)
	}
}
