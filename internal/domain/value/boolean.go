package value

import "github.com/kailas-cloud/elastimock/internal/domain"

// ParseBoolean interprets a source value as a boolean. Besides JSON
// booleans it accepts the strings "true", "false" and "", where the
// empty string reads as false.
func ParseBoolean(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch t {
		case "true":
			return true, nil
		case "false", "":
			return false, nil
		}
	}
	return false, domain.MapperParsing("failed to parse field of type [boolean], only [true] or [false] are allowed, got [%v]", v)
}
