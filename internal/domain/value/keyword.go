package value

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/elastimock/internal/domain"
)

// ParseKeyword normalizes a source value into its keyword string. Strings
// pass through, booleans and numbers take their canonical text form.
func ParseKeyword(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return "", domain.MapperParsing("failed to parse field of type [keyword], value [%v]", v)
	}
}
