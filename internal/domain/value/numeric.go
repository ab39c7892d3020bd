package value

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/kailas-cloud/elastimock/internal/domain"
)

// ParseLong interprets a source value as a 64-bit integer. Strings are
// accepted when they carry a valid integer literal, floats when they
// carry a whole number.
func ParseLong(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		n := int64(t)
		if float64(n) != t {
			return 0, numberFormat(fmt.Sprintf("%v", t))
		}
		return n, nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil || float64(int64(f)) != f {
			return 0, numberFormat(t.String())
		}
		return int64(f), nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, numberFormat(t)
		}
		return n, nil
	default:
		return 0, numberFormat(fmt.Sprintf("%v", v))
	}
}

// ParseFloat interprets a source value as a single precision float.
// The result is widened back to float64 after truncation so comparisons
// behave the way a float-mapped field does.
func ParseFloat(v any) (float64, error) {
	f, err := parseFloat64(v)
	if err != nil {
		return 0, err
	}
	return float64(float32(f)), nil
}

// ParseDouble interprets a source value as a double. Decimal arithmetic
// keeps string literals exact instead of rounding them through a float.
func ParseDouble(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Decimal{}, numberFormat(t.String())
		}
		return d, nil
	case string:
		d, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Decimal{}, numberFormat(t)
		}
		return d, nil
	default:
		return decimal.Decimal{}, numberFormat(fmt.Sprintf("%v", v))
	}
}

func parseFloat64(v any) (float64, error) {
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
			return 0, numberFormat(t.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, numberFormat(t)
		}
		return f, nil
	default:
		return 0, numberFormat(fmt.Sprintf("%v", v))
	}
}

func numberFormat(s string) error {
	return fmt.Errorf("For input string: %q: %w", s, domain.ErrNumberFormat)
}
