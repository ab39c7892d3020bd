package value

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/elastimock/internal/domain"
)

// DefaultDateFormat is the format a date field falls back to when the
// mapping does not name one.
const DefaultDateFormat = "strict_date_optional_time||epoch_millis"

// DefaultDynamicDateFormats are the formats date detection tries when
// inferring a mapping for an unmapped string field.
var DefaultDynamicDateFormats = []string{
	"strict_date_optional_time",
	"yyyy/MM/dd HH:mm:ss||yyyy/MM/dd",
}

// formatAliases expands a named format into the date patterns it covers.
var formatAliases = map[string][]string{
	"date_optional_time":              {"yyyy-MM-dd", "yyyy-MM-dd'T'HH:mm:ss.SSSZ"},
	"strict_date_optional_time":       {"yyyy-MM-dd", "yyyy-MM-dd'T'HH:mm:ss.SSSZ"},
	"strict_date_optional_time_nanos": {"yyyy-MM-dd", "yyyy-MM-dd'T'HH:mm:ss.SSSSSSZ"},
	"basic_date":                      {"yyyyMMdd"},
	"basic_date_time":                 {"yyyyMMdd'T'HHmmss.SSSZ"},
	"basic_date_time_no_millis":       {"yyyyMMdd'T'HHmmssZ"},
}

// Date is a parsed date value together with the format that matched it.
type Date struct {
	Time   time.Time
	Format string
}

// ParseDate interprets a source value as a date using the given
// "||"-separated format string. Formats are tried in order and the
// first match wins.
func ParseDate(v any, format string) (Date, error) {
	if format == "" {
		format = DefaultDateFormat
	}
	for _, name := range strings.Split(format, "||") {
		switch name {
		case "epoch_millis":
			if ms, ok := epochValue(v); ok {
				return Date{Time: time.UnixMilli(ms).UTC(), Format: name}, nil
			}
		case "epoch_second":
			if s, ok := epochValue(v); ok {
				return Date{Time: time.Unix(s, 0).UTC(), Format: name}, nil
			}
		default:
			s, ok := v.(string)
			if !ok {
				continue
			}
			for _, pattern := range expandFormat(name) {
				t, err := time.Parse(JavaDateLayout(pattern), s)
				if err == nil {
					return Date{Time: t.UTC(), Format: name}, nil
				}
			}
		}
	}
	return Date{}, domain.DateTimeParse("failed to parse date field [%v] with format [%s]", v, format)
}

// MatchesDateFormat reports whether s parses under any of the given
// formats. Date detection uses it to probe unmapped strings.
func MatchesDateFormat(s string, formats []string) bool {
	for _, f := range formats {
		if _, err := ParseDate(s, f); err == nil {
			return true
		}
	}
	return false
}

func expandFormat(name string) []string {
	if patterns, ok := formatAliases[name]; ok {
		return patterns
	}
	return []string{name}
}

func epochValue(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		n := int64(t)
		return n, float64(n) == t
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// JavaDateLayout transposes a Java-style date pattern into a Go time
// layout. Quoted sections pass through literally.
func JavaDateLayout(pattern string) string {
	var b strings.Builder
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		if c == '\'' {
			j := strings.IndexByte(pattern[i+1:], '\'')
			if j < 0 {
				b.WriteString(pattern[i+1:])
				break
			}
			b.WriteString(pattern[i+1 : i+1+j])
			i += j + 2
			continue
		}
		run := 1
		for i+run < len(pattern) && pattern[i+run] == c {
			run++
		}
		b.WriteString(javaToken(c, run))
		i += run
	}
	return b.String()
}

func javaToken(c byte, run int) string {
	switch c {
	case 'y':
		if run == 2 {
			return "06"
		}
		return "2006"
	case 'M':
		return "01"
	case 'd':
		return "02"
	case 'H':
		return "15"
	case 'h':
		return "03"
	case 'm':
		return "04"
	case 's':
		return "05"
	case 'S':
		return strings.Repeat("0", run)
	case 'Z':
		return "Z0700"
	default:
		return strings.Repeat(string(c), run)
	}
}

var (
	nowMathPattern    = regexp.MustCompile(`^now(?:(?P<delta>[-+]\d+)(?P<unit>[yMwdhHms]))?(?:/(?P<round>[yMwdhHms]))?$`)
	anchorMathPattern = regexp.MustCompile(`^(?P<anchor>[^|]+)\|\|(?:(?P<delta>[-+]\d+)(?P<unit>[yMwdhHms]))?(?:/(?P<round>[yMwdhHms]))?$`)
)

// IsDateMath reports whether s is a date-math expression rather than a
// plain date literal.
func IsDateMath(s string) bool {
	return strings.HasPrefix(s, "now") || strings.Contains(s, "||")
}

// ResolveDateMath evaluates a date-math expression against the given
// reference time. Anchored expressions ("2014.11.18||/M") parse the
// anchor with the field format, then the yyyy.MM.dd convention.
func ResolveDateMath(expr string, now time.Time, format string) (time.Time, error) {
	if m := nowMathPattern.FindStringSubmatch(expr); m != nil {
		return applyDateMath(now, m[1], m[2], m[3])
	}
	m := anchorMathPattern.FindStringSubmatch(expr)
	if m == nil {
		return time.Time{}, domain.DateTimeParse("failed to parse date math [%s]", expr)
	}
	anchor, err := ParseDate(m[1], format)
	if err != nil {
		anchor, err = ParseDate(m[1], "yyyy.MM.dd")
	}
	if err != nil {
		return time.Time{}, domain.DateTimeParse("failed to parse date math anchor [%s]", m[1])
	}
	return applyDateMath(anchor.Time, m[2], m[3], m[4])
}

func applyDateMath(t time.Time, delta, unit, round string) (time.Time, error) {
	if delta != "" {
		n, err := strconv.Atoi(delta)
		if err != nil {
			return time.Time{}, domain.DateTimeParse("failed to parse date math delta [%s]", delta)
		}
		switch unit {
		case "y":
			t = t.AddDate(n, 0, 0)
		case "M":
			t = t.AddDate(0, n, 0)
		case "w":
			t = t.AddDate(0, 0, 7*n)
		case "d":
			t = t.AddDate(0, 0, n)
		case "h", "H":
			t = t.Add(time.Duration(n) * time.Hour)
		case "m":
			t = t.Add(time.Duration(n) * time.Minute)
		case "s":
			t = t.Add(time.Duration(n) * time.Second)
		}
	}
	if round != "" {
		t = roundDownTo(t, round)
	}
	return t, nil
}

func roundDownTo(t time.Time, unit string) time.Time {
	switch unit {
	case "y":
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	case "M":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case "w":
		// weeks start on Monday
		back := (int(t.Weekday()) + 6) % 7
		d := t.AddDate(0, 0, -back)
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
	case "d":
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case "h", "H":
		return t.Truncate(time.Hour)
	case "m":
		return t.Truncate(time.Minute)
	case "s":
		return t.Truncate(time.Second)
	default:
		return t
	}
}
