package engine

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Lookup returns the string form of ctx[field] and whether the field is present.
func (c Context) Lookup(field string) (string, bool) {
	v, ok := c[field]
	if !ok {
		return "", false
	}
	return Stringify(v), true
}

// UserID returns the bucketing identity: the stringified userId, or
// AnonymousUser when the field is absent or null. An empty string is kept
// as-is.
func (c Context) UserID(anonymous string) string {
	v, ok := c[UserIDField]
	if !ok || v == nil {
		return anonymous
	}
	return Stringify(v)
}

// Stringify renders a context value the way it is compared against clause
// literals. Numbers use the shortest round-trip form with JavaScript's
// Number#toString layout, so 5, 5.0 and "5" all become "5" and 1e21 becomes
// "1e+21". Arrays join their elements with commas, objects become
// "[object Object]", and null becomes "null".
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			if elem != nil {
				parts[i] = Stringify(elem)
			}
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	}
	return stringifyScalar(v)
}

func stringifyScalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return formatFloat(f)
		}
		return val.String()
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		b, jerr := json.Marshal(v)
		if jerr != nil {
			return ""
		}
		return string(b)
	}
	return s
}

// formatFloat follows Number#toString: plain decimal while the decimal
// exponent n satisfies -6 < n <= 21, exponent form otherwise.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	case f < 0:
		return "-" + formatFloat(-f)
	}

	// Shortest digits as d.ddde±x; n is the position of the decimal point.
	mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	digits := strings.Replace(mant, ".", "", 1)
	e, _ := strconv.Atoi(exp)
	k, n := len(digits), e+1

	switch {
	case k <= n && n <= 21:
		return digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		return digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		return "0." + strings.Repeat("0", -n) + digits
	}

	out := digits[:1]
	if k > 1 {
		out += "." + digits[1:]
	}
	if e >= 0 {
		return out + "e+" + strconv.Itoa(e)
	}
	return out + "e" + strconv.Itoa(e)
}
