package lwm2m

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Null renderings: a top-level null write value is empty, nested ones are None.
// Attributes render every null as ''.
const (
	valueNull     = "None"
	attributeNull = "''"
)

// FormatValue renders a write value the way Coiote task templates expect it:
// strings verbatim, numbers in Python form, booleans as True/False, null as empty.
func FormatValue(raw json.RawMessage) string {
	v := gjson.ParseBytes(raw)
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return ""
	default:
		return literal(v, valueNull)
	}
}

// FormatValues renders every value and joins them with commas.
func FormatValues(values []json.RawMessage) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = FormatValue(v)
	}
	return strings.Join(out, ",")
}

// FormatAttributes renders attributes as a bracketed list literal without
// any whitespace; absent attributes become ''.
func FormatAttributes(attributes []json.RawMessage) string {
	parts := make([]string, len(attributes))
	for i, a := range attributes {
		parts[i] = literal(gjson.ParseBytes(a), attributeNull)
	}
	return strings.ReplaceAll("["+strings.Join(parts, ",")+"]", " ", "")
}

func literal(v gjson.Result, null string) string {
	switch v.Type {
	case gjson.Null:
		return null
	case gjson.True:
		return "True"
	case gjson.False:
		return "False"
	case gjson.Number:
		return number(v.Raw)
	case gjson.String:
		return quote(v.Str)
	}

	var b strings.Builder
	if v.IsArray() {
		b.WriteByte('[')
		for i, item := range v.Array() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(literal(item, null))
		}
		b.WriteByte(']')
		return b.String()
	}

	b.WriteByte('{')
	first := true
	v.ForEach(func(key, value gjson.Result) bool {
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(quote(key.Str))
		b.WriteByte(':')
		b.WriteString(literal(value, null))
		return true
	})
	b.WriteByte('}')
	return b.String()
}

// quote prefers single quotes and falls back to double quotes when the text
// holds a single quote but no double quote.
func quote(s string) string {
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + strings.ReplaceAll(s, `\`, `\\`) + `"`
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

// number renders a JSON number literal as Python prints the decoded value:
// integers keep their digits, floats use the shortest round-trip form.
func number(raw string) string {
	if !strings.ContainsAny(raw, ".eE") {
		if strings.TrimLeft(raw, "-0") == "" {
			return "0"
		}
		return raw
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil && !math.IsInf(f, 0) {
		return raw
	}

	sign := ""
	if math.Signbit(f) {
		sign = "-"
		f = -f
	}
	if math.IsInf(f, 1) {
		return sign + "inf"
	}

	// d.ddde±XX gives the shortest digits and the decimal exponent
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	digits := strings.Replace(mantissa, ".", "", 1)
	e, _ := strconv.Atoi(exp)
	point := e + 1

	if point > -4 && point <= 16 {
		switch {
		case point <= 0:
			return sign + "0." + strings.Repeat("0", -point) + digits
		case point >= len(digits):
			return sign + digits + strings.Repeat("0", point-len(digits)) + ".0"
		default:
			return sign + digits[:point] + "." + digits[point:]
		}
	}

	out := digits[:1]
	if len(digits) > 1 {
		out += "." + digits[1:]
	}
	expSign := "+"
	if e < 0 {
		expSign = "-"
		e = -e
	}
	return fmt.Sprintf("%s%se%s%02d", sign, out, expSign, e)
}
