package codegen

import (
	"math"
	"strconv"
	"strings"
)

// formatDouble renders v as an MQL5 double literal that always carries a
// decimal point (30 -> 30.0). Non-finite values have no literal form and
// render as 0.0; conditions reject them earlier, risk inputs never reach
// arithmetic without a guard.
func formatDouble(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.0"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func formatInt(v int) string { return strconv.Itoa(v) }

func formatInt64(v int64) string { return strconv.FormatInt(v, 10) }

func formatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// quoteString renders s as an MQL5 string literal.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// commentText flattens s so it can sit on a single // or ; comment line.
func commentText(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}

// identInt and identDouble turn numeric parameters into identifier-safe text.
func identInt(v int) string {
	if v < 0 {
		return "m" + strconv.Itoa(-v)
	}
	return strconv.Itoa(v)
}

func identDouble(v float64) string {
	s := formatDouble(v)
	s = strings.NewReplacer("-", "m", ".", "p", "+", "").Replace(s)
	return strings.TrimSuffix(s, "p0")
}

// appliedPriceConst maps the editor's applied-price code to ENUM_APPLIED_PRICE.
// 0 is the editor default and means close. Unknown codes pass through as a cast.
func appliedPriceConst(code int) string {
	switch code {
	case 0, 1:
		return "PRICE_CLOSE"
	case 2:
		return "PRICE_OPEN"
	case 3:
		return "PRICE_HIGH"
	case 4:
		return "PRICE_LOW"
	case 5:
		return "PRICE_MEDIAN"
	case 6:
		return "PRICE_TYPICAL"
	case 7:
		return "PRICE_WEIGHTED"
	}
	return "(ENUM_APPLIED_PRICE)" + strconv.Itoa(code)
}

// codeWriter accumulates generated source with MQL5's three-space indentation.
type codeWriter struct {
	b      strings.Builder
	indent int
}

func (w *codeWriter) line(parts ...string) {
	if len(parts) == 0 {
		w.b.WriteByte('\n')
		return
	}
	w.b.WriteString(strings.Repeat("   ", w.indent))
	for _, p := range parts {
		w.b.WriteString(p)
	}
	w.b.WriteByte('\n')
}

func (w *codeWriter) open(parts ...string) {
	w.line(parts...)
	w.line("{")
	w.indent++
}

func (w *codeWriter) close() {
	w.indent--
	w.line("}")
}

func (w *codeWriter) String() string { return w.b.String() }
