package eval

import (
	"strings"
	"time"
)

// inputDateLayouts is the fixed, ordered list of accepted input formats;
// the first layout that parses wins.
var inputDateLayouts = []string{
	"2006-01-02",
	"20060102",
	"1/2/2006",
	"2-Jan-2006",
}

// parseDateBestEffort parses s against the accepted input formats.
func parseDateBestEffort(s string) (time.Time, bool) {
	txt := strings.TrimSpace(s)
	if txt == "" {
		return time.Time{}, false
	}
	for _, layout := range inputDateLayouts {
		if t, err := time.Parse(layout, txt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// namedOutputLayouts maps the recognized output pattern names to Go
// layouts.
var namedOutputLayouts = map[string]string{
	"yyyyMMdd":   "20060102",
	"YYYYMMDD":   "20060102",
	"yyyy-MM-dd": "2006-01-02",
	"YYYY-MM-DD": "2006-01-02",
	"MM/dd/yyyy": "01/02/2006",
	"MM/DD/YYYY": "01/02/2006",
}

// formatTokens converts the remaining date-pattern vocabulary to Go layout
// fragments. Order matters: longer patterns must be replaced first.
var formatTokens = []struct {
	pattern     string
	replacement string
}{
	{"yyyy", "2006"},
	{"YYYY", "2006"},
	{"yy", "06"},
	{"YY", "06"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"dd", "02"},
	{"DD", "02"},
	{"HH", "15"},
	{"mm", "04"},
	{"ss", "05"},
}

// formatDate renders d using a named output pattern, falling back to
// token-by-token layout conversion for anything else. A pattern with no
// recognizable tokens renders as ISO.
func formatDate(d time.Time, format string) string {
	f := strings.TrimSpace(format)
	if layout, ok := namedOutputLayouts[f]; ok {
		return d.Format(layout)
	}

	layout := f
	for _, t := range formatTokens {
		layout = strings.ReplaceAll(layout, t.pattern, t.replacement)
	}
	if layout == f && !strings.ContainsAny(layout, "0123456789") {
		return d.Format("2006-01-02")
	}
	return d.Format(layout)
}
