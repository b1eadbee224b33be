package templatex

import (
	"fmt"
	"reflect"
	"strings"
	"text/template"
	"time"
)

var dateLayouts = []string{"2006-01-02", "2006/01/02", "02-01-2006", "01/02/2006"}

func filters() template.FuncMap {
	return template.FuncMap{
		"date":             filterDate,
		"truncate":         filterTruncate,
		"substring":        filterSubstring,
		"slice":            filterSlice,
		"limit":            filterLimit,
		"prefix_separator": filterPrefixSeparator,
		"suffix_separator": filterSuffixSeparator,
		"exists":           func(v any) bool { return v != nil },
	}
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// filterDate formats a date-like string. "long", "short" and "iso" are
// aliases; any other format is a yyyy/MM/dd-style pattern. Unparseable input
// is returned unchanged.
func filterDate(value any, format string) string {
	raw := stringify(value)
	var parsed time.Time
	ok := false
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			parsed = t
			ok = true
			break
		}
	}
	if !ok {
		return raw
	}

	switch format {
	case "long":
		format = "MMMM d, yyyy"
	case "short":
		format = "MMM d, yyyy"
	case "iso":
		format = "yyyy-MM-dd"
	}

	out := format
	switch {
	case strings.Contains(out, "yyyy"):
		out = strings.Replace(out, "yyyy", fmt.Sprintf("%04d", parsed.Year()), 1)
	case strings.Contains(out, "yy"):
		out = strings.Replace(out, "yy", fmt.Sprintf("%02d", parsed.Year()%100), 1)
	}
	switch {
	case strings.Contains(out, "MMMM"):
		out = strings.Replace(out, "MMMM", parsed.Month().String(), 1)
	case strings.Contains(out, "MMM"):
		out = strings.Replace(out, "MMM", parsed.Month().String()[:3], 1)
	case strings.Contains(out, "MM"):
		out = strings.Replace(out, "MM", fmt.Sprintf("%02d", int(parsed.Month())), 1)
	case strings.Contains(out, "M"):
		out = strings.Replace(out, "M", fmt.Sprintf("%d", int(parsed.Month())), 1)
	}
	switch {
	case strings.Contains(out, "dd"):
		out = strings.Replace(out, "dd", fmt.Sprintf("%02d", parsed.Day()), 1)
	case strings.Contains(out, "d"):
		out = strings.Replace(out, "d", fmt.Sprintf("%d", parsed.Day()), 1)
	}
	return out
}

func filterTruncate(value any, length int) string {
	s := stringify(value)
	if len(s) > length {
		return s[:length] + "..."
	}
	return s
}

func filterSubstring(value any, start, length int) string {
	s := stringify(value)
	if start < 0 || start >= len(s) {
		return ""
	}
	end := start + length
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}

func asSlice(v any) []any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func filterSlice(value any, start, end int) []any {
	items := asSlice(value)
	if items == nil {
		return []any{}
	}
	if start < 0 {
		start = 0
	}
	if end > len(items) {
		end = len(items)
	}
	if start >= end {
		return []any{}
	}
	return items[start:end]
}

func filterLimit(value any, count int) []any {
	items := asSlice(value)
	if items == nil {
		return []any{}
	}
	if count < len(items) {
		return items[:count]
	}
	return items
}

func filterPrefixSeparator(value any, sep string) string {
	s := stringify(value)
	if s == "" {
		return ""
	}
	return sep + s
}

func filterSuffixSeparator(value any, sep string) string {
	s := stringify(value)
	if s == "" {
		return ""
	}
	return s + sep
}
