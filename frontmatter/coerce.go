package frontmatter

import (
	"regexp"
	"strconv"
	"strings"
)

// Date-like values must survive as strings so templates can format them.
var datePattern = regexp.MustCompile(`\d{2,4}[-/]\d{1,2}[-/]\d{1,4}`)

// Coerce maps a raw scalar to its typed template value: "true"/"false" become
// booleans, date-like strings stay strings, plain numerics become int or
// float64, and everything else passes through unchanged.
func Coerce(value string) any {
	if value == "true" {
		return true
	}
	if value == "false" {
		return false
	}

	if datePattern.MatchString(value) {
		return value
	}

	if !isNumeric(value) {
		return value
	}

	if strings.Contains(value, ".") {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		return value
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return value
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	dots, hyphens := 0, 0
	for i, r := range value {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			dots++
		case r == '-':
			hyphens++
			if i != 0 {
				return false
			}
		default:
			return false
		}
	}
	return dots <= 1 && hyphens <= 1
}
