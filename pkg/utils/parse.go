package utils

import "strconv"

// ParseInt parses a query value, falling back to def when it is empty or malformed
func ParseInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
