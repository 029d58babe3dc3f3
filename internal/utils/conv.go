package utils

import (
	"strconv"
)

// ParseID parses a positive database id from a route parameter.
func ParseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, strconv.IntSize)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
