package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatFileSize renders bytes with base 1024 and at most two decimals, e.g. "1.5 MB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	value := float64(bytes)
	i := 0
	for value >= 1024 && i < len(sizeUnits)-1 {
		value /= 1024
		i++
	}
	return strconv.FormatFloat(math.Round(value*100)/100, 'f', -1, 64) + " " + sizeUnits[i]
}

// FormatDuration renders seconds as m:ss or h:mm:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseClockDuration parses "mm:ss" or "hh:mm:ss" into seconds, 0 when malformed.
func ParseClockDuration(clock string) int {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}
