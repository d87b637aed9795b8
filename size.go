package main

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const defaultMaxFileSize = 5 * 1024 * 1024 // 5 MiB

var sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([KMGTP]?)B?$`)

var sizeFactors = map[string]int64{
	"":  1,
	"K": 1 << 10,
	"M": 1 << 20,
	"G": 1 << 30,
	"T": 1 << 40,
	"P": 1 << 50,
}

// parseSize turns a human-readable size such as "5M", "100k", "1.5G" or "2048"
// into a byte count. Units are binary and case-insensitive; a trailing "B" is
// accepted ("5MB"). A bare number means bytes.
func parseSize(s string) (int64, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	m := sizePattern.FindStringSubmatch(upper)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	factor := sizeFactors[m[2]]

	if !strings.Contains(m[1], ".") {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || n > math.MaxInt64/factor {
			return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidSize, s)
		}
		return n * factor, nil
	}

	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	bytes := f * float64(factor)
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidSize, s)
	}
	return int64(bytes), nil
}

// formatSize renders a byte count for log messages.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
