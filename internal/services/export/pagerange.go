package export

import (
	"sort"
	"strconv"
	"strings"
)

// ParsePageRange parses a user-facing range expression ("1-3,5") against a page
// count into sorted ascending 0-based indices. Single tokens are valid iff
// within [1, maxPages]; out-of-bounds singles are silently dropped.
// Hyphenated pairs are order-independent and both endpoints clamp to
// [1, maxPages]. Duplicates collapse.
func ParsePageRange(expr string, maxPages int) []int {
	expr = stripWhitespace(expr)
	if expr == "" || maxPages < 1 {
		return []int{}
	}

	selected := make(map[int]bool)
	for _, token := range strings.Split(expr, ",") {
		if token == "" {
			continue
		}
		if strings.Contains(token, "-") {
			parts := strings.SplitN(token, "-", 2)
			a, errA := strconv.Atoi(parts[0])
			b, errB := strconv.Atoi(parts[1])
			if errA != nil || errB != nil {
				continue
			}
			a = clamp(a, 1, maxPages)
			b = clamp(b, 1, maxPages)
			if a > b {
				a, b = b, a
			}
			for n := a; n <= b; n++ {
				selected[n-1] = true
			}
			continue
		}
		n, err := strconv.Atoi(token)
		if err != nil || n < 1 || n > maxPages {
			continue
		}
		selected[n-1] = true
	}

	indices := make([]int, 0, len(selected))
	for idx := range selected {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}

// IsValidRangeSyntax reports whether the expression is syntactically well-formed:
// non-empty after whitespace stripping and containing only digits, commas
// and hyphens. Semantic emptiness (no pages selected) is a separate check.
func IsValidRangeSyntax(expr string) bool {
	expr = stripWhitespace(expr)
	if expr == "" {
		return false
	}
	for _, r := range expr {
		if (r < '0' || r > '9') && r != ',' && r != '-' {
			return false
		}
	}
	return true
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
