package discover

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter restricts which segment ordinals are resolved. It accepts single
// values and inclusive ranges, e.g. "2,5-8,12".
type Filter struct {
	singles map[int]bool
	ranges  [][2]int
}

// ParseFilter parses an ordinal filter expression. An empty expression
// yields a nil filter (match everything).
func ParseFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	f := &Filter{singles: make(map[int]bool)}
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("bad range start %q: %w", part, err)
			}
			end, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("bad range end %q: %w", part, err)
			}
			if end < start {
				return nil, fmt.Errorf("descending range %q", part)
			}
			f.ranges = append(f.ranges, [2]int{start, end})
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad ordinal %q: %w", part, err)
		}
		f.singles[n] = true
	}

	if len(f.singles) == 0 && len(f.ranges) == 0 {
		return nil, fmt.Errorf("empty filter expression %q", expr)
	}
	return f, nil
}

// Match reports whether the ordinal passes the filter. A nil filter matches
// every ordinal.
func (f *Filter) Match(ordinal int) bool {
	if f == nil {
		return true
	}
	if f.singles[ordinal] {
		return true
	}
	for _, r := range f.ranges {
		if ordinal >= r[0] && ordinal <= r[1] {
			return true
		}
	}
	return false
}
