package pdf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsePages parses a page selection such as "1-3,5,8-" against a
// document of total pages. An empty selection means every page. The
// result is sorted and free of duplicates.
func ParsePages(sel string, total int) ([]int, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return pageRange(1, total), nil
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(sel, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi := part, part
		if i := strings.IndexByte(part, '-'); i >= 0 {
			lo, hi = part[:i], part[i+1:]
		}

		first, err := pageNumber(lo, 1)
		if err != nil {
			return nil, fmt.Errorf("page selection %q: %w", part, err)
		}
		last, err := pageNumber(hi, total)
		if err != nil {
			return nil, fmt.Errorf("page selection %q: %w", part, err)
		}
		if first > last {
			return nil, fmt.Errorf("page selection %q: start after end", part)
		}
		if first < 1 || last > total {
			return nil, fmt.Errorf("page selection %q: outside 1-%d", part, total)
		}
		for p := first; p <= last; p++ {
			seen[p] = true
		}
	}

	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out, nil
}

func pageNumber(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func pageRange(first, last int) []int {
	if last < first {
		return nil
	}
	out := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		out = append(out, p)
	}
	return out
}
