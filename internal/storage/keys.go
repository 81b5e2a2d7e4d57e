package storage

import (
	"sort"
	"strings"
)

// FilterKeys applies the SearchKeys contract to an unordered key set: keep
// keys starting with prefix and containing keyword, sort them, then take the
// page [start, start+size). size < 0 means "to the end". Backends without a
// native server-side search funnel their key listing through this helper so
// pagination behaves identically everywhere.
func FilterKeys(keys []string, prefix, keyword string, start, size int, ascending bool) []string {
	matched := make([]string, 0, len(keys))
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if keyword != "" && !strings.Contains(key, keyword) {
			continue
		}
		matched = append(matched, key)
	}

	sort.Strings(matched)
	if !ascending {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	if start < 0 {
		start = 0
	}
	if start >= len(matched) {
		return []string{}
	}
	end := len(matched)
	if size >= 0 && start+size < end {
		end = start + size
	}
	return matched[start:end]
}
