package util

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spaolacci/murmur3"
)

// GroupHash produces a stable hash for a set of group names. Order and
// duplicates do not affect the result, so the same eligible-group combination
// always maps to the same round-robin key.
func GroupHash(groups []string) string {
	uniq := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		uniq[strings.ToLower(strings.TrimSpace(g))] = struct{}{}
	}
	sorted := make([]string, 0, len(uniq))
	for g := range uniq {
		sorted = append(sorted, g)
	}
	sort.Strings(sorted)
	return fmt.Sprintf("%x", murmur3.Sum64([]byte(strings.Join(sorted, "|"))))
}
