package introspect

import (
	"sort"

	"github.com/maruel/natural"
)

// SortKeysNatural orders counter/query result keys the way a reader expects
// numbered items to sort ("item2" before "item10"), not the way a plain
// byte-wise string sort would. Grounded on the teacher's own use of
// natural.StringSlice for sorting fragment/property keys before dumping
// them (content/content_debug.go) — same library, same call shape, applied
// here to counter key names and query tie-breaks instead of debug dump
// keys.
func SortKeysNatural(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Sort(natural.StringSlice(out))
	return out
}
