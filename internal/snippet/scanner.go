package snippet

import (
	"regexp"
	"sort"
)

// refPattern matches @name reference tokens.
var refPattern = regexp.MustCompile(`@([A-Za-z0-9_]+)`)

// ExtractReferences returns the de-duplicated set of names referenced by
// @name tokens in text, in sorted order. It never fails.
func ExtractReferences(text string) []string {
	matches := refPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}
