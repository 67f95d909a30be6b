package ingredient

import (
	"regexp"
	"strings"
)

var (
	separatorPattern     = regexp.MustCompile(`[,;\n]+`)
	parentheticalPattern = regexp.MustCompile(`\s*\([^)]*\)`)
)

// SplitList breaks a raw ingredient-list string into individual ingredient
// names. Entries are separated by commas, semicolons, or newlines; any
// parenthetical alias such as "Aqua (Water)" is dropped. Order of appearance
// is preserved and duplicates are kept, so positions remain meaningful.
// Malformed input degrades to fewer tokens rather than failing.
func SplitList(raw string) []string {
	parts := separatorPattern.Split(raw, -1)
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		name = parentheticalPattern.ReplaceAllString(name, "")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}
