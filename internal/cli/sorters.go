package cli

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/roach88/sortview/internal/sorter"
)

// Sort key names accepted by the --by flag.
var validSortKeys = []string{"numeric", "text", "text-ci", "reverse-numeric"}

// buildSorter maps a --by name and optional BCP 47 locale to a sorter.
// The locale only affects the text keys; numeric keys ignore it.
func buildSorter(by, locale string) (sorter.Interface[string], error) {
	tag := language.Und
	if locale != "" {
		parsed, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
		}
		tag = parsed
	}

	switch by {
	case "numeric":
		return sorter.NewByKey(parseNumeric), nil
	case "text":
		return sorter.NewCollated(tag), nil
	case "text-ci":
		c := sorter.NewCollated(tag)
		c.SetIgnoreCase(true)
		return c, nil
	case "reverse-numeric":
		return sorter.NewReverse[string](sorter.NewByKey(parseNumeric)), nil
	}
	return nil, fmt.Errorf("unknown sort key %q: must be one of %v", by, validSortKeys)
}

// parseNumeric reads an item as a base-10 integer, treating unparseable
// items as zero so mixed input still sorts deterministically.
func parseNumeric(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}
