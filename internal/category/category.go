// Package category classifies image assets. The category of an image decides
// the storage subdirectory it lives in on both nodes.
package category

import "strings"

// Category is the closed set of asset classifications.
type Category string

const (
	// Primary holds source-captured assets such as clothing references.
	Primary Category = "primary"
	// Subject holds person/character references.
	Subject Category = "subject"
	// Derived holds system-generated results such as try-on outputs.
	Derived Category = "derived"
)

// Default is used whenever a category cannot be determined or is invalid.
const Default = Primary

// All lists every category in canonical order. The order is also the
// fallback search order used when a file is missing from its declared
// category.
var All = []Category{Primary, Subject, Derived}

// legacy names written by earlier releases of the capture extension.
var aliases = map[string]Category{
	"clothes": Primary,
	"char":    Subject,
	"tryon":   Derived,
}

func (c Category) String() string { return string(c) }

// IsValid reports whether c is one of the closed set.
func (c Category) IsValid() bool {
	switch c {
	case Primary, Subject, Derived:
		return true
	}
	return false
}

// Parse resolves s to a category, accepting legacy aliases.
func Parse(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c := Category(s); c.IsValid() {
		return c, true
	}
	c, ok := aliases[s]
	return c, ok
}

// Validate maps any value outside the closed set to Default instead of
// rejecting it: malformed client input degrades to a safe category.
func Validate(candidate string) Category {
	if c, ok := Parse(candidate); ok {
		return c
	}
	return Default
}

// Infer guesses the category of filename from its "<category>_" prefix,
// falling back to Default.
func Infer(filename string) Category {
	c, _ := inferPrefix(filename)
	return c
}

func inferPrefix(filename string) (Category, bool) {
	prefix, _, found := strings.Cut(strings.ToLower(filename), "_")
	if !found {
		return Default, false
	}
	if c, ok := Parse(prefix); ok {
		return c, true
	}
	return Default, false
}

// Resolve applies the full precedence used when a record arrives without a
// trusted category: an explicit value, then the filename prefix, then
// Default.
func Resolve(explicit, filename string) Category {
	if c, ok := Parse(explicit); ok {
		return c
	}
	return Infer(filename)
}

// FallbackOrder returns declared followed by every other category in
// canonical order. An invalid declared value is searched as Default.
func FallbackOrder(declared Category) []Category {
	if !declared.IsValid() {
		declared = Default
	}
	order := make([]Category, 0, len(All))
	order = append(order, declared)
	for _, c := range All {
		if c != declared {
			order = append(order, c)
		}
	}
	return order
}
