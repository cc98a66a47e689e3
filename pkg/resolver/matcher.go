package resolver

import "strings"

// DefaultSuffix is the domain label that marks a name as a container name
const DefaultSuffix = ".docker"

// Matcher decides whether a query name belongs to this resolver
type Matcher struct {
	Suffix string
}

// Match reports whether name ends with the suffix and has at least one
// character in front of it
func (m Matcher) Match(name string) bool {
	// It must have at least one character without the suffix
	if len(name) <= len(m.Suffix) {
		return false
	}

	return strings.HasSuffix(name, m.Suffix)
}

// Key returns the container name or ID carried by name.
// Only valid when Match(name) is true.
func (m Matcher) Key(name string) string {
	return name[:len(name)-len(m.Suffix)]
}
