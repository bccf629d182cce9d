package nodes

import "sort"

// Kind captures metadata about a built-in node constructor.
type Kind struct {
	ID          string
	Description string
	Example     string
}

var catalog = make(map[string]Kind)

// RegisterKind makes a node kind discoverable.
func RegisterKind(kind Kind) {
	if kind.ID == "" {
		return
	}
	catalog[kind.ID] = kind
}

// Kinds returns the known node kinds sorted by ID.
func Kinds() []Kind {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]Kind, 0, len(ids))
	for _, id := range ids {
		result = append(result, catalog[id])
	}
	return result
}

// KindFor returns metadata for a registered node kind.
func KindFor(id string) (Kind, bool) {
	kind, ok := catalog[id]
	return kind, ok
}
