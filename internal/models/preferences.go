package models

// Preferences is the parsed form of a user's opaque preference blob: a JSON
// object mapping feature namespaces to arbitrary values. A mapping is never
// mutated in place once returned; updates always produce a new mapping.
type Preferences map[string]any

// Merge returns a new mapping with overlay's keys shallow-merged over p.
// Keys present in both take overlay's value; neither input is modified.
func (p Preferences) Merge(overlay Preferences) Preferences {
	merged := make(Preferences, len(p)+len(overlay))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}
