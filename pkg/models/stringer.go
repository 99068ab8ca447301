package models

// String methods for custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// ElementKind
func (k ElementKind) String() string { return string(k) }
