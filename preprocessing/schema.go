package preprocessing

import (
	"slices"
)

// Schema is the ordered list of feature names a matrix is aligned to. The
// zero value is an empty schema. Schemas are never modified after creation.
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema copies names into a Schema.
func NewSchema(names []string) Schema {
	s := Schema{
		names: slices.Clone(names),
		index: make(map[string]int, len(names)),
	}
	for i, n := range s.names {
		if _, dup := s.index[n]; !dup {
			s.index[n] = i
		}
	}
	return s
}

// Names returns a copy of the feature names in order.
func (s Schema) Names() []string { return slices.Clone(s.names) }

// Len returns the number of features.
func (s Schema) Len() int { return len(s.names) }

// Name returns the i-th feature name.
func (s Schema) Name(i int) string { return s.names[i] }

// Index returns the position of name, or -1.
func (s Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Equal reports whether both schemas list the same names in the same order.
func (s Schema) Equal(other Schema) bool {
	return slices.Equal(s.names, other.names)
}
