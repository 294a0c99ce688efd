package models

// Lookup is the outcome of reading an entity on behalf of a caller: either the
// entity was found and the caller may see it, or it is not accessible. Missing
// rows and rows the caller may not touch are deliberately the same outcome.
type Lookup[T any] struct {
	value T
	found bool
}

// Found wraps an accessible entity.
func Found[T any](v T) Lookup[T] {
	return Lookup[T]{value: v, found: true}
}

// NotAccessible is the outcome for a missing or forbidden entity.
func NotAccessible[T any]() Lookup[T] {
	return Lookup[T]{}
}

// Get returns the entity and whether it was found.
func (l Lookup[T]) Get() (T, bool) {
	return l.value, l.found
}

func (l Lookup[T]) IsFound() bool {
	return l.found
}
