package handlers

import (
	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

// visible unwraps a service lookup. NotAccessible becomes a 404 carrying notFound.
func visible[T any](lookup models.Lookup[T], err error, notFound string) (T, error) {
	v, ok := lookup.Get()
	if err != nil {
		return v, err
	}
	if !ok {
		return v, apperrors.NotFound(notFound)
	}
	return v, nil
}

// nonNil keeps empty listings serialized as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
