package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// maxMultipartMemory is how much of a multipart body is kept in memory; the
// rest spills to temporary files.
const maxMultipartMemory = 8 << 20

// PathUUID requires the named path value to be a UUID.
func PathUUID(name string) Rule {
	return func(r *http.Request) (*http.Request, []string, error) {
		id, err := uuid.Parse(r.PathValue(name))
		if err != nil {
			return r, []string{fmt.Sprintf("Invalid %s format", name)}, nil
		}
		return withValue(r, pathKey(name), id), nil, nil
	}
}

// PathID returns the UUID checked by PathUUID(name).
func PathID(r *http.Request, name string) uuid.UUID {
	id, _ := r.Context().Value(pathKey(name)).(uuid.UUID)
	return id
}

// QueryBinder is implemented by query structs. Bind copies values into the
// struct and reports values that could not be converted.
type QueryBinder interface {
	Bind(values url.Values) []string
}

// Query binds the query string into a new T, then validates it.
func Query[T any, PT interface {
	*T
	QueryBinder
}]() Rule {
	return func(r *http.Request) (*http.Request, []string, error) {
		q := PT(new(T))
		failures := q.Bind(r.URL.Query())
		failures = append(failures, Struct(q)...)
		return withValue(r, queryKey{}, q), failures, nil
	}
}

// QueryOf returns the query struct bound by Query[T].
func QueryOf[T any](r *http.Request) *T {
	q, _ := r.Context().Value(queryKey{}).(*T)
	if q == nil {
		return new(T)
	}
	return q
}

// JSON decodes the request body into a new T, then validates it.
// An empty body decodes to the zero value so required-field rules report it.
func JSON[T any]() Rule {
	return func(r *http.Request) (*http.Request, []string, error) {
		body := new(T)
		if err := json.NewDecoder(r.Body).Decode(body); err != nil && !errors.Is(err, io.EOF) {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				return r, nil, err
			}
			return r, []string{"Invalid JSON body: " + err.Error()}, nil
		}
		return withValue(r, bodyKey{}, body), Struct(body), nil
	}
}

// Body returns the body decoded by JSON[T].
func Body[T any](r *http.Request) *T {
	body, _ := r.Context().Value(bodyKey{}).(*T)
	if body == nil {
		return new(T)
	}
	return body
}

// Multipart requires a file in the named form field.
func Multipart(field string) Rule {
	return func(r *http.Request) (*http.Request, []string, error) {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				return r, nil, err
			}
			return r, []string{"Request must be multipart/form-data"}, nil
		}
		files := r.MultipartForm.File[field]
		if len(files) == 0 {
			return r, []string{fmt.Sprintf("%s is required", field)}, nil
		}
		return withValue(r, fileKey(field), files[0]), nil, nil
	}
}

// File returns the upload checked by Multipart(field).
func File(r *http.Request, field string) *multipart.FileHeader {
	fh, _ := r.Context().Value(fileKey(field)).(*multipart.FileHeader)
	return fh
}
