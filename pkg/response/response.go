// Package response writes the JSON envelope shared by every API endpoint.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PageData is the data field of a paginated response.
type PageData[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(body)
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, data any, message string) error {
	return WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Message: message})
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, data any, message string) error {
	return WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, Message: message})
}

// Paginated writes a 200 envelope holding one page of items. A nil slice is
// written as an empty array.
func Paginated[T any](w http.ResponseWriter, result *models.PageResult[T], message string) error {
	items := result.Items
	if items == nil {
		items = []T{}
	}
	return OK(w, PageData[T]{
		Data: items,
		Pagination: Pagination{
			Page:       result.Page,
			Limit:      result.Limit,
			Total:      result.Total,
			TotalPages: models.TotalPages(result.Total, result.Limit),
		},
	}, message)
}

// Error writes a failure envelope. detail is omitted when empty.
func Error(w http.ResponseWriter, statusCode int, message, detail string) error {
	return WriteJSON(w, statusCode, Envelope{Success: false, Message: message, Error: detail})
}
