package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

// timeLayouts are the ISO 8601 forms accepted for timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses an ISO 8601 timestamp. Values without a zone are UTC.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected ISO 8601", value)
}

// Time is a JSON timestamp accepting any form ParseTime accepts.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("invalid date, expected an ISO 8601 string")
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Ptr returns the wrapped time, or nil when t is nil.
func (t *Time) Ptr() *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}

// PageQuery holds the pagination parameters shared by list endpoints.
type PageQuery struct {
	Page      int    `query:"page" validate:"min=1,max=1000000" msg:"page must be between 1 and 1000000"`
	Limit     int    `query:"limit" validate:"min=1,max=100" msg:"limit must be between 1 and 100"`
	SortBy    string `query:"sortBy"`
	SortOrder string `query:"sortOrder" validate:"omitempty,oneof=asc desc" msg:"sortOrder must be asc or desc"`
}

// BindPage reads pagination parameters and checks sortBy against sortFields.
func (p *PageQuery) BindPage(values url.Values, sortFields []string) []string {
	var failures []string
	p.Page = models.DefaultPage
	p.Limit = models.DefaultLimit

	if v := values.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			failures = append(failures, "page must be between 1 and 1000000")
		} else {
			p.Page = n
		}
	}
	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			failures = append(failures, "limit must be between 1 and 100")
		} else {
			p.Limit = n
		}
	}

	p.SortBy = values.Get("sortBy")
	if p.SortBy != "" && !slices.Contains(sortFields, p.SortBy) {
		failures = append(failures, "sortBy must be one of: "+strings.Join(sortFields, ", "))
	}
	p.SortOrder = strings.ToLower(values.Get("sortOrder"))
	return failures
}

// ToPage converts the query into a repository page request.
func (p *PageQuery) ToPage() models.Page {
	return models.Page{Page: p.Page, Limit: p.Limit, SortBy: p.SortBy, SortOrder: models.SortOrder(p.SortOrder)}
}

// DaysQuery is the look-ahead window of upcoming listings.
type DaysQuery struct {
	Days int `query:"days" validate:"min=1,max=365" msg:"days must be between 1 and 365"`
}

func (q *DaysQuery) Bind(values url.Values) []string {
	q.Days = 7
	if v := values.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return []string{"days must be between 1 and 365"}
		}
		q.Days = n
	}
	return nil
}

// OptionalEnum parses values[key] with parse when present.
func OptionalEnum[E any](values url.Values, key string, parse func(string) (E, error), failures *[]string) *E {
	v := values.Get(key)
	if v == "" {
		return nil
	}
	e, err := parse(v)
	if err != nil {
		*failures = append(*failures, err.Error())
		return nil
	}
	return &e
}

// OptionalTime parses values[key] as an ISO 8601 timestamp when present.
func OptionalTime(values url.Values, key string, failures *[]string) *time.Time {
	v := values.Get(key)
	if v == "" {
		return nil
	}
	t, err := ParseTime(v)
	if err != nil {
		*failures = append(*failures, key+" must be a valid ISO 8601 date")
		return nil
	}
	return &t
}

// OptionalUUID parses values[key] as a UUID when present.
func OptionalUUID(values url.Values, key string, failures *[]string) *uuid.UUID {
	v := values.Get(key)
	if v == "" {
		return nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		*failures = append(*failures, key+" must be a valid UUID")
		return nil
	}
	return &id
}

// OptionalBool parses values[key] as a boolean when present.
func OptionalBool(values url.Values, key string, failures *[]string) *bool {
	v := values.Get(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*failures = append(*failures, key+" must be a boolean")
		return nil
	}
	return &b
}
