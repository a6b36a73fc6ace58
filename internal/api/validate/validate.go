// Package validate parses and checks HTTP request parameters before they reach the services.
package validate

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

// DateLayout is the wire format of calendar dates such as birth dates.
const DateLayout = "2006-01-02"

// ID reads a positive integer path variable.
func ID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

// NonNegativeInt reads an optional integer query parameter; absent means 0.
func NonNegativeInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// Page reads the limit and offset query parameters.
func Page(r *http.Request) (limit, offset int, err error) {
	if limit, err = NonNegativeInt(r, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = NonNegativeInt(r, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// Timestamp reads a required RFC 3339 query parameter.
func Timestamp(r *http.Request, name string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp", name)
	}
	return t, nil
}

// Date parses a YYYY-MM-DD calendar date. An empty value yields the zero time so
// the domain rules can report the field as missing.
func Date(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}

// MaxLen rejects values longer than limit characters.
func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len([]rune(*v)) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}
