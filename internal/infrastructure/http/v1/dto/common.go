// Package dto holds request and response shapes of API v1.
package dto

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse documents the error body written by middleware.ErrorHandler.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ListResponse wraps a list with its size.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func NewList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}

// ParseDate accepts YYYY-MM-DD or RFC 3339. bare reports the date-only form.
func ParseDate(raw string) (t time.Time, bare bool, err error) {
	raw = strings.TrimSpace(raw)
	if t, err = time.Parse(dateLayout, raw); err == nil {
		return t, true, nil
	}
	if t, err = time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q", raw)
}

// Date is an optional date field accepting YYYY-MM-DD or RFC 3339.
// Empty strings and null decode to nil.
type Date struct {
	Time *time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		d.Time = nil
		return nil
	}
	t, _, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = &t
	return nil
}

// Ptr returns the parsed time or nil.
func (d *Date) Ptr() *time.Time {
	if d == nil {
		return nil
	}
	return d.Time
}
