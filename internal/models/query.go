package models

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 10
	DefaultPage  = 1
	MaxLimit     = 100
	MaxPage      = 1_000_000

	SortAsc  = "asc"
	SortDesc = "desc"
)

// QueryOptions are the listing options accepted by every product manager.
type QueryOptions struct {
	Limit int
	Page  int
	Sort  string
	Query string
}

// ParseQueryOptions builds QueryOptions from raw query-string values.
// limit and page take their leading base-10 digits; a value without digits
// or a non-positive result falls back to the default, and values past
// MaxLimit or MaxPage are clamped to them.
func ParseQueryOptions(values url.Values) QueryOptions {
	return QueryOptions{
		Limit: parsePositive(values.Get("limit"), DefaultLimit, MaxLimit),
		Page:  parsePositive(values.Get("page"), DefaultPage, MaxPage),
		Sort:  values.Get("sort"),
		Query: values.Get("query"),
	}
}

// Normalized fills zero fields with their defaults and clamps limit and
// page to their maximums.
func (o QueryOptions) Normalized() QueryOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Page <= 0 {
		o.Page = DefaultPage
	}
	if o.Page > MaxPage {
		o.Page = MaxPage
	}
	return o
}

// Skip is the number of documents before the requested page.
func (o QueryOptions) Skip() int {
	o = o.Normalized()
	return (o.Page - 1) * o.Limit
}

// SortDirection returns 1 for ascending, -1 for descending and 0 when the
// listing keeps storage order.
func (o QueryOptions) SortDirection() int {
	switch strings.ToLower(o.Sort) {
	case SortAsc:
		return 1
	case SortDesc:
		return -1
	}
	return 0
}

// AvailabilityFilter reports whether the query asks for available products
// rather than a category.
func (o QueryOptions) AvailabilityFilter() bool {
	switch strings.ToLower(strings.TrimSpace(o.Query)) {
	case "available", "disponible", "disponibles":
		return true
	}
	return false
}

func parsePositive(raw string, def, max int) int {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '+' || raw[end] == '-') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return def
	}
	n, err := strconv.Atoi(raw[:end])
	switch {
	case errors.Is(err, strconv.ErrRange) && n > 0:
		return max
	case err != nil || n <= 0:
		return def
	case n > max:
		return max
	}
	return n
}
