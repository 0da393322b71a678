package queryfilter

import (
	"net/url"
	"strconv"
)

// Pagination defaults and bounds.
const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Page is validated pagination input. Number and Size are both >= 1 and
// Size never exceeds the maximum the page was parsed with.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads page and page_size from the query string. Values outside
// the allowed range are a validation error, not a silently clamped result.
// Pass maxSize <= 0 to use MaxPageSize.
func ParsePage(values url.Values, maxSize int) (Page, error) {
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}

	number, err := parsePositiveInt(values, "page", 1)
	if err != nil {
		return Page{}, err
	}
	size, err := parsePositiveInt(values, "page_size", DefaultPageSize)
	if err != nil {
		return Page{}, err
	}
	if size > maxSize {
		return Page{}, validationf("page_size must be %d or less", maxSize)
	}
	return Page{Number: number, Size: size}, nil
}

// Offset is the row offset for this page: (page-1) x page_size.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Limit is the row limit for this page.
func (p Page) Limit() int {
	return p.Size
}

// TotalPages computes ceil(total / size), or 0 when total is 0.
func (p Page) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}

func parsePositiveInt(values url.Values, name string, def int) (int, error) {
	raw, ok := values[name]
	if !ok {
		return def, nil
	}
	if len(raw) != 1 || raw[0] == "" {
		return 0, validationf("%s must be an integer of at least 1", name)
	}
	n, err := strconv.Atoi(raw[0])
	if err != nil || n < 1 {
		return 0, validationf("%s must be an integer of at least 1", name)
	}
	return n, nil
}
