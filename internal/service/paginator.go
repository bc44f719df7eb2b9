package service

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultPerPage is the listing page size when none is configured.
const DefaultPerPage = 10

// Page is one window of a listing.
type Page[T any] struct {
	Items          []T   `json:"items"`
	Number         int   `json:"number"`
	NumPages       int   `json:"num_pages"`
	Count          int64 `json:"count"`
	PerPage        int   `json:"per_page"`
	HasNext        bool  `json:"has_next"`
	HasPrevious    bool  `json:"has_previous"`
	NextNumber     int   `json:"next_page_number,omitempty"`
	PreviousNumber int   `json:"previous_page_number,omitempty"`
}

// PageWindow locates a page inside a result set of known size.
type PageWindow struct {
	Number   int
	NumPages int
	Offset   int
	Limit    int
	Count    int64
}

// ParsePageNumber reads the page query parameter. Anything that is not an
// integer means the first page; an integer too large for int is past the end.
func ParsePageNumber(raw string) int {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	switch {
	case err == nil:
		return n
	case errors.Is(err, strconv.ErrRange) && strings.HasPrefix(raw, "-"):
		return math.MinInt
	case errors.Is(err, strconv.ErrRange):
		return math.MaxInt
	}
	return 1
}

// Paginate resolves the requested page against count rows. An empty result
// still has one (empty) page, and a number outside [1, NumPages] lands on
// the last page.
func Paginate(count int64, perPage, requested int) PageWindow {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	numPages := 1
	if count > 0 {
		numPages = int((count + int64(perPage) - 1) / int64(perPage))
	}

	number := requested
	if number < 1 || number > numPages {
		number = numPages
	}

	return PageWindow{
		Number:   number,
		NumPages: numPages,
		Offset:   (number - 1) * perPage,
		Limit:    perPage,
		Count:    count,
	}
}

// NewPage fills a Page from its window and the rows fetched for it.
func NewPage[T any](w PageWindow, items []T) *Page[T] {
	if items == nil {
		items = []T{}
	}
	p := &Page[T]{
		Items:       items,
		Number:      w.Number,
		NumPages:    w.NumPages,
		Count:       w.Count,
		PerPage:     w.Limit,
		HasNext:     w.Number < w.NumPages,
		HasPrevious: w.Number > 1,
	}
	if p.HasNext {
		p.NextNumber = w.Number + 1
	}
	if p.HasPrevious {
		p.PreviousNumber = w.Number - 1
	}
	return p
}

// PageRange lists every page number, for the pager links.
func (p *Page[T]) PageRange() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
