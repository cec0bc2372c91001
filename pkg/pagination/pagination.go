// Package pagination carries list paging between the console and the
// backend: the query parameters a list call sends and the envelope a list
// endpoint returns.
package pagination

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts pagination parameters from the echo context.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return Params{Limit: limit, Offset: offset}.Normalize()
}

// Normalize clamps the limit to (0, MaxLimit] and the offset to >= 0.
func (p Params) Normalize() Params {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Apply writes the parameters into q. Zero values are omitted so the
// backend defaults apply.
func (p Params) Apply(q url.Values) {
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
}

// Window returns the [start, end) bounds of the page within total items.
func (p Params) Window(total int) (start, end int) {
	start = p.Offset
	if start > total {
		start = total
	}
	end = start + p.Limit
	if end > total {
		end = total
	}
	return start, end
}

// Response wraps a paginated API response.
type Response struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}

func NewResponse(data interface{}, total, limit, offset int) *Response {
	return &Response{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}

// Page is the client-side view of a Response with typed items.
type Page[T any] struct {
	Data    []T  `json:"data"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// SQL returns the LIMIT and OFFSET clause for SQL queries.
func (p Params) SQL() string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", p.Limit, p.Offset)
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// NextOffset returns the offset for the next page.
func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

// MaxPages bounds how many pages Collect requests.
const MaxPages = 50

// Collect calls fetch page by page, MaxLimit items at a time, until the
// backend reports no more results. It returns every item and the last
// reported total. A page that comes back empty ends the walk; reaching
// MaxPages returns what was gathered with the total still above it.
func Collect[T any](ctx context.Context, fetch func(ctx context.Context, p Params) (*Page[T], error)) ([]T, int, error) {
	items := make([]T, 0)
	total := 0
	p := Params{Limit: MaxLimit}
	for i := 0; i < MaxPages; i++ {
		page, err := fetch(ctx, p)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, page.Data...)
		total = page.Total
		if !page.HasMore || len(page.Data) == 0 {
			break
		}
		p.Offset += len(page.Data)
	}
	if total < len(items) {
		total = len(items)
	}
	return items, total, nil
}
