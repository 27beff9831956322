package listutil

import (
	"math"
	"net/url"
	"strconv"
)

// DefaultLimit is the page size used when none (or a non-positive one) is given.
const DefaultLimit = 10

// MaxLimit caps the page size a client may request.
const MaxLimit = 100

// MaxPage is the largest page number whose offset cannot overflow an int.
const MaxPage = math.MaxInt / MaxLimit

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page  int // 1-indexed page number
	Limit int // rows per page
}

// PageInfo carries pagination metadata for a response.
type PageInfo struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Normalize applies defaults: page and limit fall back to 1 and DefaultLimit
// when non-positive, limit is capped at MaxLimit and page at MaxPage.
// POST: 1 <= Page <= MaxPage, 1 <= Limit <= MaxLimit
func (p PageParams) Normalize() PageParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the SQL OFFSET for the page.
// PRE: p has been normalized
// POST: Returns (Page-1) * Limit, never negative
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePageParams extracts page and limit from URL query values.
// Unparseable values are treated as absent.
// POST: returns normalized PageParams
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return PageParams{Page: page, Limit: limit}.Normalize()
}

// NewPageInfo computes pagination metadata.
// A page past the end is reported as requested; it simply has no rows.
// PRE: p has been normalized, total >= 0
// POST: Pages == ceil(Total / Limit)
func NewPageInfo(p PageParams, total int) PageInfo {
	return PageInfo{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: (total + p.Limit - 1) / p.Limit,
	}
}
