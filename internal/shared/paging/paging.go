package paging

import (
	"math"
	"strconv"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (Page-1)*Limit inside int for every allowed limit.
	MaxPage = math.MaxInt / MaxLimit
)

// Params is a 1-based page request.
type Params struct {
	Page  int
	Limit int
}

// Parse reads page/limit query values, falling back to defaults on bad input.
func Parse(page, limit string) Params {
	p := Params{Page: 1, Limit: DefaultLimit}
	if v, err := strconv.Atoi(page); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(limit); err == nil {
		p.Limit = v
	}
	return p.Normalize()
}

// Normalize clamps page and limit into their allowed ranges.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination block returned alongside a page.
type Meta struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	Total       int `json:"total"`
	Limit       int `json:"limit"`
}

// MetaFor computes pagination metadata for total matching rows.
func MetaFor(p Params, total int) Meta {
	p = p.Normalize()
	pages := 0
	if total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Meta{CurrentPage: p.Page, TotalPages: pages, Total: total, Limit: p.Limit}
}

// Window returns the [start,end) slice bounds of this page over n items.
func (p Params) Window(n int) (int, int) {
	start := p.Offset()
	if start < 0 || start > n {
		start = n
	}
	end := start + p.Normalize().Limit
	if end > n {
		end = n
	}
	return start, end
}
