package core

import "math"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page requests a slice of a result set. Page numbers start at 1.
type Page struct {
	Number int
	Limit  int
}

// Clean clamps the page to sane values.
func (p *Page) Clean() {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func NewPagination(p Page, total int) Pagination {
	return Pagination{
		Page:  p.Number,
		Limit: p.Limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(p.Limit))),
	}
}
