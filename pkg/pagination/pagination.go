package pagination

import (
	"net/http"
	"strconv"

	"github.com/vavipcommerce/vavip-backend/pkg/types"
)

const (
	// DefaultPerPage is the standard page size when one is not provided.
	DefaultPerPage = 20
	// MaxPerPage caps how many rows any listing can request.
	MaxPerPage = 100
)

// Params holds normalized offset pagination inputs.
type Params struct {
	Page    int
	PerPage int
}

// Normalize clamps raw page/per_page values into the allowed range.
// Non-positive pages become 1; per_page falls back to the default and is
// capped at MaxPerPage.
func Normalize(page, perPage int) Params {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Params{Page: page, PerPage: perPage}
}

// FromRequest reads page/per_page query parameters, tolerating garbage input.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return Normalize(page, perPage)
}

// Offset returns the SQL offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Limit returns the SQL limit for the current page.
func (p Params) Limit() int {
	return p.PerPage
}

// Meta builds the response metadata for a total row count. Params that
// never went through Normalize are normalized here first.
func (p Params) Meta(total int64) types.PageMeta {
	p = Normalize(p.Page, p.PerPage)
	pages := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	return types.PageMeta{
		Total:       total,
		Pages:       pages,
		CurrentPage: p.Page,
		PerPage:     p.PerPage,
		HasNext:     p.Page < pages,
		HasPrev:     p.Page > 1 && total > 0,
	}
}
