package request

import (
	"fmt"
	"strings"

	"github.com/bakwc/ppg-incidents/internal/domain"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	"github.com/bakwc/ppg-incidents/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed text or semantic query length.
	MaxQueryLength  = 4096
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Scope restricts a request to verified or unverified incidents.
type Scope int

const (
	// Verified lists published incidents.
	Verified Scope = iota
	// Unverified lists incidents awaiting review.
	Unverified
)

// Clause restricts rows to the scope.
func (s Scope) Clause() filter.Clause {
	if s == Unverified {
		return filter.Raw("verified = ?", 0)
	}
	return filter.Raw("verified = ?", 1)
}

// Params are the raw inputs of a list/search request.
type Params struct {
	TextQuery     string
	SemanticQuery string
	OrderBy       string
	Include       filter.Spec
	Exclude       filter.Spec
	Page          int
	PageSize      int
	Scope         Scope
}

// Request is a validated list/search request.
type Request struct {
	textQuery     string
	semanticQuery string
	order         Order
	include       filter.Spec
	exclude       filter.Spec
	page          int
	pageSize      int
	scope         Scope
}

// New validates and normalizes search parameters.
// Defaults: order=-date, page=1, pageSize=defaultPageSize. PageSize is clamped to maxPageSize.
func New(p Params, defaultPageSize, maxPageSize int) (Request, error) {
	text := strings.TrimSpace(p.TextQuery)
	semantic := strings.TrimSpace(p.SemanticQuery)
	if len(text) > MaxQueryLength || len(semantic) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}

	order, err := ParseOrder(p.OrderBy)
	if err != nil {
		return Request{}, err
	}

	if defaultPageSize <= 0 {
		defaultPageSize = DefaultPageSize
	}
	if maxPageSize <= 0 {
		maxPageSize = MaxPageSize
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}
	size := p.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	return Request{
		textQuery:     text,
		semanticQuery: semantic,
		order:         order,
		include:       p.Include,
		exclude:       p.Exclude,
		page:          page,
		pageSize:      size,
		scope:         p.Scope,
	}, nil
}

// Mode picks the strategy. A semantic query wins over a text query.
func (r *Request) Mode() mode.Mode {
	switch {
	case r.semanticQuery != "":
		return mode.Semantic
	case r.textQuery != "":
		return mode.Keyword
	default:
		return mode.List
	}
}

// TextQuery returns the free-text query.
func (r *Request) TextQuery() string { return r.textQuery }

// SemanticQuery returns the semantic query.
func (r *Request) SemanticQuery() string { return r.semanticQuery }

// Order returns the relational sort order used in list mode.
func (r *Request) Order() Order { return r.order }

// Include returns the include-polarity filters.
func (r *Request) Include() filter.Spec { return r.include }

// Exclude returns the exclude-polarity filters.
func (r *Request) Exclude() filter.Spec { return r.exclude }

// Page returns the 1-based page number.
func (r *Request) Page() int { return r.page }

// PageSize returns the page size.
func (r *Request) PageSize() int { return r.pageSize }

// Offset returns the row offset of the page.
func (r *Request) Offset() int { return (r.page - 1) * r.pageSize }

// Scope returns the verification scope.
func (r *Request) Scope() Scope { return r.scope }
