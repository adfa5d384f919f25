package domain

// DefaultPageSize is used when the service does not declare a page size
const DefaultPageSize = 20

// Listing is a decoded list payload before pagination is applied
type Listing[T any] struct {
	Items   []T
	Total   int // Declared total across all pages
	PerPage int // Declared page size, 0 if the service omitted it
}

// Page is one page of a paginated listing.
//
// Invariants for any page returned without error:
//   - NextPage == 0 exactly when CurrentPage == PageCount
//   - PageCount == 0 exactly when Items is empty
type Page[T any] struct {
	Items       []T
	CurrentPage int
	NextPage    int
	PageCount   int
	Total       int
}

// HasNext reports whether another page can be requested
func (p Page[T]) HasNext() bool {
	return p.NextPage != 0
}

// NormalizePage maps page numbers below 1 to the first page
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// NewPage builds the page metadata for items fetched at the given page number.
// A request beyond the last page of a non-empty listing fails with ErrPageOutOfRange.
func NewPage[T any](items []T, page, total, pageSize int) (*Page[T], error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if items == nil {
		items = []T{}
	}
	if total < len(items) {
		total = len(items)
	}

	pageCount := (total + pageSize - 1) / pageSize
	if pageCount == 0 || len(items) == 0 {
		if pageCount > 0 && NormalizePage(page) > pageCount {
			return nil, NotFoundError("paginate", ErrPageOutOfRange)
		}
		// Empty result set, or a server that declared a total but sent nothing
		return &Page[T]{Items: []T{}}, nil
	}

	current := NormalizePage(page)
	if current > pageCount {
		return nil, NotFoundError("paginate", ErrPageOutOfRange)
	}

	next := 0
	if current < pageCount {
		next = current + 1
	}

	return &Page[T]{
		Items:       items,
		CurrentPage: current,
		NextPage:    next,
		PageCount:   pageCount,
		Total:       total,
	}, nil
}

// PageFromListing applies pagination to a decoded listing, falling back to
// fallbackSize when the payload does not declare its own page size.
func PageFromListing[T any](l Listing[T], page, fallbackSize int) (*Page[T], error) {
	size := l.PerPage
	if size <= 0 {
		size = fallbackSize
	}
	return NewPage(l.Items, page, l.Total, size)
}
