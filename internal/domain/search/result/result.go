package result

// Neighbor is one vector-index hit. Lower distance is closer.
type Neighbor struct {
	id       int64
	distance float64
}

// NewNeighbor creates a vector-index hit.
func NewNeighbor(id int64, distance float64) Neighbor {
	return Neighbor{id: id, distance: distance}
}

// ID returns the incident id.
func (n Neighbor) ID() int64 { return n.id }

// Distance returns the L2 distance to the query vector.
func (n Neighbor) Distance() float64 { return n.distance }

// IDs extracts ids preserving order.
func IDs(ns []Neighbor) []int64 {
	out := make([]int64, len(ns))
	for i, n := range ns {
		out[i] = n.id
	}
	return out
}

// Page is one page of an ordered result set.
type Page[T any] struct {
	Items    []T
	Total    int
	Page     int
	PageSize int
}

// Paginate slices items for a 1-based page.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	p := Page[T]{Total: len(items), Page: page, PageSize: pageSize}
	if page <= 0 || pageSize <= 0 {
		return p
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		p.Items = []T{}
		return p
	}
	end := min(start+pageSize, len(items))
	p.Items = items[start:end]
	return p
}
