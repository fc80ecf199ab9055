package models

// ListPage is one page of a paged listing. An empty NextMarker means there are no more pages.
type ListPage[T any] struct {
	Items      []T    `json:"items"`
	NextMarker string `json:"next_marker,omitempty"`
}

// HasNext reports whether a continuation marker is present
func (p ListPage[T]) HasNext() bool {
	return p.NextMarker != ""
}
