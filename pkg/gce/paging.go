package gce

import (
	"context"
	"fmt"
	"iter"

	"gce-instance-manager/pkg/models"
)

// PageRequest is the context a paged listing was issued in. Follow-up pages are fetched
// with the same scope and options.
type PageRequest[T any] struct {
	Scope   Scope
	Zonal   bool
	Options *ListOptions
	Lister  Lister[T]
}

func (r PageRequest[T]) validate() error {
	if r.Lister == nil {
		return fmt.Errorf("%w: no lister", ErrScopeUndetermined)
	}
	if r.Scope.Project == "" {
		return fmt.Errorf("%w: missing project", ErrScopeUndetermined)
	}
	if r.Zonal && r.Scope.Zone == "" {
		return fmt.Errorf("%w: missing zone for project %s", ErrScopeUndetermined, r.Scope.Project)
	}
	return nil
}

// PagedIterable walks a listing from its first page, fetching each following page only
// once the previous one has been consumed.
type PagedIterable[T any] struct {
	first models.ListPage[T]
	req   PageRequest[T]
}

// Resolve turns the first page of a listing into an iterable over the whole listing.
// A page without a marker never triggers a fetch. A page with a marker requires the
// request scope; without it Resolve fails before any item is produced.
func Resolve[T any](first models.ListPage[T], req PageRequest[T]) (*PagedIterable[T], error) {
	if first.HasNext() {
		if err := req.validate(); err != nil {
			return nil, err
		}
	}
	return &PagedIterable[T]{first: first, req: req}, nil
}

// All yields every item in order. A fetch error is yielded once and ends the sequence.
// Ranging again starts over from the first page.
func (p *PagedIterable[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		page := p.first
		for {
			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}
			if !page.HasNext() {
				return
			}

			next, err := p.req.Lister.ListAtMarker(ctx, p.req.Scope, page.NextMarker, p.req.Options)
			if err != nil {
				var zero T
				yield(zero, fmt.Errorf("failed to fetch page at marker %s: %w", page.NextMarker, err))
				return
			}
			page = next
		}
	}
}

// Concat drains the listing into a slice.
func (p *PagedIterable[T]) Concat(ctx context.Context) ([]T, error) {
	var items []T
	for item, err := range p.All(ctx) {
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// listAll fetches the first page in scope and drains the rest of the listing.
func listAll[T any](ctx context.Context, lister Lister[T], scope Scope, zonal bool, opts *ListOptions) ([]T, error) {
	first, err := lister.ListFirstPage(ctx, scope, opts)
	if err != nil {
		return nil, err
	}
	it, err := Resolve(first, PageRequest[T]{Scope: scope, Zonal: zonal, Options: opts, Lister: lister})
	if err != nil {
		return nil, err
	}
	return it.Concat(ctx)
}
