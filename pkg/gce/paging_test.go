package gce

import (
	"context"
	"errors"
	"testing"

	"gce-instance-manager/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_SinglePageNeverFetches(t *testing.T) {
	lister := &fakeLister[int]{}
	first := models.ListPage[int]{Items: []int{1, 2, 3}}

	it, err := Resolve(first, PageRequest[int]{Lister: lister})
	require.NoError(t, err)

	items, err := it.Concat(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, items)
	assert.Zero(t, lister.fetchCount())
}

func TestResolve_ChainsPagesLazily(t *testing.T) {
	scope := Scope{Project: "p", Zone: "z"}
	opts := &ListOptions{Filter: "status eq RUNNING", MaxResults: 2}
	lister := &fakeLister[int]{}
	lister.setPages(scope, []int{1, 2}, []int{3, 4}, []int{5})
	ctx := context.Background()

	first, err := lister.ListFirstPage(ctx, scope, opts)
	require.NoError(t, err)
	it, err := Resolve(first, PageRequest[int]{Scope: scope, Zonal: true, Options: opts, Lister: lister})
	require.NoError(t, err)

	var seen []int
	for item, err := range it.All(ctx) {
		require.NoError(t, err)
		seen = append(seen, item)
		// page k+1 is only fetched once page k has been consumed
		switch item {
		case 1, 2:
			assert.Equal(t, 1, lister.fetchCount())
		case 3, 4:
			assert.Equal(t, 2, lister.fetchCount())
		case 5:
			assert.Equal(t, 3, lister.fetchCount())
		}
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, seen)
	assert.Equal(t, []string{"p/z@", "p/z@page-1", "p/z@page-2"}, lister.fetches)
	for _, got := range lister.options {
		assert.Same(t, opts, got)
	}
}

func TestResolve_EarlyBreakStopsFetching(t *testing.T) {
	scope := Scope{Project: "p"}
	lister := &fakeLister[string]{}
	lister.setPages(scope, []string{"a", "b"}, []string{"c"})
	first, _ := lister.ListFirstPage(context.Background(), scope, nil)

	it, err := Resolve(first, PageRequest[string]{Scope: scope, Lister: lister})
	require.NoError(t, err)

	for item := range it.All(context.Background()) {
		if item == "a" {
			break
		}
	}
	assert.Equal(t, 1, lister.fetchCount())
}

func TestResolve_RestartsFromFirstPage(t *testing.T) {
	scope := Scope{Project: "p"}
	lister := &fakeLister[int]{}
	lister.setPages(scope, []int{1}, []int{2})
	first, _ := lister.ListFirstPage(context.Background(), scope, nil)
	it, err := Resolve(first, PageRequest[int]{Scope: scope, Lister: lister})
	require.NoError(t, err)

	a, err := it.Concat(context.Background())
	require.NoError(t, err)
	b, err := it.Concat(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, []int{1, 2}, b)
}

func TestResolve_MissingScope(t *testing.T) {
	lister := &fakeLister[int]{}
	first := models.ListPage[int]{Items: []int{1}, NextMarker: "page-1"}

	tests := []struct {
		name string
		req  PageRequest[int]
	}{
		{name: "no project", req: PageRequest[int]{Lister: lister}},
		{name: "zonal without zone", req: PageRequest[int]{Scope: Scope{Project: "p"}, Zonal: true, Lister: lister}},
		{name: "no lister", req: PageRequest[int]{Scope: Scope{Project: "p"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := Resolve(first, tt.req)
			assert.ErrorIs(t, err, ErrScopeUndetermined)
			assert.Nil(t, it)
		})
	}
	assert.Zero(t, lister.fetchCount())
}

func TestResolve_FetchErrorEndsSequence(t *testing.T) {
	scope := Scope{Project: "p"}
	boom := errors.New("boom")
	lister := &fakeLister[int]{err: boom}
	first := models.ListPage[int]{Items: []int{1}, NextMarker: "page-1"}

	it, err := Resolve(first, PageRequest[int]{Scope: scope, Lister: lister})
	require.NoError(t, err)

	items, err := it.Concat(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, items)
}
