package gce

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gce-instance-manager/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectResolver_PlainIdentity(t *testing.T) {
	projects := &fakeProjects{}
	r := NewProjectResolver("my-project", projects, nil)

	name, err := r.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "my-project", name)
	assert.Zero(t, projects.callCount())
}

func TestProjectResolver_LooksUpIDOnce(t *testing.T) {
	projects := &fakeProjects{projects: map[string]*models.Project{
		"123456": {ID: "123456", Name: "resolved-project"},
	}}
	cache := &NameCache{}
	r := NewProjectResolver("123456@developer.gserviceaccount.com", projects, cache)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		name, err := r.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "resolved-project", name)
	}
	assert.Equal(t, 1, projects.callCount())

	cached, ok := cache.Get()
	assert.True(t, ok)
	assert.Equal(t, "resolved-project", cached)

	cache.Reset()
	_, err := r.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, projects.callCount())
}

func TestProjectResolver_FailuresAreNotCached(t *testing.T) {
	projects := &fakeProjects{err: errors.New("unavailable")}
	r := NewProjectResolver("123456@developer.gserviceaccount.com", projects, nil)
	ctx := context.Background()

	_, err := r.Resolve(ctx)
	require.Error(t, err)

	projects.mu.Lock()
	projects.err = nil
	projects.projects = map[string]*models.Project{"123456": {Name: "later"}}
	projects.mu.Unlock()

	name, err := r.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "later", name)
	assert.Equal(t, 2, projects.callCount())
}

func TestProjectResolver_UnknownProject(t *testing.T) {
	r := NewProjectResolver("999@developer.gserviceaccount.com", &fakeProjects{}, nil)

	_, err := r.Resolve(context.Background())

	assert.ErrorContains(t, err, "project 999 not found")
}

func TestProjectResolver_ConcurrentFirstUse(t *testing.T) {
	projects := &fakeProjects{
		projects: map[string]*models.Project{"42": {Name: "shared"}},
		block:    make(chan struct{}),
	}
	r := NewProjectResolver("42@developer.gserviceaccount.com", projects, nil)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name, err := r.Resolve(context.Background())
			assert.NoError(t, err)
			results[i] = name
		}(i)
	}
	close(projects.block)
	wg.Wait()

	for _, name := range results {
		assert.Equal(t, "shared", name)
	}
	assert.LessOrEqual(t, projects.callCount(), len(results))
	cached, ok := r.cache.Get()
	assert.True(t, ok)
	assert.Equal(t, "shared", cached)
}
