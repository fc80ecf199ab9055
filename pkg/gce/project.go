package gce

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// NameCache holds a resolved project name. It is set once and only cleared by Reset.
type NameCache struct {
	mu   sync.RWMutex
	name string
}

func (c *NameCache) Get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name, c.name != ""
}

func (c *NameCache) set(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.name == "" {
		c.name = name
	}
}

// Reset forgets the cached name.
func (c *NameCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = ""
}

// ProjectResolver maps the configured identity to the project name requests are scoped to.
//
// An identity without "@" is the project name itself. Otherwise the part before "@" is a
// project id whose name is looked up once and cached.
type ProjectResolver struct {
	identity string
	projects ProjectAPI
	cache    *NameCache
	group    singleflight.Group
}

// NewProjectResolver creates a resolver. A nil cache gets a private one.
func NewProjectResolver(identity string, projects ProjectAPI, cache *NameCache) *ProjectResolver {
	if cache == nil {
		cache = &NameCache{}
	}
	return &ProjectResolver{identity: identity, projects: projects, cache: cache}
}

// Resolve returns the project name, looking it up on first use.
func (r *ProjectResolver) Resolve(ctx context.Context) (string, error) {
	if name, ok := r.cache.Get(); ok {
		return name, nil
	}

	v, err, _ := r.group.Do(r.identity, func() (any, error) {
		if name, ok := r.cache.Get(); ok {
			return name, nil
		}
		name, err := r.lookup(ctx)
		if err != nil {
			return "", err
		}
		r.cache.set(name)
		return name, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *ProjectResolver) lookup(ctx context.Context) (string, error) {
	if r.identity == "" {
		return "", fmt.Errorf("no identity configured")
	}
	id, _, found := strings.Cut(r.identity, "@")
	if !found {
		return r.identity, nil
	}
	if id == "" {
		return "", fmt.Errorf("identity %q has no project id before @", r.identity)
	}

	project, err := r.projects.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to look up project %s: %w", id, err)
	}
	if project == nil {
		return "", fmt.Errorf("project %s not found", id)
	}
	return project.Name, nil
}
