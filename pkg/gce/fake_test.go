package gce

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"gce-instance-manager/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const (
	testProject = "test-project"
	testZone    = "us-central1-a"
)

// fakeLister serves pre-split pages per scope. Markers are "page-<n>".
type fakeLister[T any] struct {
	mu      sync.Mutex
	pages   map[Scope][][]T
	fetches []string
	options []*ListOptions
	err     error
}

func (f *fakeLister[T]) setPages(scope Scope, pages ...[]T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pages == nil {
		f.pages = make(map[Scope][][]T)
	}
	f.pages[scope] = pages
}

func (f *fakeLister[T]) ListFirstPage(ctx context.Context, scope Scope, opts *ListOptions) (models.ListPage[T], error) {
	return f.at(scope, "", 0, opts)
}

func (f *fakeLister[T]) ListAtMarker(ctx context.Context, scope Scope, marker string, opts *ListOptions) (models.ListPage[T], error) {
	idx, err := strconv.Atoi(strings.TrimPrefix(marker, "page-"))
	if err != nil {
		return models.ListPage[T]{}, fmt.Errorf("bad marker %q", marker)
	}
	return f.at(scope, marker, idx, opts)
}

func (f *fakeLister[T]) at(scope Scope, marker string, idx int, opts *ListOptions) (models.ListPage[T], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, scope.Project+"/"+scope.Zone+"@"+marker)
	f.options = append(f.options, opts)
	if f.err != nil {
		return models.ListPage[T]{}, f.err
	}
	pages := f.pages[scope]
	if idx >= len(pages) {
		return models.ListPage[T]{}, nil
	}
	page := models.ListPage[T]{Items: pages[idx]}
	if idx+1 < len(pages) {
		page.NextMarker = fmt.Sprintf("page-%d", idx+1)
	}
	return page, nil
}

func (f *fakeLister[T]) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

// fakeResource adds scoped lookups by name to fakeLister.
type fakeResource[T any] struct {
	fakeLister[T]
	items map[string]T
	gets  int
}

func resourceKey(scope Scope, name string) string {
	return scope.Project + "/" + scope.Zone + "/" + name
}

func (f *fakeResource[T]) put(scope Scope, name string, v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.items == nil {
		f.items = make(map[string]T)
	}
	f.items[resourceKey(scope, name)] = v
}

func (f *fakeResource[T]) Get(ctx context.Context, scope Scope, name string) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	return f.items[resourceKey(scope, name)], nil
}

type fakeInstances struct {
	fakeResource[*models.Instance]
	hidden        map[string]int
	nameGets      map[string]int
	created       []*models.InstanceTemplate
	createScopes  []Scope
	createOp      *models.Operation
	deleteOp      *models.Operation
	deleted       []string
	createVisible bool
}

func (f *fakeInstances) Get(ctx context.Context, scope Scope, name string) (*models.Instance, error) {
	f.mu.Lock()
	if f.nameGets == nil {
		f.nameGets = make(map[string]int)
	}
	f.nameGets[name]++
	if f.hidden[name] > 0 {
		f.hidden[name]--
		f.mu.Unlock()
		return nil, nil
	}
	f.mu.Unlock()
	return f.fakeResource.Get(ctx, scope, name)
}

func (f *fakeInstances) Create(ctx context.Context, scope Scope, template *models.InstanceTemplate) (*models.Operation, error) {
	f.mu.Lock()
	f.created = append(f.created, template)
	f.createScopes = append(f.createScopes, scope)
	f.mu.Unlock()
	if f.createVisible {
		f.put(scope, template.Name, &models.Instance{
			Name:     template.Name,
			Zone:     scope.Zone,
			Status:   "RUNNING",
			Metadata: template.Metadata,
			Tags:     template.Tags,
		})
	}
	return f.createOp, nil
}

func (f *fakeInstances) Delete(ctx context.Context, scope Scope, name string) (*models.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, scope.Zone+"/"+name)
	if _, ok := f.items[resourceKey(scope, name)]; !ok {
		return nil, nil
	}
	return f.deleteOp, nil
}

type fakeOperations struct {
	mu     sync.Mutex
	seq    map[string][]*models.Operation
	gets   map[string]int
	scopes []Scope
	err    error
}

func (f *fakeOperations) script(name string, statuses ...*models.Operation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seq == nil {
		f.seq = make(map[string][]*models.Operation)
	}
	f.seq[name] = statuses
}

func (f *fakeOperations) Get(ctx context.Context, scope Scope, name string) (*models.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gets == nil {
		f.gets = make(map[string]int)
	}
	i := f.gets[name]
	f.gets[name]++
	f.scopes = append(f.scopes, scope)
	if f.err != nil {
		return nil, f.err
	}
	seq := f.seq[name]
	if len(seq) == 0 {
		return nil, nil
	}
	if i >= len(seq) {
		return seq[len(seq)-1], nil
	}
	return seq[i], nil
}

func (f *fakeOperations) getCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets[name]
}

type fakeProjects struct {
	mu       sync.Mutex
	projects map[string]*models.Project
	calls    int
	err      error
	block    chan struct{}
}

func (f *fakeProjects) Get(ctx context.Context, id string) (*models.Project, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.projects[id], nil
}

func (f *fakeProjects) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeFirewalls struct {
	fakeResource[*models.Firewall]
	created []*models.Firewall
	deleted []string
	op      *models.Operation
}

func (f *fakeFirewalls) Create(ctx context.Context, scope Scope, firewall *models.Firewall) (*models.Operation, error) {
	f.mu.Lock()
	f.created = append(f.created, firewall)
	f.mu.Unlock()
	f.put(scope, firewall.Name, firewall)
	return f.op, nil
}

func (f *fakeFirewalls) Delete(ctx context.Context, scope Scope, name string) (*models.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, name)
	return f.op, nil
}

type fakeCompute struct {
	instances    *fakeInstances
	images       *fakeResource[*models.Image]
	machineTypes *fakeResource[*models.MachineType]
	zones        *fakeResource[*models.Zone]
	operations   *fakeOperations
	projects     *fakeProjects
	networks     *fakeResource[*models.Network]
	firewalls    *fakeFirewalls
	disks        *fakeResource[*models.Disk]
}

func newFakeCompute() *fakeCompute {
	return &fakeCompute{
		instances:    &fakeInstances{hidden: make(map[string]int)},
		images:       &fakeResource[*models.Image]{},
		machineTypes: &fakeResource[*models.MachineType]{},
		zones:        &fakeResource[*models.Zone]{},
		operations:   &fakeOperations{},
		projects:     &fakeProjects{projects: map[string]*models.Project{testProject: {ID: "1", Name: testProject}}},
		networks:     &fakeResource[*models.Network]{},
		firewalls:    &fakeFirewalls{},
		disks:        &fakeResource[*models.Disk]{},
	}
}

func (f *fakeCompute) api() API {
	return API{
		Instances:    f.instances,
		Images:       f.images,
		MachineTypes: f.machineTypes,
		Zones:        f.zones,
		Operations:   f.operations,
		Projects:     f.projects,
		Networks:     f.networks,
		Firewalls:    f.firewalls,
		Disks:        f.disks,
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestAdapter(t *testing.T, f *fakeCompute, timeout time.Duration) *Adapter {
	t.Helper()
	a, err := NewAdapter(f.api(), NewProjectResolver(testProject, f.projects, nil), Settings{
		ImageProject:      "debian-cloud",
		OperationInterval: time.Millisecond,
		OperationTimeout:  timeout,
	}, quietLogger())
	require.NoError(t, err)
	return a
}

var (
	testKeyOnce sync.Once
	testKeyPEM  string
	testKeyPub  string
	testKeyErr  error
)

// testKeyPair returns a key pair shared by all tests in the package.
func testKeyPair(t *testing.T) (string, string) {
	t.Helper()
	testKeyOnce.Do(func() {
		testKeyPEM, testKeyPub, testKeyErr = GenerateKeyPair(2048)
	})
	require.NoError(t, testKeyErr)
	return testKeyPEM, testKeyPub
}
