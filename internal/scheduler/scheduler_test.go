package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gce-instance-manager/internal/scheduler"
	"gce-instance-manager/pkg/models"
	"gce-instance-manager/pkg/storage"

	"github.com/sirupsen/logrus"
)

// MockProvider implements scheduler.NodeProvider for testing
type MockProvider struct {
	mu           sync.Mutex
	nodes        map[string]*models.Instance
	getErr       error
	destroyErr   error
	getCalls     []string
	destroyCalls []string
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		nodes: make(map[string]*models.Instance),
	}
}

func (m *MockProvider) GetNode(ctx context.Context, id string) (*models.Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls = append(m.getCalls, id)
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.nodes[id], nil
}

func (m *MockProvider) DestroyNode(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyCalls = append(m.destroyCalls, id)
	if m.destroyErr != nil {
		return m.destroyErr
	}
	delete(m.nodes, id)
	return nil
}

func (m *MockProvider) SetNode(zone, name, status, publicIP string) {
	m.nodes[zone+"/"+name] = &models.Instance{
		ID:        name,
		Name:      name,
		Zone:      zone,
		Status:    status,
		PublicIP:  publicIP,
		PrivateIP: "10.128.0.2",
	}
}

func saveRecord(t *testing.T, store *storage.Storage, record *models.NodeRecord) {
	t.Helper()
	if err := store.SaveNode(record); err != nil {
		t.Fatalf("Failed to save node: %v", err)
	}
}

func TestSchedulerExpiredNode(t *testing.T) {
	provider := NewMockProvider()
	store := storage.NewFileStorage(t.TempDir() + "/test.json")

	saveRecord(t, store, &models.NodeRecord{
		ID:        "us-central1-a/web-1",
		Status:    "RUNNING",
		PublicIP:  "34.1.2.3",
		PrivateIP: "10.128.0.2",
		Duration:  1 * time.Hour,
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-1 * time.Hour),
	})
	provider.SetNode("us-central1-a", "web-1", "RUNNING", "34.1.2.3")

	sched := scheduler.NewScheduler(provider, store)
	sched.SetLogLevel(logrus.DebugLevel)
	sched.RunOnce()

	if len(provider.destroyCalls) != 1 {
		t.Fatalf("Expected 1 destroy call, got %d", len(provider.destroyCalls))
	}
	if provider.destroyCalls[0] != "us-central1-a/web-1" {
		t.Errorf("Expected destroy call for us-central1-a/web-1, got %s", provider.destroyCalls[0])
	}

	if _, err := store.GetNode("us-central1-a/web-1"); err == nil {
		t.Error("Expected record to be removed after destroy")
	}
}

func TestSchedulerDestroyFailureKeepsRecord(t *testing.T) {
	provider := NewMockProvider()
	provider.destroyErr = errors.New("quota exceeded")
	store := storage.NewFileStorage(t.TempDir() + "/test.json")

	saveRecord(t, store, &models.NodeRecord{
		ID:        "us-central1-a/web-2",
		Status:    "RUNNING",
		PublicIP:  "34.1.2.4",
		PrivateIP: "10.128.0.2",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	provider.SetNode("us-central1-a", "web-2", "RUNNING", "34.1.2.4")

	sched := scheduler.NewScheduler(provider, store)
	sched.RunOnce()

	if _, err := store.GetNode("us-central1-a/web-2"); err != nil {
		t.Errorf("Expected record to survive a failed destroy: %v", err)
	}
}

func TestSchedulerRemovesVanishedNode(t *testing.T) {
	provider := NewMockProvider()
	store := storage.NewFileStorage(t.TempDir() + "/test.json")

	saveRecord(t, store, &models.NodeRecord{
		ID:        "us-central1-a/gone",
		Status:    "RUNNING",
		ExpiresAt: time.Now().Add(time.Hour),
	})

	sched := scheduler.NewScheduler(provider, store)
	sched.RunOnce()

	if len(provider.destroyCalls) != 0 {
		t.Errorf("Expected no destroy calls, got %d", len(provider.destroyCalls))
	}
	if _, err := store.GetNode("us-central1-a/gone"); err == nil {
		t.Error("Expected record of vanished node to be removed")
	}
}

func TestSchedulerStateSync(t *testing.T) {
	provider := NewMockProvider()
	store := storage.NewFileStorage(t.TempDir() + "/test.json")

	saveRecord(t, store, &models.NodeRecord{
		ID:        "us-central1-a/sync",
		Status:    "PROVISIONING",
		Duration:  1 * time.Hour,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	})
	provider.SetNode("us-central1-a", "sync", "RUNNING", "34.9.9.9")

	sched := scheduler.NewScheduler(provider, store)
	sched.SetLogLevel(logrus.DebugLevel)
	sched.RunOnce()

	updated, err := store.GetNode("us-central1-a/sync")
	if err != nil {
		t.Fatalf("Failed to get updated node: %v", err)
	}

	if updated.Status != "RUNNING" {
		t.Errorf("Expected status to be synced to 'RUNNING', got %s", updated.Status)
	}
	if updated.PublicIP != "34.9.9.9" {
		t.Errorf("Expected public IP 34.9.9.9, got %s", updated.PublicIP)
	}
	if len(provider.destroyCalls) != 0 {
		t.Errorf("Expected no destroy calls, got %d", len(provider.destroyCalls))
	}
}

func TestSchedulerProviderErrorLeavesRecord(t *testing.T) {
	provider := NewMockProvider()
	provider.getErr = errors.New("backend unavailable")
	store := storage.NewFileStorage(t.TempDir() + "/test.json")

	saveRecord(t, store, &models.NodeRecord{
		ID:        "us-central1-a/flaky",
		Status:    "RUNNING",
		ExpiresAt: time.Now().Add(-time.Hour),
	})

	sched := scheduler.NewScheduler(provider, store)
	sched.RunOnce()

	if len(provider.destroyCalls) != 0 {
		t.Errorf("Expected no destroy calls, got %d", len(provider.destroyCalls))
	}
	record, err := store.GetNode("us-central1-a/flaky")
	if err != nil {
		t.Fatalf("Expected record to remain: %v", err)
	}
	if record.Status != "RUNNING" {
		t.Errorf("Expected status unchanged, got %s", record.Status)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	provider := NewMockProvider()
	store := storage.NewFileStorage(t.TempDir() + "/test.json")

	saveRecord(t, store, &models.NodeRecord{
		ID:        "us-central1-a/ticker",
		Status:    "RUNNING",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	provider.SetNode("us-central1-a", "ticker", "RUNNING", "")

	sched := scheduler.NewScheduler(provider, store)
	sched.SetInterval(10 * time.Millisecond)
	sched.Start()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		provider.mu.Lock()
		calls := len(provider.getCalls)
		provider.mu.Unlock()
		if calls > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	sched.Stop()

	provider.mu.Lock()
	defer provider.mu.Unlock()
	if len(provider.getCalls) == 0 {
		t.Error("Expected the running scheduler to poll the provider")
	}
}
