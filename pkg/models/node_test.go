package models_test

import (
	"testing"
	"time"

	"gce-instance-manager/pkg/models"
)

func TestNodeRecord_IsExpired(t *testing.T) {
	tests := []struct {
		name     string
		record   *models.NodeRecord
		expected bool
	}{
		{
			name:     "not expired",
			record:   &models.NodeRecord{ID: "us-central1-a/web-1", ExpiresAt: time.Now().Add(1 * time.Hour)},
			expected: false,
		},
		{
			name:     "expired",
			record:   &models.NodeRecord{ID: "us-central1-a/web-1", ExpiresAt: time.Now().Add(-1 * time.Hour)},
			expected: true,
		},
		{
			name:     "just expired",
			record:   &models.NodeRecord{ID: "us-central1-a/web-1", ExpiresAt: time.Now().Add(-1 * time.Second)},
			expected: true,
		},
		{
			name:     "no expiry",
			record:   &models.NodeRecord{ID: "us-central1-a/web-1"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.IsExpired(); got != tt.expected {
				t.Errorf("NodeRecord.IsExpired() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNodeRecord_GetConnectionString(t *testing.T) {
	tests := []struct {
		name     string
		record   *models.NodeRecord
		expected string
	}{
		{
			name:     "with public IP and username",
			record:   &models.NodeRecord{PublicIP: "1.2.3.4", Username: "admin"},
			expected: "admin@1.2.3.4",
		},
		{
			name:     "without public IP",
			record:   &models.NodeRecord{Username: "admin"},
			expected: "",
		},
		{
			name:     "without username",
			record:   &models.NodeRecord{PublicIP: "1.2.3.4"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.GetConnectionString(); got != tt.expected {
				t.Errorf("NodeRecord.GetConnectionString() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNodeRecord_GetSSHCommand(t *testing.T) {
	record := &models.NodeRecord{PublicIP: "1.2.3.4", Username: "admin"}

	if got := record.GetSSHCommand("/tmp/key"); got != "ssh -i /tmp/key admin@1.2.3.4" {
		t.Errorf("unexpected command with key: %s", got)
	}
	if got := record.GetSSHCommand(""); got != "ssh admin@1.2.3.4" {
		t.Errorf("unexpected command without key: %s", got)
	}
	if got := (&models.NodeRecord{}).GetSSHCommand("/tmp/key"); got != "" {
		t.Errorf("expected empty command, got %s", got)
	}
}

func TestNodeRecord_IsReady(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		ip       string
		expected bool
	}{
		{"running with ip", "RUNNING", "1.2.3.4", true},
		{"running without ip", "RUNNING", "", false},
		{"staging with ip", "STAGING", "1.2.3.4", false},
		{"terminated", "TERMINATED", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &models.NodeRecord{Status: tt.status, PublicIP: tt.ip}
			if got := record.IsReady(); got != tt.expected {
				t.Errorf("NodeRecord.IsReady() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNodeRecord_NeedsIPUpdate(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		ip       string
		expected bool
	}{
		{"running without ip", "RUNNING", "", true},
		{"provisioning without ip", "PROVISIONING", "", true},
		{"running with ip", "RUNNING", "1.2.3.4", false},
		{"terminated", "TERMINATED", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &models.NodeRecord{Status: tt.status, PublicIP: tt.ip}
			if got := record.NeedsIPUpdate(); got != tt.expected {
				t.Errorf("NodeRecord.NeedsIPUpdate() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewNodeRecord(t *testing.T) {
	node := &models.Instance{
		Name:        "web-1a2",
		Zone:        "europe-west1-b",
		MachineType: "e2-small",
		Status:      "RUNNING",
		PublicIP:    "35.1.2.3",
	}
	creds := models.LoginCredentials{User: "admin", PrivateKey: "pem"}

	record := models.NewNodeRecord("web", node, creds, "debian-12", 2*time.Hour)

	if record.ID != "europe-west1-b/web-1a2" {
		t.Errorf("ID = %s, want europe-west1-b/web-1a2", record.ID)
	}
	if record.Username != "admin" || record.PrivateKey != "pem" {
		t.Errorf("credentials not copied: %+v", record)
	}
	if record.PublicIP != "35.1.2.3" || record.Status != "RUNNING" {
		t.Errorf("observed state not copied: %+v", record)
	}
	if record.ExpiresAt.Sub(record.CreatedAt) != 2*time.Hour {
		t.Errorf("ExpiresAt = %v, want CreatedAt+2h", record.ExpiresAt)
	}
}

func TestNodeRecord_Extend(t *testing.T) {
	record := &models.NodeRecord{Duration: time.Hour, ExpiresAt: time.Now().Add(30 * time.Minute)}
	before := record.ExpiresAt

	record.Extend(time.Hour)

	if record.ExpiresAt.Sub(before) != time.Hour {
		t.Errorf("ExpiresAt moved by %v, want 1h", record.ExpiresAt.Sub(before))
	}
	if record.Duration != 2*time.Hour {
		t.Errorf("Duration = %v, want 2h", record.Duration)
	}
}
