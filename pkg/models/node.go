package models

import (
	"fmt"
	"time"
)

// NodeRecord is the locally stored record of a node this tool provisioned
type NodeRecord struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Group       string        `json:"group"`
	Zone        string        `json:"zone"`
	MachineType string        `json:"machine_type"`
	Image       string        `json:"image"`
	Status      string        `json:"status"`
	PublicIP    string        `json:"public_ip,omitempty"`
	PrivateIP   string        `json:"private_ip,omitempty"`
	Username    string        `json:"username"`
	PrivateKey  string        `json:"private_key,omitempty"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

// NewNodeRecord builds a record for a freshly created node
func NewNodeRecord(group string, node *Instance, creds LoginCredentials, image string, duration time.Duration) *NodeRecord {
	now := time.Now()
	record := &NodeRecord{
		ID:          node.NodeID(),
		Name:        node.Name,
		Group:       group,
		Zone:        node.Zone,
		MachineType: node.MachineType,
		Image:       image,
		Username:    creds.User,
		PrivateKey:  creds.PrivateKey,
		Duration:    duration,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if duration > 0 {
		record.ExpiresAt = now.Add(duration)
	}
	record.Observe(node)
	return record
}

// Observe copies the provider-reported state of node into the record
func (r *NodeRecord) Observe(node *Instance) {
	r.Status = node.Status
	r.PublicIP = node.PublicIP
	r.PrivateIP = node.PrivateIP
}

// IsExpired checks if the node has outlived its duration. Records without a duration never expire.
func (r *NodeRecord) IsExpired() bool {
	if r.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(r.ExpiresAt)
}

// Extend pushes the expiry out by d
func (r *NodeRecord) Extend(d time.Duration) {
	base := r.ExpiresAt
	if base.IsZero() || base.Before(time.Now()) {
		base = time.Now()
	}
	r.ExpiresAt = base.Add(d)
	r.Duration += d
	r.UpdatedAt = time.Now()
}

// GetConnectionString returns the SSH connection string for the node
func (r *NodeRecord) GetConnectionString() string {
	if r.PublicIP != "" && r.Username != "" {
		return r.Username + "@" + r.PublicIP
	}
	return ""
}

// GetSSHCommand returns a complete SSH command for the node
func (r *NodeRecord) GetSSHCommand(keyPath string) string {
	conn := r.GetConnectionString()
	if conn == "" {
		return ""
	}
	if keyPath == "" {
		return "ssh " + conn
	}
	return fmt.Sprintf("ssh -i %s %s", keyPath, conn)
}

// IsReady checks if the node is ready for connections
func (r *NodeRecord) IsReady() bool {
	return r.Status == "RUNNING" && r.PublicIP != ""
}

// NeedsIPUpdate checks if the record is missing an address the node should have by now
func (r *NodeRecord) NeedsIPUpdate() bool {
	return (r.Status == "RUNNING" || r.Status == "PROVISIONING" || r.Status == "STAGING") && r.PublicIP == ""
}
