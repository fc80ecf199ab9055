package models

import "time"

// Instance represents a compute instance as reported by the provider
type Instance struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Zone              string            `json:"zone"`
	MachineType       string            `json:"machine_type"`
	Status            string            `json:"status"`
	PublicIP          string            `json:"public_ip,omitempty"`
	PrivateIP         string            `json:"private_ip,omitempty"`
	Network           string            `json:"network,omitempty"`
	Tags              []string          `json:"tags,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	SelfLink          string            `json:"self_link"`
	CreationTimestamp time.Time         `json:"creation_timestamp"`
}

// NodeID returns the composite zone/name identifier of the instance
func (i *Instance) NodeID() string {
	return ZoneAndID{Zone: i.Zone, ID: i.Name}.SlashEncode()
}

// IsRunning reports whether the provider says the instance is running
func (i *Instance) IsRunning() bool {
	return i.Status == "RUNNING"
}

// Deprecation describes the deprecation state of an image
type Deprecation struct {
	State       string `json:"state"`
	Replacement string `json:"replacement,omitempty"`
	Deprecated  string `json:"deprecated,omitempty"`
	Obsolete    string `json:"obsolete,omitempty"`
	Deleted     string `json:"deleted,omitempty"`
}

// Image is a bootable disk image
type Image struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Project            string            `json:"project"`
	Description        string            `json:"description,omitempty"`
	Family             string            `json:"family,omitempty"`
	Status             string            `json:"status,omitempty"`
	SourceType         string            `json:"source_type,omitempty"`
	DiskSizeGb         int64             `json:"disk_size_gb,omitempty"`
	SelfLink           string            `json:"self_link"`
	Deprecated         *Deprecation      `json:"deprecated,omitempty"`
	DefaultCredentials *LoginCredentials `json:"-"`
}

// IsDeprecated reports whether the image carries a deprecation status
func (i *Image) IsDeprecated() bool {
	return i.Deprecated != nil && i.Deprecated.State != "" && i.Deprecated.State != "ACTIVE"
}

// MachineType is a hardware profile available in a zone
type MachineType struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	Zone                   string `json:"zone"`
	Description            string `json:"description,omitempty"`
	GuestCPUs              int64  `json:"guest_cpus"`
	MemoryMb               int64  `json:"memory_mb"`
	MaximumPersistentDisks int64  `json:"maximum_persistent_disks,omitempty"`
	SelfLink               string `json:"self_link"`
}

// Zone is a location instances can be placed in
type Zone struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Region      string `json:"region,omitempty"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	SelfLink    string `json:"self_link"`
}

// Project is a provider project
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Network is a VPC network
type Network struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SelfLink string `json:"self_link"`
}

// FirewallRule is a single protocol/ports allowance
type FirewallRule struct {
	Protocol string   `json:"protocol"`
	Ports    []string `json:"ports,omitempty"`
}

// Firewall admits traffic to instances carrying one of TargetTags
type Firewall struct {
	Name         string         `json:"name"`
	Network      string         `json:"network"`
	Allowed      []FirewallRule `json:"allowed"`
	SourceRanges []string       `json:"source_ranges,omitempty"`
	TargetTags   []string       `json:"target_tags,omitempty"`
	SelfLink     string         `json:"self_link,omitempty"`
}

// Disk is a zonal persistent disk
type Disk struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Zone     string `json:"zone"`
	SizeGb   int64  `json:"size_gb"`
	Status   string `json:"status"`
	SelfLink string `json:"self_link"`
}

// ServiceAccount grants an instance an identity and OAuth scopes
type ServiceAccount struct {
	Email  string   `json:"email"`
	Scopes []string `json:"scopes"`
}

// NetworkInterface attaches an instance to a network, optionally with a one-to-one NAT
type NetworkInterface struct {
	Network          string `json:"network"`
	AccessConfigType string `json:"access_config_type,omitempty"`
}

// AccessConfigOneToOneNAT is the only external access type the provider offers
const AccessConfigOneToOneNAT = "ONE_TO_ONE_NAT"

// InstanceTemplate is the creation request submitted to the provider
type InstanceTemplate struct {
	Name              string             `json:"name"`
	Description       string             `json:"description,omitempty"`
	MachineType       string             `json:"machine_type"`
	Image             string             `json:"image"`
	NetworkInterfaces []NetworkInterface `json:"network_interfaces"`
	Metadata          map[string]string  `json:"metadata,omitempty"`
	Tags              []string           `json:"tags,omitempty"`
	ServiceAccounts   []ServiceAccount   `json:"service_accounts,omitempty"`
}

// AddNetworkInterface appends an interface on network, with external NAT when nat is set
func (t *InstanceTemplate) AddNetworkInterface(network string, nat bool) {
	nic := NetworkInterface{Network: network}
	if nat {
		nic.AccessConfigType = AccessConfigOneToOneNAT
	}
	t.NetworkInterfaces = append(t.NetworkInterfaces, nic)
}
