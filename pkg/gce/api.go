package gce

import (
	"context"

	"gce-instance-manager/pkg/models"
)

// Scope is the project and zone a request is issued in. Global resources leave Zone empty.
type Scope struct {
	Project string
	Zone    string
}

// Zonal reports whether the scope names a zone
func (s Scope) Zonal() bool {
	return s.Zone != ""
}

// ListOptions narrow a listing. They are forwarded unchanged to every page request.
type ListOptions struct {
	Filter     string
	MaxResults int64
	OrderBy    string
}

// Lister fetches pages of a listing. ListAtMarker returns an empty page when the
// listing no longer exists.
type Lister[T any] interface {
	ListFirstPage(ctx context.Context, scope Scope, opts *ListOptions) (models.ListPage[T], error)
	ListAtMarker(ctx context.Context, scope Scope, marker string, opts *ListOptions) (models.ListPage[T], error)
}

// Get methods return nil without an error when the resource does not exist.
// Delete methods return a nil operation when there was nothing to delete.

type InstanceAPI interface {
	Lister[*models.Instance]
	Get(ctx context.Context, scope Scope, name string) (*models.Instance, error)
	Create(ctx context.Context, scope Scope, template *models.InstanceTemplate) (*models.Operation, error)
	Delete(ctx context.Context, scope Scope, name string) (*models.Operation, error)
}

type ImageAPI interface {
	Lister[*models.Image]
	Get(ctx context.Context, scope Scope, name string) (*models.Image, error)
}

type MachineTypeAPI interface {
	Lister[*models.MachineType]
	Get(ctx context.Context, scope Scope, name string) (*models.MachineType, error)
}

type ZoneAPI interface {
	Lister[*models.Zone]
	Get(ctx context.Context, scope Scope, name string) (*models.Zone, error)
}

// OperationAPI reads zonal operations when the scope has a zone and global ones otherwise.
type OperationAPI interface {
	Get(ctx context.Context, scope Scope, name string) (*models.Operation, error)
}

// ProjectAPI looks projects up by id.
type ProjectAPI interface {
	Get(ctx context.Context, id string) (*models.Project, error)
}

type NetworkAPI interface {
	Lister[*models.Network]
	Get(ctx context.Context, scope Scope, name string) (*models.Network, error)
}

type FirewallAPI interface {
	Lister[*models.Firewall]
	Get(ctx context.Context, scope Scope, name string) (*models.Firewall, error)
	Create(ctx context.Context, scope Scope, firewall *models.Firewall) (*models.Operation, error)
	Delete(ctx context.Context, scope Scope, name string) (*models.Operation, error)
}

type DiskAPI interface {
	Lister[*models.Disk]
	Get(ctx context.Context, scope Scope, name string) (*models.Disk, error)
}

// API groups the per-resource accessors the adapter is built on.
type API struct {
	Instances    InstanceAPI
	Images       ImageAPI
	MachineTypes MachineTypeAPI
	Zones        ZoneAPI
	Operations   OperationAPI
	Projects     ProjectAPI
	Networks     NetworkAPI
	Firewalls    FirewallAPI
	Disks        DiskAPI
}
