package gce

import (
	"context"
	"fmt"

	"gce-instance-manager/pkg/models"
)

// ListNetworks lists the networks of the project.
func (a *Adapter) ListNetworks(ctx context.Context) ([]*models.Network, error) {
	if a.api.Networks == nil {
		return nil, fmt.Errorf("network API is not configured")
	}
	project, err := a.projects.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	networks, err := listAll(ctx, a.api.Networks, Scope{Project: project}, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}
	return networks, nil
}

// ListDisks lists the persistent disks of every zone.
func (a *Adapter) ListDisks(ctx context.Context) ([]*models.Disk, error) {
	if a.api.Disks == nil {
		return nil, fmt.Errorf("disk API is not configured")
	}
	project, err := a.projects.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	zones, err := a.ListLocations(ctx)
	if err != nil {
		return nil, err
	}

	var disks []*models.Disk
	for _, zone := range zones {
		items, err := listAll(ctx, a.api.Disks, Scope{Project: project, Zone: zone.Name}, true, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list disks in zone %s: %w", zone.Name, err)
		}
		disks = append(disks, items...)
	}
	return disks, nil
}

// GetDisk returns the disk with the given zone/name id, or nil if it does not exist.
func (a *Adapter) GetDisk(ctx context.Context, id string) (*models.Disk, error) {
	if a.api.Disks == nil {
		return nil, fmt.Errorf("disk API is not configured")
	}
	scope, name, err := a.nodeScope(ctx, id)
	if err != nil {
		return nil, err
	}
	disk, err := a.api.Disks.Get(ctx, scope, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk %s: %w", id, err)
	}
	return disk, nil
}
