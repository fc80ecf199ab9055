package gce

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"gce-instance-manager/pkg/models"

	compute "google.golang.org/api/compute/v1"
)

// lastSegment returns the resource name at the end of a self link.
func lastSegment(link string) string {
	if i := strings.LastIndex(link, "/"); i >= 0 {
		return link[i+1:]
	}
	return link
}

// projectFromLink returns the project segment of a self link.
func projectFromLink(link string) string {
	_, rest, ok := strings.Cut(link, "/projects/")
	if !ok {
		return ""
	}
	project, _, _ := strings.Cut(rest, "/")
	return project
}

func formatID(id uint64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(id, 10)
}

func convertOperation(op *compute.Operation) *models.Operation {
	out := &models.Operation{
		ID:            formatID(op.Id),
		Name:          op.Name,
		SelfLink:      op.SelfLink,
		TargetLink:    op.TargetLink,
		Zone:          lastSegment(op.Zone),
		OperationType: op.OperationType,
		Status:        models.OperationStatus(op.Status),
		Progress:      int(op.Progress),
	}
	if op.Error != nil {
		for _, e := range op.Error.Errors {
			out.Errors = append(out.Errors, models.OperationErrorDetail{
				Code:     e.Code,
				Message:  e.Message,
				Location: e.Location,
			})
		}
	}
	if op.HttpErrorStatusCode != 0 {
		out.HTTPError = &models.HTTPError{
			StatusCode: int(op.HttpErrorStatusCode),
			Message:    op.HttpErrorMessage,
		}
	} else if len(out.Errors) > 0 {
		out.HTTPError = &models.HTTPError{Message: out.Errors[0].Message}
	}
	return out
}

func convertInstance(inst *compute.Instance) *models.Instance {
	out := &models.Instance{
		ID:          formatID(inst.Id),
		Name:        inst.Name,
		Zone:        lastSegment(inst.Zone),
		MachineType: lastSegment(inst.MachineType),
		Status:      inst.Status,
		SelfLink:    inst.SelfLink,
	}
	if ts, err := time.Parse(time.RFC3339, inst.CreationTimestamp); err == nil {
		out.CreationTimestamp = ts
	}
	if inst.Tags != nil {
		out.Tags = inst.Tags.Items
	}
	if inst.Metadata != nil && len(inst.Metadata.Items) > 0 {
		out.Metadata = make(map[string]string, len(inst.Metadata.Items))
		for _, item := range inst.Metadata.Items {
			if item.Value != nil {
				out.Metadata[item.Key] = *item.Value
			}
		}
	}
	if len(inst.NetworkInterfaces) > 0 {
		nic := inst.NetworkInterfaces[0]
		out.PrivateIP = nic.NetworkIP
		out.Network = lastSegment(nic.Network)
		for _, ac := range nic.AccessConfigs {
			if ac.NatIP != "" {
				out.PublicIP = ac.NatIP
				break
			}
		}
	}
	return out
}

func instanceFromTemplate(t *models.InstanceTemplate) *compute.Instance {
	inst := &compute.Instance{
		Name:        t.Name,
		Description: t.Description,
		MachineType: t.MachineType,
		Disks: []*compute.AttachedDisk{{
			Boot:       true,
			AutoDelete: true,
			Type:       "PERSISTENT",
			InitializeParams: &compute.AttachedDiskInitializeParams{
				SourceImage: t.Image,
			},
		}},
	}

	for _, nic := range t.NetworkInterfaces {
		ni := &compute.NetworkInterface{Network: nic.Network}
		if nic.AccessConfigType != "" {
			ni.AccessConfigs = []*compute.AccessConfig{{Type: nic.AccessConfigType, Name: "External NAT"}}
		}
		inst.NetworkInterfaces = append(inst.NetworkInterfaces, ni)
	}
	if len(t.Tags) > 0 {
		inst.Tags = &compute.Tags{Items: t.Tags}
	}
	if len(t.Metadata) > 0 {
		inst.Metadata = &compute.Metadata{}
		for _, key := range slices.Sorted(maps.Keys(t.Metadata)) {
			value := t.Metadata[key]
			inst.Metadata.Items = append(inst.Metadata.Items, &compute.MetadataItems{Key: key, Value: &value})
		}
	}
	for _, sa := range t.ServiceAccounts {
		inst.ServiceAccounts = append(inst.ServiceAccounts, &compute.ServiceAccount{Email: sa.Email, Scopes: sa.Scopes})
	}
	return inst
}

func convertImage(image *compute.Image) *models.Image {
	out := &models.Image{
		ID:          formatID(image.Id),
		Name:        image.Name,
		Project:     projectFromLink(image.SelfLink),
		Description: image.Description,
		Family:      image.Family,
		Status:      image.Status,
		SourceType:  image.SourceType,
		DiskSizeGb:  image.DiskSizeGb,
		SelfLink:    image.SelfLink,
	}
	if d := image.Deprecated; d != nil {
		out.Deprecated = &models.Deprecation{
			State:       d.State,
			Replacement: d.Replacement,
			Deprecated:  d.Deprecated,
			Obsolete:    d.Obsolete,
			Deleted:     d.Deleted,
		}
	}
	return out
}

func convertMachineType(mt *compute.MachineType) *models.MachineType {
	return &models.MachineType{
		ID:                     formatID(mt.Id),
		Name:                   mt.Name,
		Zone:                   lastSegment(mt.Zone),
		Description:            mt.Description,
		GuestCPUs:              mt.GuestCpus,
		MemoryMb:               mt.MemoryMb,
		MaximumPersistentDisks: mt.MaximumPersistentDisks,
		SelfLink:               mt.SelfLink,
	}
}

func convertZone(zone *compute.Zone) *models.Zone {
	return &models.Zone{
		ID:          formatID(zone.Id),
		Name:        zone.Name,
		Region:      lastSegment(zone.Region),
		Status:      zone.Status,
		Description: zone.Description,
		SelfLink:    zone.SelfLink,
	}
}

func convertProject(p *compute.Project) *models.Project {
	return &models.Project{ID: formatID(p.Id), Name: p.Name}
}

func convertNetwork(n *compute.Network) *models.Network {
	return &models.Network{ID: formatID(n.Id), Name: n.Name, SelfLink: n.SelfLink}
}

func convertFirewall(fw *compute.Firewall) *models.Firewall {
	out := &models.Firewall{
		Name:         fw.Name,
		Network:      fw.Network,
		SourceRanges: fw.SourceRanges,
		TargetTags:   fw.TargetTags,
		SelfLink:     fw.SelfLink,
	}
	for _, a := range fw.Allowed {
		out.Allowed = append(out.Allowed, models.FirewallRule{Protocol: a.IPProtocol, Ports: a.Ports})
	}
	return out
}

func firewallToCompute(fw *models.Firewall) *compute.Firewall {
	out := &compute.Firewall{
		Name:         fw.Name,
		Network:      fw.Network,
		SourceRanges: fw.SourceRanges,
		TargetTags:   fw.TargetTags,
	}
	for _, rule := range fw.Allowed {
		out.Allowed = append(out.Allowed, &compute.FirewallAllowed{IPProtocol: rule.Protocol, Ports: rule.Ports})
	}
	return out
}

func convertDisk(d *compute.Disk) *models.Disk {
	return &models.Disk{
		ID:       formatID(d.Id),
		Name:     d.Name,
		Zone:     lastSegment(d.Zone),
		SizeGb:   d.SizeGb,
		Status:   d.Status,
		SelfLink: d.SelfLink,
	}
}
