package gce

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gce-instance-manager/pkg/models"

	"github.com/samber/lo"
)

// FirewallTagNaming names the per-port firewalls and instance tags of a node group.
type FirewallTagNaming struct {
	shared string
}

func NewFirewallTagNaming(group string) FirewallTagNaming {
	return FirewallTagNaming{shared: group}
}

// Name returns "<group>-port-<port>".
func (n FirewallTagNaming) Name(port int) string {
	return fmt.Sprintf("%s-port-%d", n.shared, port)
}

// IsFirewallTag reports whether tag was produced by Name for this group.
func (n FirewallTagNaming) IsFirewallTag(tag string) bool {
	suffix, ok := strings.CutPrefix(tag, n.shared+"-port-")
	if !ok {
		return false
	}
	_, err := strconv.Atoi(suffix)
	return err == nil
}

// ensureFirewalls makes sure a firewall exists for every port and returns the tags
// an instance needs to be covered by them.
func (a *Adapter) ensureFirewalls(ctx context.Context, project, network, group string, ports []int) ([]string, error) {
	if a.api.Firewalls == nil {
		return nil, fmt.Errorf("firewall API is not configured")
	}
	naming := NewFirewallTagNaming(group)
	scope := Scope{Project: project}
	var tags []string

	for _, port := range lo.Uniq(ports) {
		name := naming.Name(port)
		tags = append(tags, name)

		existing, err := a.api.Firewalls.Get(ctx, scope, name)
		if err != nil {
			return nil, fmt.Errorf("failed to get firewall %s: %w", name, err)
		}
		if existing != nil {
			continue
		}

		portStr := strconv.Itoa(port)
		op, err := a.api.Firewalls.Create(ctx, scope, &models.Firewall{
			Name:    name,
			Network: network,
			Allowed: []models.FirewallRule{
				{Protocol: "tcp", Ports: []string{portStr}},
				{Protocol: "udp", Ports: []string{portStr}},
			},
			SourceRanges: []string{"0.0.0.0/0"},
			TargetTags:   []string{name},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create firewall %s: %w", name, err)
		}
		if _, err := a.waiter.wait(ctx, scope, op); err != nil {
			return nil, fmt.Errorf("failed to create firewall %s: %w", name, err)
		}
		a.logger.WithField("firewall", name).Info("Created firewall")
	}

	return tags, nil
}

// DeleteGroupFirewalls removes the per-port firewalls created for group.
func (a *Adapter) DeleteGroupFirewalls(ctx context.Context, group string) ([]string, error) {
	if a.api.Firewalls == nil {
		return nil, fmt.Errorf("firewall API is not configured")
	}
	project, err := a.projects.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	scope := Scope{Project: project}

	firewalls, err := listAll(ctx, a.api.Firewalls, scope, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list firewalls: %w", err)
	}

	naming := NewFirewallTagNaming(group)
	var deleted []string
	for _, fw := range firewalls {
		if !naming.IsFirewallTag(fw.Name) {
			continue
		}
		op, err := a.api.Firewalls.Delete(ctx, scope, fw.Name)
		if err != nil {
			return deleted, fmt.Errorf("failed to delete firewall %s: %w", fw.Name, err)
		}
		if op != nil {
			if _, err := a.waiter.wait(ctx, scope, op); err != nil {
				return deleted, fmt.Errorf("failed to delete firewall %s: %w", fw.Name, err)
			}
		}
		deleted = append(deleted, fw.Name)
	}
	return deleted, nil
}
