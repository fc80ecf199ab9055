package gce

import (
	"context"
	"fmt"
	"time"

	"gce-instance-manager/internal/metrics"
	"gce-instance-manager/internal/poll"
	"gce-instance-manager/pkg/cloud"
	"gce-instance-manager/pkg/models"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Settings configure an Adapter
type Settings struct {
	// ImageProject is the shared project public images are listed from
	ImageProject string
	// OperationInterval is the pause between two reads while waiting
	OperationInterval time.Duration
	// OperationTimeout bounds every wait
	OperationTimeout time.Duration
}

// Adapter implements cloud.ComputeServiceAdapter on top of the compute API
type Adapter struct {
	api          API
	projects     *ProjectResolver
	imageProject string
	interval     time.Duration
	timeout      time.Duration
	waiter       *operationWaiter
	logger       logrus.FieldLogger
}

var _ cloud.ComputeServiceAdapter = (*Adapter)(nil)

// NewAdapter creates an adapter. A nil logger uses the logrus standard logger.
func NewAdapter(api API, projects *ProjectResolver, settings Settings, logger logrus.FieldLogger) (*Adapter, error) {
	if settings.OperationInterval <= 0 {
		return nil, fmt.Errorf("operation interval must be positive, got %s", settings.OperationInterval)
	}
	if settings.OperationTimeout <= 0 {
		return nil, fmt.Errorf("operation timeout must be positive, got %s", settings.OperationTimeout)
	}
	if settings.ImageProject == "" {
		return nil, fmt.Errorf("image project is required")
	}
	if api.Instances == nil || api.Operations == nil || api.Zones == nil || api.MachineTypes == nil || api.Images == nil {
		return nil, fmt.Errorf("compute API is incomplete")
	}
	if projects == nil {
		return nil, fmt.Errorf("project resolver is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Adapter{
		api:          api,
		projects:     projects,
		imageProject: settings.ImageProject,
		interval:     settings.OperationInterval,
		timeout:      settings.OperationTimeout,
		waiter: &operationWaiter{
			ops:      api.Operations,
			interval: settings.OperationInterval,
			timeout:  settings.OperationTimeout,
			logger:   logger,
		},
		logger: logger,
	}, nil
}

// CreateNodeWithGroupEncodedIntoName submits an instance built from template and returns it
// once the provider can read it back. With BlockUntilRunning the creation operation is
// awaited first, and a failed or unfinished operation ends the call without reading back.
func (a *Adapter) CreateNodeWithGroupEncodedIntoName(ctx context.Context, group, name string, template *models.Template) (*cloud.NodeAndInitialCredentials, error) {
	network, err := validateTemplate(template)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, invalidTemplate("node name is required")
	}

	project, err := a.projects.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	zone := template.Location.ID
	scope := Scope{Project: project, Zone: zone}
	options := template.Options
	log := a.logger.WithFields(logrus.Fields{"group": group, "name": name, "zone": zone})

	machineType, err := a.api.MachineTypes.Get(ctx, scope, template.Hardware.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve machine type %s: %w", template.Hardware.Name, err)
	}
	if machineType == nil {
		return nil, invalidTemplate("machine type %s not found in zone %s", template.Hardware.Name, zone)
	}

	creds, publicKey, err := deriveCredentials(template.Image.DefaultCredentials, options.CredentialOverrides())
	if err != nil {
		return nil, err
	}

	request := &models.InstanceTemplate{
		Name:            name,
		Description:     fmt.Sprintf("node %s of group %s", name, group),
		MachineType:     machineType.SelfLink,
		Image:           template.Image.SelfLink,
		Metadata:        metadataFromOptions(group, creds.User, publicKey, options),
		Tags:            lo.Uniq(options.Tags()),
		ServiceAccounts: options.ServiceAccounts(),
	}
	request.AddNetworkInterface(network, options.EnableNAT())

	if ports := options.InboundPorts(); len(ports) > 0 {
		firewallTags, err := a.ensureFirewalls(ctx, project, network, group, ports)
		if err != nil {
			return nil, err
		}
		request.Tags = lo.Uniq(append(request.Tags, firewallTags...))
	}

	log.Info("Creating instance")
	op, err := a.api.Instances.Create(ctx, scope, request)
	if err != nil {
		return nil, fmt.Errorf("failed to create instance %s: %w", name, err)
	}

	if options.BlockUntilRunning() {
		if op == nil {
			return nil, fmt.Errorf("failed to create instance %s: no operation returned", name)
		}
		if _, err := a.waiter.wait(ctx, scope, op); err != nil {
			return nil, fmt.Errorf("failed to create instance %s: %w", name, err)
		}
	}

	node, err := a.waitVisible(ctx, scope, name)
	if err != nil {
		return nil, err
	}
	log.WithField("status", node.Status).Info("Instance created")

	return &cloud.NodeAndInitialCredentials{
		Node:        node,
		NodeID:      models.ZoneAndID{Zone: zone, ID: name}.SlashEncode(),
		Credentials: creds,
	}, nil
}

func validateTemplate(t *models.Template) (string, error) {
	if t == nil {
		return "", invalidTemplate("template is required")
	}
	if t.Options == nil {
		return "", invalidTemplate("template options are required")
	}
	network, ok := t.Options.Network()
	if !ok {
		return "", invalidTemplate("network must be set")
	}
	if t.Location.Scope != models.LocationZone || t.Location.ID == "" {
		return "", invalidTemplate("location %q must be a zone, got scope %s", t.Location.ID, t.Location.Scope)
	}
	if t.Hardware.Name == "" {
		return "", invalidTemplate("hardware is required")
	}
	if t.Image == nil || t.Image.SelfLink == "" {
		return "", invalidTemplate("image is required")
	}
	return network, nil
}

// waitVisible reads the instance back until it exists.
func (a *Adapter) waitVisible(ctx context.Context, scope Scope, name string) (*models.Instance, error) {
	start := time.Now()
	probe := func(ctx context.Context) (*models.Instance, bool, error) {
		metrics.IncPollChecks(metrics.WaitVisibility)
		node, err := a.api.Instances.Get(ctx, scope, name)
		if err != nil {
			return nil, false, fmt.Errorf("failed to get instance %s: %w", name, err)
		}
		return node, node != nil, nil
	}

	node, ok, err := poll.Until(ctx, probe, a.timeout, a.interval)
	if err != nil {
		metrics.ObserveWait(metrics.WaitVisibility, metrics.ResultError, start)
		return nil, err
	}
	if !ok {
		metrics.ObserveWait(metrics.WaitVisibility, metrics.ResultTimeout, start)
		return nil, &TimeoutError{What: fmt.Sprintf("instance %s visibility", name), Timeout: a.timeout}
	}
	metrics.ObserveWait(metrics.WaitVisibility, metrics.ResultDone, start)
	return node, nil
}

func (a *Adapter) ListLocations(ctx context.Context) ([]*models.Zone, error) {
	project, err := a.projects.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	zones, err := listAll(ctx, a.api.Zones, Scope{Project: project}, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	return zones, nil
}

// ListNodes lists the instances of every zone of the project.
func (a *Adapter) ListNodes(ctx context.Context) ([]*models.Instance, error) {
	project, err := a.projects.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	zones, err := a.ListLocations(ctx)
	if err != nil {
		return nil, err
	}

	var nodes []*models.Instance
	for _, zone := range zones {
		items, err := listAll(ctx, a.api.Instances, Scope{Project: project, Zone: zone.Name}, true, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list instances in zone %s: %w", zone.Name, err)
		}
		nodes = append(nodes, items...)
	}

	return lo.UniqBy(nodes, func(n *models.Instance) string { return n.NodeID() }), nil
}

func (a *Adapter) ListNodesByIDs(ctx context.Context, ids []string) ([]*models.Instance, error) {
	nodes, err := a.ListNodes(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(nodes, func(n *models.Instance, _ int) bool {
		return lo.Contains(ids, n.NodeID())
	}), nil
}

func (a *Adapter) GetNode(ctx context.Context, id string) (*models.Instance, error) {
	scope, name, err := a.nodeScope(ctx, id)
	if err != nil {
		return nil, err
	}
	node, err := a.api.Instances.Get(ctx, scope, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get node %s: %w", id, err)
	}
	return node, nil
}

// DestroyNode deletes the node and waits for the deletion. A node that does not exist is
// already destroyed.
func (a *Adapter) DestroyNode(ctx context.Context, id string) error {
	scope, name, err := a.nodeScope(ctx, id)
	if err != nil {
		return err
	}
	log := a.logger.WithField("node", id)

	op, err := a.api.Instances.Delete(ctx, scope, name)
	if err != nil {
		return fmt.Errorf("failed to delete node %s: %w", id, err)
	}
	if op == nil {
		log.Info("Node does not exist, nothing to destroy")
		return nil
	}

	if _, err := a.waiter.wait(ctx, scope, op); err != nil {
		return fmt.Errorf("failed to delete node %s: %w", id, err)
	}
	log.Info("Node destroyed")
	return nil
}

func (a *Adapter) nodeScope(ctx context.Context, id string) (Scope, string, error) {
	zoneAndID, err := models.FromSlashEncoded(id)
	if err != nil {
		return Scope{}, "", fmt.Errorf("%w: %v", ErrInvalidNodeID, err)
	}
	project, err := a.projects.Resolve(ctx)
	if err != nil {
		return Scope{}, "", err
	}
	return Scope{Project: project, Zone: zoneAndID.Zone}, zoneAndID.ID, nil
}

func (a *Adapter) RebootNode(ctx context.Context, id string) error {
	return fmt.Errorf("reboot is %w", cloud.ErrUnsupported)
}

func (a *Adapter) ResumeNode(ctx context.Context, id string) error {
	return fmt.Errorf("resume is %w", cloud.ErrUnsupported)
}

func (a *Adapter) SuspendNode(ctx context.Context, id string) error {
	return fmt.Errorf("suspend is %w", cloud.ErrUnsupported)
}

// ListHardwareProfiles lists the machine types of every zone.
func (a *Adapter) ListHardwareProfiles(ctx context.Context) ([]*models.MachineType, error) {
	project, err := a.projects.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	zones, err := a.ListLocations(ctx)
	if err != nil {
		return nil, err
	}

	var machineTypes []*models.MachineType
	for _, zone := range zones {
		items, err := listAll(ctx, a.api.MachineTypes, Scope{Project: project, Zone: zone.Name}, true, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list machine types in zone %s: %w", zone.Name, err)
		}
		machineTypes = append(machineTypes, items...)
	}
	return machineTypes, nil
}

// ListImages lists the images of the caller's project together with the shared image project.
func (a *Adapter) ListImages(ctx context.Context) ([]*models.Image, error) {
	project, err := a.projects.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	images, err := listAll(ctx, a.api.Images, Scope{Project: project}, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list images of project %s: %w", project, err)
	}
	if project != a.imageProject {
		shared, err := listAll(ctx, a.api.Images, Scope{Project: a.imageProject}, false, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list images of project %s: %w", a.imageProject, err)
		}
		images = append(images, shared...)
	}

	return lo.UniqBy(images, func(i *models.Image) string { return i.SelfLink }), nil
}

// GetImage prefers an image of the caller's project over one of the shared image project.
func (a *Adapter) GetImage(ctx context.Context, id string) (*models.Image, error) {
	project, err := a.projects.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range lo.Uniq([]string{project, a.imageProject}) {
		image, err := a.api.Images.Get(ctx, Scope{Project: p}, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get image %s from project %s: %w", id, p, err)
		}
		if image != nil {
			return image, nil
		}
	}
	return nil, nil
}

// ValidateCredentials checks that the configured identity can read its project.
func (a *Adapter) ValidateCredentials(ctx context.Context) error {
	project, err := a.projects.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("invalid GCE credentials: %w", err)
	}
	if a.api.Projects == nil {
		return nil
	}
	p, err := a.api.Projects.Get(ctx, project)
	if err != nil {
		return fmt.Errorf("invalid GCE credentials: %w", err)
	}
	if p == nil {
		return fmt.Errorf("invalid GCE credentials: project %s not visible", project)
	}
	return nil
}
