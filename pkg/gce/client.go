package gce

import (
	"context"
	"fmt"
	"net/http"

	"gce-instance-manager/internal/metrics"
	"gce-instance-manager/pkg/models"

	"golang.org/x/oauth2"
	compute "google.golang.org/api/compute/v1"
	"google.golang.org/api/option"
)

// ClientOptions select how the compute service authenticates and where it sends requests.
// HTTPClient takes precedence over AccessToken, which takes precedence over CredentialsFile.
// With none of them set, application default credentials are used.
type ClientOptions struct {
	CredentialsFile string
	AccessToken     string
	Endpoint        string
	UserAgent       string
	HTTPClient      *http.Client
}

// NewComputeService creates a compute/v1 service.
func NewComputeService(ctx context.Context, opts ClientOptions) (*compute.Service, error) {
	var clientOpts []option.ClientOption
	switch {
	case opts.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	case opts.AccessToken != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.AccessToken})
		clientOpts = append(clientOpts, option.WithTokenSource(ts))
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	if opts.UserAgent != "" {
		clientOpts = append(clientOpts, option.WithUserAgent(opts.UserAgent))
	}

	svc, err := compute.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute service: %w", err)
	}
	return svc, nil
}

// NewAPI wires every resource accessor to svc.
func NewAPI(svc *compute.Service) API {
	return API{
		Instances:    &instanceClient{svc: svc},
		Images:       &imageClient{svc: svc},
		MachineTypes: &machineTypeClient{svc: svc},
		Zones:        &zoneClient{svc: svc},
		Operations:   &operationClient{svc: svc},
		Projects:     &projectClient{svc: svc},
		Networks:     &networkClient{svc: svc},
		Firewalls:    &firewallClient{svc: svc},
		Disks:        &diskClient{svc: svc},
	}
}

type listCall[C any] interface {
	Filter(string) C
	MaxResults(int64) C
	OrderBy(string) C
	PageToken(string) C
}

func applyListOptions[C listCall[C]](call C, marker string, opts *ListOptions) C {
	if opts != nil {
		if opts.Filter != "" {
			call = call.Filter(opts.Filter)
		}
		if opts.MaxResults > 0 {
			call = call.MaxResults(opts.MaxResults)
		}
		if opts.OrderBy != "" {
			call = call.OrderBy(opts.OrderBy)
		}
	}
	if marker != "" {
		call = call.PageToken(marker)
	}
	return call
}

// page converts a list response, turning a 404 into an empty page.
func page[S any, T any](items []S, next string, err error, convert func(S) T) (models.ListPage[T], error) {
	if err != nil {
		if IsNotFound(err) {
			return models.ListPage[T]{}, nil
		}
		return models.ListPage[T]{}, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, convert(item))
	}
	return models.ListPage[T]{Items: out, NextMarker: next}, nil
}

// found converts a get response, turning a 404 into nil.
func found[S any, T any](item *S, err error, convert func(*S) *T) (*T, error) {
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return convert(item), nil
}

type instanceClient struct {
	svc *compute.Service
}

func (c *instanceClient) Get(ctx context.Context, scope Scope, name string) (*models.Instance, error) {
	metrics.IncAPICall("instances", "get")
	inst, err := c.svc.Instances.Get(scope.Project, scope.Zone, name).Context(ctx).Do()
	return found(inst, err, convertInstance)
}

func (c *instanceClient) Create(ctx context.Context, scope Scope, template *models.InstanceTemplate) (*models.Operation, error) {
	metrics.IncAPICall("instances", "insert")
	op, err := c.svc.Instances.Insert(scope.Project, scope.Zone, instanceFromTemplate(template)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return convertOperation(op), nil
}

func (c *instanceClient) Delete(ctx context.Context, scope Scope, name string) (*models.Operation, error) {
	metrics.IncAPICall("instances", "delete")
	op, err := c.svc.Instances.Delete(scope.Project, scope.Zone, name).Context(ctx).Do()
	return found(op, err, convertOperation)
}

func (c *instanceClient) ListFirstPage(ctx context.Context, scope Scope, opts *ListOptions) (models.ListPage[*models.Instance], error) {
	return c.ListAtMarker(ctx, scope, "", opts)
}

func (c *instanceClient) ListAtMarker(ctx context.Context, scope Scope, marker string, opts *ListOptions) (models.ListPage[*models.Instance], error) {
	metrics.IncAPICall("instances", "list")
	list, err := applyListOptions(c.svc.Instances.List(scope.Project, scope.Zone), marker, opts).Context(ctx).Do()
	if err != nil {
		return page[*compute.Instance](nil, "", err, convertInstance)
	}
	return page(list.Items, list.NextPageToken, nil, convertInstance)
}

type imageClient struct {
	svc *compute.Service
}

func (c *imageClient) Get(ctx context.Context, scope Scope, name string) (*models.Image, error) {
	metrics.IncAPICall("images", "get")
	image, err := c.svc.Images.Get(scope.Project, name).Context(ctx).Do()
	return found(image, err, convertImage)
}

func (c *imageClient) ListFirstPage(ctx context.Context, scope Scope, opts *ListOptions) (models.ListPage[*models.Image], error) {
	return c.ListAtMarker(ctx, scope, "", opts)
}

func (c *imageClient) ListAtMarker(ctx context.Context, scope Scope, marker string, opts *ListOptions) (models.ListPage[*models.Image], error) {
	metrics.IncAPICall("images", "list")
	list, err := applyListOptions(c.svc.Images.List(scope.Project), marker, opts).Context(ctx).Do()
	if err != nil {
		return page[*compute.Image](nil, "", err, convertImage)
	}
	return page(list.Items, list.NextPageToken, nil, convertImage)
}

type machineTypeClient struct {
	svc *compute.Service
}

func (c *machineTypeClient) Get(ctx context.Context, scope Scope, name string) (*models.MachineType, error) {
	metrics.IncAPICall("machineTypes", "get")
	mt, err := c.svc.MachineTypes.Get(scope.Project, scope.Zone, name).Context(ctx).Do()
	return found(mt, err, convertMachineType)
}

func (c *machineTypeClient) ListFirstPage(ctx context.Context, scope Scope, opts *ListOptions) (models.ListPage[*models.MachineType], error) {
	return c.ListAtMarker(ctx, scope, "", opts)
}

func (c *machineTypeClient) ListAtMarker(ctx context.Context, scope Scope, marker string, opts *ListOptions) (models.ListPage[*models.MachineType], error) {
	metrics.IncAPICall("machineTypes", "list")
	list, err := applyListOptions(c.svc.MachineTypes.List(scope.Project, scope.Zone), marker, opts).Context(ctx).Do()
	if err != nil {
		return page[*compute.MachineType](nil, "", err, convertMachineType)
	}
	return page(list.Items, list.NextPageToken, nil, convertMachineType)
}

type zoneClient struct {
	svc *compute.Service
}

func (c *zoneClient) Get(ctx context.Context, scope Scope, name string) (*models.Zone, error) {
	metrics.IncAPICall("zones", "get")
	zone, err := c.svc.Zones.Get(scope.Project, name).Context(ctx).Do()
	return found(zone, err, convertZone)
}

func (c *zoneClient) ListFirstPage(ctx context.Context, scope Scope, opts *ListOptions) (models.ListPage[*models.Zone], error) {
	return c.ListAtMarker(ctx, scope, "", opts)
}

func (c *zoneClient) ListAtMarker(ctx context.Context, scope Scope, marker string, opts *ListOptions) (models.ListPage[*models.Zone], error) {
	metrics.IncAPICall("zones", "list")
	list, err := applyListOptions(c.svc.Zones.List(scope.Project), marker, opts).Context(ctx).Do()
	if err != nil {
		return page[*compute.Zone](nil, "", err, convertZone)
	}
	return page(list.Items, list.NextPageToken, nil, convertZone)
}

type operationClient struct {
	svc *compute.Service
}

func (c *operationClient) Get(ctx context.Context, scope Scope, name string) (*models.Operation, error) {
	var (
		op  *compute.Operation
		err error
	)
	if scope.Zonal() {
		metrics.IncAPICall("zoneOperations", "get")
		op, err = c.svc.ZoneOperations.Get(scope.Project, scope.Zone, name).Context(ctx).Do()
	} else {
		metrics.IncAPICall("globalOperations", "get")
		op, err = c.svc.GlobalOperations.Get(scope.Project, name).Context(ctx).Do()
	}
	return found(op, err, convertOperation)
}

type projectClient struct {
	svc *compute.Service
}

func (c *projectClient) Get(ctx context.Context, id string) (*models.Project, error) {
	metrics.IncAPICall("projects", "get")
	project, err := c.svc.Projects.Get(id).Context(ctx).Do()
	return found(project, err, convertProject)
}

type networkClient struct {
	svc *compute.Service
}

func (c *networkClient) Get(ctx context.Context, scope Scope, name string) (*models.Network, error) {
	metrics.IncAPICall("networks", "get")
	network, err := c.svc.Networks.Get(scope.Project, name).Context(ctx).Do()
	return found(network, err, convertNetwork)
}

func (c *networkClient) ListFirstPage(ctx context.Context, scope Scope, opts *ListOptions) (models.ListPage[*models.Network], error) {
	return c.ListAtMarker(ctx, scope, "", opts)
}

func (c *networkClient) ListAtMarker(ctx context.Context, scope Scope, marker string, opts *ListOptions) (models.ListPage[*models.Network], error) {
	metrics.IncAPICall("networks", "list")
	list, err := applyListOptions(c.svc.Networks.List(scope.Project), marker, opts).Context(ctx).Do()
	if err != nil {
		return page[*compute.Network](nil, "", err, convertNetwork)
	}
	return page(list.Items, list.NextPageToken, nil, convertNetwork)
}

type firewallClient struct {
	svc *compute.Service
}

func (c *firewallClient) Get(ctx context.Context, scope Scope, name string) (*models.Firewall, error) {
	metrics.IncAPICall("firewalls", "get")
	fw, err := c.svc.Firewalls.Get(scope.Project, name).Context(ctx).Do()
	return found(fw, err, convertFirewall)
}

func (c *firewallClient) Create(ctx context.Context, scope Scope, firewall *models.Firewall) (*models.Operation, error) {
	metrics.IncAPICall("firewalls", "insert")
	op, err := c.svc.Firewalls.Insert(scope.Project, firewallToCompute(firewall)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return convertOperation(op), nil
}

func (c *firewallClient) Delete(ctx context.Context, scope Scope, name string) (*models.Operation, error) {
	metrics.IncAPICall("firewalls", "delete")
	op, err := c.svc.Firewalls.Delete(scope.Project, name).Context(ctx).Do()
	return found(op, err, convertOperation)
}

func (c *firewallClient) ListFirstPage(ctx context.Context, scope Scope, opts *ListOptions) (models.ListPage[*models.Firewall], error) {
	return c.ListAtMarker(ctx, scope, "", opts)
}

func (c *firewallClient) ListAtMarker(ctx context.Context, scope Scope, marker string, opts *ListOptions) (models.ListPage[*models.Firewall], error) {
	metrics.IncAPICall("firewalls", "list")
	list, err := applyListOptions(c.svc.Firewalls.List(scope.Project), marker, opts).Context(ctx).Do()
	if err != nil {
		return page[*compute.Firewall](nil, "", err, convertFirewall)
	}
	return page(list.Items, list.NextPageToken, nil, convertFirewall)
}

type diskClient struct {
	svc *compute.Service
}

func (c *diskClient) Get(ctx context.Context, scope Scope, name string) (*models.Disk, error) {
	metrics.IncAPICall("disks", "get")
	disk, err := c.svc.Disks.Get(scope.Project, scope.Zone, name).Context(ctx).Do()
	return found(disk, err, convertDisk)
}

func (c *diskClient) ListFirstPage(ctx context.Context, scope Scope, opts *ListOptions) (models.ListPage[*models.Disk], error) {
	return c.ListAtMarker(ctx, scope, "", opts)
}

func (c *diskClient) ListAtMarker(ctx context.Context, scope Scope, marker string, opts *ListOptions) (models.ListPage[*models.Disk], error) {
	metrics.IncAPICall("disks", "list")
	list, err := applyListOptions(c.svc.Disks.List(scope.Project, scope.Zone), marker, opts).Context(ctx).Do()
	if err != nil {
		return page[*compute.Disk](nil, "", err, convertDisk)
	}
	return page(list.Items, list.NextPageToken, nil, convertDisk)
}
