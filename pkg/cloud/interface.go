package cloud

import (
	"context"
	"errors"

	"gce-instance-manager/pkg/models"
)

// ErrUnsupported is returned for lifecycle actions the provider does not offer.
var ErrUnsupported = errors.New("not supported by GCE")

// NodeAndInitialCredentials is the result of creating a node
type NodeAndInitialCredentials struct {
	Node        *models.Instance        `json:"node"`
	NodeID      string                  `json:"node_id"`
	Credentials models.LoginCredentials `json:"credentials"`
}

// ComputeServiceAdapter defines the interface a compute provider must implement
type ComputeServiceAdapter interface {
	// CreateNodeWithGroupEncodedIntoName creates a node and waits until it is visible
	CreateNodeWithGroupEncodedIntoName(ctx context.Context, group, name string, template *models.Template) (*NodeAndInitialCredentials, error)

	// ListHardwareProfiles returns the machine types of every zone
	ListHardwareProfiles(ctx context.Context) ([]*models.MachineType, error)

	// ListImages returns the images of the caller's project and the shared image project
	ListImages(ctx context.Context) ([]*models.Image, error)

	// GetImage looks an image up in the caller's project, then in the shared image project
	GetImage(ctx context.Context, id string) (*models.Image, error)

	// ListLocations returns the zones of the caller's project
	ListLocations(ctx context.Context) ([]*models.Zone, error)

	// GetNode returns the node with the given zone/name id, or nil if it does not exist
	GetNode(ctx context.Context, id string) (*models.Instance, error)

	// ListNodes returns the nodes of every zone
	ListNodes(ctx context.Context) ([]*models.Instance, error)

	// ListNodesByIDs returns the nodes whose zone/name id is in ids
	ListNodesByIDs(ctx context.Context, ids []string) ([]*models.Instance, error)

	// DestroyNode deletes the node and waits for the deletion to finish
	DestroyNode(ctx context.Context, id string) error

	RebootNode(ctx context.Context, id string) error
	ResumeNode(ctx context.Context, id string) error
	SuspendNode(ctx context.Context, id string) error

	// ValidateCredentials checks if the provider credentials are valid
	ValidateCredentials(ctx context.Context) error
}
