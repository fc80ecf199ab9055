package gce

import (
	"context"
	"fmt"

	"gce-instance-manager/pkg/models"
)

// TemplateSpec is a node request by resource names.
type TemplateSpec struct {
	MachineType       string
	Zone              string
	Image             string
	Network           string
	NAT               bool
	Tags              []string
	Metadata          map[string]string
	InboundPorts      []int
	ServiceAccounts   []models.ServiceAccount
	BlockUntilRunning bool
	LoginUser         string
	PublicKey         string
	PrivateKey        string
	Password          string
	AuthenticateSudo  *bool
}

// BuildTemplate resolves the image and network of spec into a zone scoped template.
// Images without default credentials get a generated key pair for spec.LoginUser.
func (a *Adapter) BuildTemplate(ctx context.Context, spec TemplateSpec) (*models.Template, error) {
	if spec.Image == "" {
		return nil, invalidTemplate("image is required")
	}
	if spec.Network == "" {
		return nil, invalidTemplate("network is required")
	}

	image, err := a.GetImage(ctx, spec.Image)
	if err != nil {
		return nil, err
	}
	if image == nil {
		return nil, invalidTemplate("image %s not found", spec.Image)
	}

	project, err := a.projects.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if a.api.Networks == nil {
		return nil, fmt.Errorf("network API is not configured")
	}
	network, err := a.api.Networks.Get(ctx, Scope{Project: project}, spec.Network)
	if err != nil {
		return nil, fmt.Errorf("failed to get network %s: %w", spec.Network, err)
	}
	if network == nil {
		return nil, invalidTemplate("network %s not found", spec.Network)
	}

	if err := PopulateDefaultCredentials(image, spec.LoginUser); err != nil {
		return nil, err
	}

	publicKey := spec.PublicKey
	if publicKey == "" && spec.PrivateKey != "" {
		if publicKey, err = PublicKeyFromPrivate(spec.PrivateKey); err != nil {
			return nil, invalidTemplate("unusable private key: %v", err)
		}
	}

	return &models.Template{
		Hardware: models.Hardware{Name: spec.MachineType},
		Location: models.Location{ID: spec.Zone, Scope: models.LocationZone},
		Image:    image,
		Options: &models.Options{
			NetworkURI:      network.SelfLink,
			NAT:             spec.NAT,
			NodeTags:        spec.Tags,
			Accounts:        spec.ServiceAccounts,
			Metadata:        spec.Metadata,
			Ports:           spec.InboundPorts,
			BlockUntilReady: spec.BlockUntilRunning,
			Overrides: models.CredentialOverrides{
				PublicKey:        publicKey,
				PrivateKey:       spec.PrivateKey,
				LoginUser:        spec.LoginUser,
				Password:         spec.Password,
				AuthenticateSudo: spec.AuthenticateSudo,
			},
		},
	}, nil
}
