package gce

import (
	"context"

	"gce-instance-manager/pkg/config"

	"github.com/sirupsen/logrus"
)

// NewProvider builds an adapter backed by the compute API from configuration.
func NewProvider(ctx context.Context, cfg config.GCEConfig, logger logrus.FieldLogger) (*Adapter, error) {
	svc, err := NewComputeService(ctx, ClientOptions{
		CredentialsFile: cfg.CredentialsFile,
		AccessToken:     cfg.AccessToken,
		Endpoint:        cfg.Endpoint,
		UserAgent:       "gce-instance-manager",
	})
	if err != nil {
		return nil, err
	}

	api := NewAPI(svc)
	return NewAdapter(api, NewProjectResolver(cfg.Identity, api.Projects, nil), Settings{
		ImageProject:      cfg.ImageProject,
		OperationInterval: cfg.OperationInterval,
		OperationTimeout:  cfg.OperationTimeout,
	}, logger)
}
