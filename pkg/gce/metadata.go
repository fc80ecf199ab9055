package gce

import (
	"maps"
	"strings"

	"gce-instance-manager/pkg/models"
)

const (
	metadataSSHKeys = "ssh-keys"
	metadataGroup   = "node-group"
)

// metadataFromOptions merges user metadata with the node group and the login key.
// A user supplied ssh-keys entry is kept and the login key appended to it.
func metadataFromOptions(group, user, publicKey string, options models.TemplateOptions) map[string]string {
	metadata := make(map[string]string)
	maps.Copy(metadata, options.UserMetadata())

	if group != "" {
		metadata[metadataGroup] = group
	}

	entry := user + ":" + publicKey
	if existing := strings.TrimSpace(metadata[metadataSSHKeys]); existing != "" {
		metadata[metadataSSHKeys] = existing + "\n" + entry
	} else {
		metadata[metadataSSHKeys] = entry
	}
	return metadata
}

// NodeGroup returns the group node was created in, or "" for nodes created elsewhere.
func NodeGroup(node *models.Instance) string {
	return node.Metadata[metadataGroup]
}
