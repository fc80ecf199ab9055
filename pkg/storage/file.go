package storage

import (
	"os"
	"path/filepath"
)

type fileBackend struct {
	path string
}

// NewFileStorage creates a storage backed by a local JSON file.
// An empty path selects ~/.gce-instance-manager/nodes.json.
func NewFileStorage(filePath string) *Storage {
	if filePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			filePath = filepath.Join(os.TempDir(), "gce-instance-manager.json")
		} else {
			filePath = filepath.Join(homeDir, ".gce-instance-manager", "nodes.json")
		}
	}

	// Records hold private keys, keep them private
	_ = os.MkdirAll(filepath.Dir(filePath), 0700)

	return &Storage{backend: &fileBackend{path: filePath}}
}

func (b *fileBackend) read() ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

func (b *fileBackend) write(data []byte) error {
	return os.WriteFile(b.path, data, 0600)
}

func (b *fileBackend) location() string {
	return b.path
}
