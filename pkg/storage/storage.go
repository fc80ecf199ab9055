package storage

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gce-instance-manager/pkg/models"
)

// backend reads and writes the serialized record set. read returns nil without an error
// when nothing has been stored yet.
type backend interface {
	read() ([]byte, error)
	write(data []byte) error
	location() string
}

// Storage keeps node records as one JSON document in a backend
type Storage struct {
	backend backend
	mutex   sync.RWMutex
}

// StorageRecord represents the structure stored in the backend
type StorageRecord struct {
	Nodes     map[string]*models.NodeRecord `json:"nodes"`
	UpdatedAt time.Time                     `json:"updated_at"`
}

// Location describes where records are kept
func (s *Storage) Location() string {
	return s.backend.location()
}

// SaveNode saves a node record to storage
func (s *Storage) SaveNode(record *models.NodeRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := s.loadData()
	if err != nil {
		return err
	}

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	data.Nodes[record.ID] = record
	data.UpdatedAt = now

	return s.saveData(data)
}

// GetNode retrieves a node record from storage
func (s *Storage) GetNode(id string) (*models.NodeRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	data, err := s.loadData()
	if err != nil {
		return nil, err
	}

	record, exists := data.Nodes[id]
	if !exists {
		return nil, fmt.Errorf("node %s not found", id)
	}

	return record, nil
}

// ListNodes returns all stored node records
func (s *Storage) ListNodes() ([]*models.NodeRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	data, err := s.loadData()
	if err != nil {
		return nil, err
	}

	records := make([]*models.NodeRecord, 0, len(data.Nodes))
	for _, record := range data.Nodes {
		records = append(records, record)
	}

	return records, nil
}

// UpdateNode replaces an existing node record
func (s *Storage) UpdateNode(record *models.NodeRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := s.loadData()
	if err != nil {
		return err
	}

	existing, exists := data.Nodes[record.ID]
	if !exists {
		return fmt.Errorf("node %s not found", record.ID)
	}

	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = time.Now()
	data.Nodes[record.ID] = record
	data.UpdatedAt = time.Now()

	return s.saveData(data)
}

// DeleteNode removes a node record from storage
func (s *Storage) DeleteNode(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := s.loadData()
	if err != nil {
		return err
	}

	delete(data.Nodes, id)
	data.UpdatedAt = time.Now()

	return s.saveData(data)
}

// GetExpiredNodes returns records that have outlived their duration
func (s *Storage) GetExpiredNodes() ([]*models.NodeRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	data, err := s.loadData()
	if err != nil {
		return nil, err
	}

	var expired []*models.NodeRecord
	for _, record := range data.Nodes {
		if record.IsExpired() {
			expired = append(expired, record)
		}
	}

	return expired, nil
}

func (s *Storage) loadData() (*StorageRecord, error) {
	raw, err := s.backend.read()
	if err != nil {
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}

	record := &StorageRecord{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal storage data: %w", err)
		}
	}
	if record.Nodes == nil {
		record.Nodes = make(map[string]*models.NodeRecord)
	}

	return record, nil
}

func (s *Storage) saveData(data *StorageRecord) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage data: %w", err)
	}

	if err := s.backend.write(jsonData); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}

	return nil
}
