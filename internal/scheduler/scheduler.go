package scheduler

import (
	"context"
	"time"

	"gce-instance-manager/pkg/models"
	"gce-instance-manager/pkg/storage"

	"github.com/sirupsen/logrus"
)

// NodeProvider is the part of the compute adapter the scheduler needs
type NodeProvider interface {
	GetNode(ctx context.Context, id string) (*models.Instance, error)
	DestroyNode(ctx context.Context, id string) error
}

// Scheduler reconciles stored node records with the provider and destroys expired nodes
type Scheduler struct {
	provider NodeProvider
	storage  *storage.Storage
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *logrus.Logger
}

// NewScheduler creates a new scheduler instance
func NewScheduler(provider NodeProvider, store *storage.Storage) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	return &Scheduler{
		provider: provider,
		storage:  store,
		interval: 30 * time.Second,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}
}

// SetLogLevel sets the logging level
func (s *Scheduler) SetLogLevel(level logrus.Level) {
	s.logger.SetLevel(level)
}

// SetInterval changes the pause between two passes. Call before Start.
func (s *Scheduler) SetInterval(interval time.Duration) {
	if interval > 0 {
		s.interval = interval
	}
}

// Start begins the background scheduler
func (s *Scheduler) Start() {
	s.logger.WithFields(logrus.Fields{
		"interval": s.interval,
		"storage":  s.storage.Location(),
	}).Info("Starting node scheduler")
	go s.run()
}

// Stop stops the background scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping node scheduler")
	s.cancel()
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.processNodes()
		}
	}
}

func (s *Scheduler) processNodes() {
	records, err := s.storage.ListNodes()
	if err != nil {
		s.logger.WithError(err).Error("Failed to get nodes from storage")
		return
	}

	s.logger.WithField("node_count", len(records)).Debug("Loaded nodes from storage")

	for _, record := range records {
		if s.ctx.Err() != nil {
			return
		}
		s.processNode(record)
	}
}

// processNode refreshes one record and destroys the node once it has expired
func (s *Scheduler) processNode(record *models.NodeRecord) {
	logger := s.logger.WithFields(logrus.Fields{
		"node_id":    record.ID,
		"status":     record.Status,
		"expires_at": record.ExpiresAt,
	})

	node, err := s.provider.GetNode(s.ctx, record.ID)
	if err != nil {
		logger.WithError(err).Warn("Failed to get node from provider")
		return
	}

	if node == nil {
		logger.Info("Node no longer exists, removing record")
		if err := s.storage.DeleteNode(record.ID); err != nil {
			logger.WithError(err).Error("Failed to delete node record")
		}
		return
	}

	if node.Status != record.Status || node.PublicIP != record.PublicIP || node.PrivateIP != record.PrivateIP {
		logger.WithFields(logrus.Fields{
			"old_status": record.Status,
			"new_status": node.Status,
		}).Info("Node state changed, updating local storage")

		record.Observe(node)
		if err := s.storage.UpdateNode(record); err != nil {
			logger.WithError(err).Error("Failed to update node in storage")
		}
	}

	if record.IsExpired() {
		s.handleExpiredNode(record, logger)
	}
}

func (s *Scheduler) handleExpiredNode(record *models.NodeRecord, logger *logrus.Entry) {
	overdue := time.Since(record.ExpiresAt)
	logger.WithField("overdue_duration", overdue).Warn("Node has expired, destroying")

	if err := s.provider.DestroyNode(s.ctx, record.ID); err != nil {
		logger.WithError(err).Error("Failed to destroy expired node")
		return
	}

	if err := s.storage.DeleteNode(record.ID); err != nil {
		logger.WithError(err).Error("Failed to delete node record")
		return
	}

	logger.WithFields(logrus.Fields{
		"overdue_duration": overdue,
		"action":           "destroyed",
	}).Info("Destroyed expired node")
}

// RunOnce executes the scheduler logic once
func (s *Scheduler) RunOnce() {
	s.logger.Info("Running scheduler once")
	s.processNodes()
}
