package webserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"gce-instance-manager/internal/utils"
	"gce-instance-manager/pkg/cloud"
	"gce-instance-manager/pkg/config"
	"gce-instance-manager/pkg/gce"
	"gce-instance-manager/pkg/models"
	"gce-instance-manager/pkg/storage"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Provider is the compute surface served over HTTP
type Provider interface {
	cloud.ComputeServiceAdapter
	BuildTemplate(ctx context.Context, spec gce.TemplateSpec) (*models.Template, error)
	ListNetworks(ctx context.Context) ([]*models.Network, error)
	ListDisks(ctx context.Context) ([]*models.Disk, error)
}

// Server holds the web server state
type Server struct {
	provider Provider
	storage  *storage.Storage
	defaults config.DefaultValues
	logger   *logrus.Logger
	port     int
}

// APIResponse represents the API response format
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreateNodeRequest represents the request to create a node.
// Empty fields fall back to the configured defaults.
type CreateNodeRequest struct {
	Group             string            `json:"group"`
	Name              string            `json:"name"`
	MachineType       string            `json:"machine_type"`
	Zone              string            `json:"zone"`
	Image             string            `json:"image"`
	Network           string            `json:"network"`
	NAT               *bool             `json:"nat"`
	Tags              []string          `json:"tags"`
	InboundPorts      []int             `json:"inbound_ports"`
	Metadata          map[string]string `json:"metadata"`
	Duration          string            `json:"duration"`
	LoginUser         string            `json:"login_user"`
	PublicKey         string            `json:"public_key"`
	BlockUntilRunning *bool             `json:"block_until_running"`
}

// ExtendNodeRequest represents the request to extend a node
type ExtendNodeRequest struct {
	Duration string `json:"duration"`
}

// NewServer creates a new web server instance
func NewServer(provider Provider, store *storage.Storage, defaults config.DefaultValues, logger *logrus.Logger, port int) *Server {
	return &Server{
		provider: provider,
		storage:  store,
		defaults: defaults,
		logger:   logger,
		port:     port,
	}
}

// Handler builds the router with every API route registered
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/api/health", s.handleHealth)
	e.GET("/api/nodes", s.handleListNodes)
	e.POST("/api/nodes", s.handleCreateNode)
	e.GET("/api/nodes/get", s.handleGetNode)
	e.POST("/api/nodes/destroy", s.handleDestroyNode)
	e.POST("/api/nodes/extend", s.handleExtendNode)
	e.POST("/api/nodes/reboot", s.lifecycle("reboot", s.provider.RebootNode))
	e.POST("/api/nodes/resume", s.lifecycle("resume", s.provider.ResumeNode))
	e.POST("/api/nodes/suspend", s.lifecycle("suspend", s.provider.SuspendNode))
	e.GET("/api/images", s.handleListImages)
	e.GET("/api/images/get", s.handleGetImage)
	e.GET("/api/hardware", s.handleListHardware)
	e.GET("/api/locations", s.handleListLocations)
	e.GET("/api/networks", s.handleListNetworks)
	e.GET("/api/disks", s.handleListDisks)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

// Start serves the API until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	srv := http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Minute, // blocking creates wait on the provider operation
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Error("Web server shutdown failed")
		}
	}()

	s.logger.Infof("Starting web server on http://localhost%s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handlers

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Service is healthy",
	})
}

func (s *Server) handleListNodes(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		nodes []*models.Instance
		err   error
	)
	if ids := c.QueryParams()["id"]; len(ids) > 0 {
		nodes, err = s.provider.ListNodesByIDs(ctx, ids)
	} else {
		nodes, err = s.provider.ListNodes(ctx)
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to list nodes")
		return s.fail(c, "Failed to list nodes", err)
	}

	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].NodeID() < nodes[j].NodeID()
	})

	s.logger.WithField("count", len(nodes)).Debug("Listed nodes")
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: fmt.Sprintf("Retrieved %d nodes", len(nodes)),
		Data:    nodes,
	})
}

func (s *Server) handleCreateNode(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateNodeRequest
	if err := c.Bind(&req); err != nil {
		s.logger.WithError(err).Error("Failed to decode create request")
		return s.badRequest(c, fmt.Sprintf("Invalid request: %v", err))
	}
	s.applyDefaults(&req)

	if err := utils.ValidateResourceName(req.Group); err != nil {
		return s.badRequest(c, fmt.Sprintf("Invalid group: %v", err))
	}
	if err := utils.ValidateZone(req.Zone); err != nil {
		return s.badRequest(c, err.Error())
	}
	if req.Name == "" {
		name, err := utils.NodeName(req.Group)
		if err != nil {
			return s.badRequest(c, err.Error())
		}
		req.Name = name
	} else if err := utils.ValidateResourceName(req.Name); err != nil {
		return s.badRequest(c, fmt.Sprintf("Invalid name: %v", err))
	}

	duration, err := utils.ParseDuration(req.Duration)
	if err != nil {
		s.logger.WithError(err).Warn("Invalid duration")
		return s.badRequest(c, fmt.Sprintf("Invalid duration: %v", err))
	}

	template, err := s.provider.BuildTemplate(ctx, gce.TemplateSpec{
		MachineType:       req.MachineType,
		Zone:              req.Zone,
		Image:             req.Image,
		Network:           req.Network,
		NAT:               *req.NAT,
		Tags:              req.Tags,
		Metadata:          req.Metadata,
		InboundPorts:      req.InboundPorts,
		BlockUntilRunning: *req.BlockUntilRunning,
		LoginUser:         req.LoginUser,
		PublicKey:         req.PublicKey,
	})
	if err != nil {
		s.logger.WithError(err).Warn("Failed to build template")
		return s.fail(c, "Failed to build template", err)
	}

	s.logger.WithFields(logrus.Fields{
		"group":        req.Group,
		"name":         req.Name,
		"machine_type": req.MachineType,
		"zone":         req.Zone,
		"duration":     duration.String(),
	}).Info("Creating node")

	created, err := s.provider.CreateNodeWithGroupEncodedIntoName(ctx, req.Group, req.Name, template)
	if err != nil {
		s.logger.WithError(err).Error("Failed to create node")
		return s.fail(c, "Failed to create node", err)
	}

	record := models.NewNodeRecord(req.Group, created.Node, created.Credentials, req.Image, duration)
	if err := s.storage.SaveNode(record); err != nil {
		s.logger.WithError(err).Error("Failed to save node")
		return s.fail(c, "Failed to save node", err)
	}

	s.logger.WithField("node_id", record.ID).Info("Node created successfully")
	return c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: "Node created successfully",
		Data:    record,
	})
}

func (s *Server) applyDefaults(req *CreateNodeRequest) {
	if req.MachineType == "" {
		req.MachineType = s.defaults.MachineType
	}
	if req.Zone == "" {
		req.Zone = s.defaults.Zone
	}
	if req.Image == "" {
		req.Image = s.defaults.Image
	}
	if req.Network == "" {
		req.Network = s.defaults.Network
	}
	if req.LoginUser == "" {
		req.LoginUser = s.defaults.LoginUser
	}
	if req.Duration == "" {
		req.Duration = s.defaults.Duration.String()
	}
	if req.NAT == nil {
		nat := true
		req.NAT = &nat
	}
	if req.BlockUntilRunning == nil {
		block := true
		req.BlockUntilRunning = &block
	}
}

func (s *Server) handleGetNode(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return s.badRequest(c, "id query parameter is required")
	}

	node, err := s.provider.GetNode(c.Request().Context(), id)
	if err != nil {
		s.logger.WithError(err).WithField("node_id", id).Warn("Failed to get node")
		return s.fail(c, "Failed to get node", err)
	}
	if node == nil {
		return c.JSON(http.StatusNotFound, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("Node %s not found", id),
		})
	}

	data := map[string]interface{}{
		"node": node,
	}

	// Sync the local record with what the provider reports
	if record, err := s.storage.GetNode(id); err == nil {
		if node.Status != record.Status || node.PublicIP != record.PublicIP || node.PrivateIP != record.PrivateIP {
			record.Observe(node)
			if err := s.storage.UpdateNode(record); err != nil {
				s.logger.WithError(err).Warn("Failed to sync node record")
			}
		}
		data["record"] = record
		data["is_expired"] = record.IsExpired()
		if !record.ExpiresAt.IsZero() {
			data["time_remaining"] = time.Until(record.ExpiresAt).Seconds()
		}
	}

	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Node retrieved",
		Data:    data,
	})
}

func (s *Server) handleDestroyNode(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return s.badRequest(c, "id query parameter is required")
	}

	if err := s.provider.DestroyNode(c.Request().Context(), id); err != nil {
		s.logger.WithError(err).WithField("node_id", id).Error("Failed to destroy node")
		return s.fail(c, "Failed to destroy node", err)
	}
	if err := s.storage.DeleteNode(id); err != nil {
		s.logger.WithError(err).WithField("node_id", id).Debug("No local record for destroyed node")
	}

	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Node destroyed successfully",
	})
}

func (s *Server) handleExtendNode(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return s.badRequest(c, "id query parameter is required")
	}

	var req ExtendNodeRequest
	if err := c.Bind(&req); err != nil {
		return s.badRequest(c, fmt.Sprintf("Invalid request: %v", err))
	}

	duration, err := utils.ParseDuration(req.Duration)
	if err != nil {
		return s.badRequest(c, fmt.Sprintf("Invalid duration: %v", err))
	}

	record, err := s.storage.GetNode(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("Node not found: %v", err),
		})
	}

	record.Extend(duration)
	if err := s.storage.UpdateNode(record); err != nil {
		return c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("Failed to extend node: %v", err),
		})
	}

	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Node TTL extended successfully",
		Data:    record,
	})
}

func (s *Server) lifecycle(action string, fn func(context.Context, string) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.QueryParam("id")
		if id == "" {
			return s.badRequest(c, "id query parameter is required")
		}
		if err := fn(c.Request().Context(), id); err != nil {
			return s.fail(c, fmt.Sprintf("Failed to %s node", action), err)
		}
		return c.JSON(http.StatusOK, APIResponse{
			Success: true,
			Message: fmt.Sprintf("Node %s requested", action),
		})
	}
}

func (s *Server) handleListImages(c echo.Context) error {
	images, err := s.provider.ListImages(c.Request().Context())
	if err != nil {
		return s.fail(c, "Failed to list images", err)
	}
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: fmt.Sprintf("Retrieved %d images", len(images)),
		Data:    images,
	})
}

func (s *Server) handleGetImage(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return s.badRequest(c, "id query parameter is required")
	}

	image, err := s.provider.GetImage(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, "Failed to get image", err)
	}
	if image == nil {
		return c.JSON(http.StatusNotFound, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("Image %s not found", id),
		})
	}
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Image retrieved",
		Data:    image,
	})
}

func (s *Server) handleListHardware(c echo.Context) error {
	profiles, err := s.provider.ListHardwareProfiles(c.Request().Context())
	if err != nil {
		return s.fail(c, "Failed to list hardware profiles", err)
	}
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: fmt.Sprintf("Retrieved %d hardware profiles", len(profiles)),
		Data:    profiles,
	})
}

func (s *Server) handleListLocations(c echo.Context) error {
	zones, err := s.provider.ListLocations(c.Request().Context())
	if err != nil {
		return s.fail(c, "Failed to list locations", err)
	}
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: fmt.Sprintf("Retrieved %d locations", len(zones)),
		Data:    zones,
	})
}

func (s *Server) handleListNetworks(c echo.Context) error {
	networks, err := s.provider.ListNetworks(c.Request().Context())
	if err != nil {
		return s.fail(c, "Failed to list networks", err)
	}
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: fmt.Sprintf("Retrieved %d networks", len(networks)),
		Data:    networks,
	})
}

func (s *Server) handleListDisks(c echo.Context) error {
	disks, err := s.provider.ListDisks(c.Request().Context())
	if err != nil {
		return s.fail(c, "Failed to list disks", err)
	}
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: fmt.Sprintf("Retrieved %d disks", len(disks)),
		Data:    disks,
	})
}

// Helper methods

func (s *Server) badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, APIResponse{
		Success: false,
		Error:   msg,
	})
}

func (s *Server) fail(c echo.Context, msg string, err error) error {
	return c.JSON(statusFor(err), APIResponse{
		Success: false,
		Message: msg,
		Error:   err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cloud.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, gce.ErrInvalidTemplate), errors.Is(err, gce.ErrInvalidNodeID):
		return http.StatusBadRequest
	case gce.IsTimeout(err):
		return http.StatusGatewayTimeout
	case gce.IsOperationFailure(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
