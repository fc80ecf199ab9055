package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gce-instance-manager/internal/scheduler"
	"gce-instance-manager/internal/utils"
	"gce-instance-manager/pkg/config"
	"gce-instance-manager/pkg/gce"
	"gce-instance-manager/pkg/models"
	"gce-instance-manager/pkg/storage"
	"gce-instance-manager/pkg/webserver"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	group          string
	nodeName       string
	machineType    string
	zone           string
	image          string
	network        string
	duration       string
	publicKeyPath  string
	privateKeyPath string
	privateKeyOut  string
	loginUser      string
	inboundPorts   []int
	tags           []string
	noNAT          bool
	noWait         bool
	nodeID         string
	showKey        bool
	interval       time.Duration
	verbose        bool
	logLevel       string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "gce-instance-manager",
		Short: "Google Compute Engine node management tool",
		Long:  "A tool for provisioning and managing Compute Engine nodes with automatic lifecycle management",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetOutput(os.Stdout)
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// Create command
	var createCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a new node",
		Long:  "Create a new node in a group. Unset flags fall back to the DEFAULT_* environment settings.",
		RunE:  runCreate,
	}

	createCmd.Flags().StringVarP(&group, "group", "g", "", "Node group, encoded into the node name and metadata (required)")
	createCmd.Flags().StringVarP(&nodeName, "name", "n", "", "Node name (default: <group>-<random>)")
	createCmd.Flags().StringVarP(&machineType, "machine-type", "t", "", "Machine type, e.g. e2-micro")
	createCmd.Flags().StringVarP(&zone, "zone", "z", "", "Zone, e.g. us-central1-a")
	createCmd.Flags().StringVarP(&image, "image", "i", "", "Image name in your project or the shared image project")
	createCmd.Flags().StringVar(&network, "network", "", "Network name")
	createCmd.Flags().StringVarP(&duration, "duration", "d", "", "Node runtime duration (e.g., 1h, 30m, 2h30m)")
	createCmd.Flags().StringVarP(&publicKeyPath, "public-key", "k", "", "Path to an SSH public key to authorize")
	createCmd.Flags().StringVar(&privateKeyPath, "private-key", "", "Path to the SSH private key matching the authorized key")
	createCmd.Flags().StringVar(&privateKeyOut, "private-key-out", "", "Write the node's private key to this path")
	createCmd.Flags().StringVarP(&loginUser, "login-user", "u", "", "Login user")
	createCmd.Flags().IntSliceVarP(&inboundPorts, "port", "p", nil, "Inbound TCP/UDP port to open (repeatable)")
	createCmd.Flags().StringSliceVar(&tags, "tag", nil, "Network tag (repeatable)")
	createCmd.Flags().BoolVar(&noNAT, "no-nat", false, "Do not attach an external IP")
	createCmd.Flags().BoolVar(&noWait, "no-wait", false, "Return once the node is visible instead of waiting for the create operation")
	if err := createCmd.MarkFlagRequired("group"); err != nil {
		log.Fatal(err)
	}

	// Status command
	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Check node status",
		Long:  "Check the provider-reported status of a specific node",
		RunE:  runStatus,
	}

	statusCmd.Flags().StringVarP(&nodeID, "node-id", "i", "", "Node ID (zone/name) to check (required)")
	if err := statusCmd.MarkFlagRequired("node-id"); err != nil {
		log.Fatal(err)
	}

	// List command
	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "List nodes",
		Long:  "List the nodes of every zone in the project",
		RunE:  runList,
	}

	// Destroy command
	var destroyCmd = &cobra.Command{
		Use:   "destroy",
		Short: "Destroy a node (permanently deletes it)",
		Long:  "Destroy a specific node and wait for the deletion to finish. This action cannot be undone.",
		RunE:  runDestroy,
	}

	destroyCmd.Flags().StringVarP(&nodeID, "node-id", "i", "", "Node ID (zone/name) to destroy (required)")
	if err := destroyCmd.MarkFlagRequired("node-id"); err != nil {
		log.Fatal(err)
	}

	// Reboot command
	var rebootCmd = &cobra.Command{
		Use:   "reboot",
		Short: "Reboot a node",
		RunE:  runReboot,
	}

	rebootCmd.Flags().StringVarP(&nodeID, "node-id", "i", "", "Node ID (zone/name) to reboot (required)")
	if err := rebootCmd.MarkFlagRequired("node-id"); err != nil {
		log.Fatal(err)
	}

	var imagesCmd = &cobra.Command{
		Use:   "images",
		Short: "List images of your project and the shared image project",
		RunE:  runImages,
	}

	var hardwareCmd = &cobra.Command{
		Use:   "hardware",
		Short: "List machine types of every zone",
		RunE:  runHardware,
	}

	var locationsCmd = &cobra.Command{
		Use:   "locations",
		Short: "List zones",
		RunE:  runLocations,
	}

	var networksCmd = &cobra.Command{
		Use:   "networks",
		Short: "List networks",
		RunE:  runNetworks,
	}

	var disksCmd = &cobra.Command{
		Use:   "disks",
		Short: "List disks of every zone",
		RunE:  runDisks,
	}

	// Firewalls command
	var firewallsCmd = &cobra.Command{
		Use:   "firewalls",
		Short: "Manage group firewalls",
	}
	var pruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Delete the per-port firewalls created for a group",
		RunE:  runPruneFirewalls,
	}
	pruneCmd.Flags().StringVarP(&group, "group", "g", "", "Node group (required)")
	if err := pruneCmd.MarkFlagRequired("group"); err != nil {
		log.Fatal(err)
	}
	firewallsCmd.AddCommand(pruneCmd)

	// Show command
	var showCmd = &cobra.Command{
		Use:   "show",
		Short: "Show stored node data",
		Long:  "Show detailed stored data for nodes including communication details",
		RunE:  runShow,
	}

	showCmd.Flags().StringVarP(&nodeID, "node-id", "i", "", "Node ID to show (optional, shows all if not provided)")
	showCmd.Flags().BoolVar(&showKey, "key", false, "Print the stored private key")

	// Sync command
	var syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Sync stored data with GCE",
		Long:  "Sync stored node data with current GCE state (updates IPs, status, etc.)",
		RunE:  runSync,
	}

	syncCmd.Flags().StringVarP(&nodeID, "node-id", "i", "", "Node ID to sync (optional, syncs all if not provided)")

	// Extend command
	var extendCmd = &cobra.Command{
		Use:   "extend",
		Short: "Extend node TTL",
		Long:  "Extend the TTL (time-to-live) of an existing node",
		RunE:  runExtend,
	}

	extendCmd.Flags().StringVarP(&nodeID, "node-id", "i", "", "Node ID to extend (required)")
	extendCmd.Flags().StringVarP(&duration, "duration", "d", "", "Additional duration to extend (e.g., 1h, 30m, 2h30m) (required)")
	if err := extendCmd.MarkFlagRequired("node-id"); err != nil {
		log.Fatal(err)
	}
	if err := extendCmd.MarkFlagRequired("duration"); err != nil {
		log.Fatal(err)
	}

	// Service command
	var serviceCmd = &cobra.Command{
		Use:   "service",
		Short: "Run background service",
		Long:  "Run the background service that keeps node records in sync and destroys expired nodes",
		RunE:  runService,
	}

	serviceCmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Pause between reconcile passes")

	// Web command
	var webPort int
	var webCmd = &cobra.Command{
		Use:   "web",
		Short: "Start web server",
		Long:  "Start the JSON API server for managing nodes over HTTP",
		RunE:  runWeb,
	}

	webCmd.Flags().IntVarP(&webPort, "port", "p", 8080, "Port to run the web server on")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(imagesCmd)
	rootCmd.AddCommand(hardwareCmd)
	rootCmd.AddCommand(locationsCmd)
	rootCmd.AddCommand(networksCmd)
	rootCmd.AddCommand(disksCmd)
	rootCmd.AddCommand(firewallsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(extendCmd)
	rootCmd.AddCommand(serviceCmd)
	rootCmd.AddCommand(webCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal(err)
	}
}

// getLogLevel parses log level string to logrus level
func getLogLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(getLogLevel(logLevel))
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	logger.SetOutput(os.Stdout)
	return logger
}

func openStorage(cfg *config.Config) (*storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return storage.NewS3Storage(storage.S3Options{
			Endpoint:  cfg.Storage.S3.Endpoint,
			Region:    cfg.Storage.S3.Region,
			Bucket:    cfg.Storage.S3.Bucket,
			Key:       cfg.Storage.S3.Key,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
		})
	default:
		return storage.NewFileStorage(cfg.Storage.FilePath), nil
	}
}

// getProviderAndStorage loads configuration and builds the adapter and record store
func getProviderAndStorage(ctx context.Context, logger *logrus.Logger) (*gce.Adapter, *storage.Storage, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	provider, err := gce.NewProvider(ctx, cfg.GCE, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create GCE provider: %w", err)
	}
	store, err := openStorage(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return provider, store, cfg, nil
}

func valueOr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := newLogger()

	provider, store, cfg, err := getProviderAndStorage(ctx, logger)
	if err != nil {
		return err
	}
	defaults := cfg.DefaultValues

	// Validate inputs
	if err := utils.ValidateResourceName(group); err != nil {
		return fmt.Errorf("invalid group: %w", err)
	}
	if nodeName == "" {
		if nodeName, err = utils.NodeName(group); err != nil {
			return err
		}
	} else if err := utils.ValidateResourceName(nodeName); err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}

	spec := gce.TemplateSpec{
		MachineType:       valueOr(machineType, defaults.MachineType),
		Zone:              valueOr(zone, defaults.Zone),
		Image:             valueOr(image, defaults.Image),
		Network:           valueOr(network, defaults.Network),
		NAT:               !noNAT,
		Tags:              tags,
		InboundPorts:      inboundPorts,
		BlockUntilRunning: !noWait,
		LoginUser:         valueOr(loginUser, defaults.LoginUser),
	}
	if err := utils.ValidateZone(spec.Zone); err != nil {
		return fmt.Errorf("invalid zone: %w", err)
	}

	parsedDuration := defaults.Duration
	if duration != "" {
		if parsedDuration, err = utils.ParseDuration(duration); err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
	}

	if publicKeyPath != "" {
		if spec.PublicKey, err = config.ReadKeyFile(publicKeyPath); err != nil {
			return fmt.Errorf("invalid public key: %w", err)
		}
	}
	if privateKeyPath != "" {
		if spec.PrivateKey, err = config.ReadKeyFile(privateKeyPath); err != nil {
			return fmt.Errorf("invalid private key: %w", err)
		}
	}

	template, err := provider.BuildTemplate(ctx, spec)
	if err != nil {
		return fmt.Errorf("failed to build template: %w", err)
	}

	fmt.Printf("Creating node with configuration:\n")
	fmt.Printf("  Group: %s\n", group)
	fmt.Printf("  Name: %s\n", nodeName)
	fmt.Printf("  Machine Type: %s\n", spec.MachineType)
	fmt.Printf("  Zone: %s\n", spec.Zone)
	fmt.Printf("  Image: %s/%s\n", template.Image.Project, template.Image.Name)
	fmt.Printf("  Duration: %s\n", utils.FormatDuration(parsedDuration))
	fmt.Printf("\nCreating node...\n")

	created, err := provider.CreateNodeWithGroupEncodedIntoName(ctx, group, nodeName, template)
	if err != nil {
		return fmt.Errorf("failed to create node: %w", err)
	}

	record := models.NewNodeRecord(group, created.Node, created.Credentials, spec.Image, parsedDuration)
	if err := store.SaveNode(record); err != nil {
		log.Printf("Warning: failed to save node to storage: %v", err)
	}

	if privateKeyOut != "" && created.Credentials.HasPrivateKey() {
		if err := os.WriteFile(privateKeyOut, []byte(created.Credentials.PrivateKey), 0600); err != nil {
			log.Printf("Warning: failed to write private key: %v", err)
		} else {
			fmt.Printf("Private key written to %s\n", privateKeyOut)
		}
	}

	fmt.Printf("\nNode created successfully!\n")
	fmt.Printf("  Node ID: %s\n", created.NodeID)
	fmt.Printf("  Status: %s\n", created.Node.Status)
	if !record.ExpiresAt.IsZero() {
		fmt.Printf("  Expires at: %s\n", record.ExpiresAt.Format(time.RFC3339))
	}
	if cmdline := record.GetSSHCommand(privateKeyOut); cmdline != "" {
		fmt.Printf("  SSH Command: %s\n", cmdline)
	}
	fmt.Printf("\nUse 'gce-instance-manager status --node-id %s' to check status\n", created.NodeID)

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, _, _, err := getProviderAndStorage(ctx, newLogger())
	if err != nil {
		return err
	}

	node, err := provider.GetNode(ctx, nodeID)
	if err != nil {
		return fmt.Errorf("failed to get node status: %w", err)
	}
	if node == nil {
		return fmt.Errorf("node %s not found", nodeID)
	}

	fmt.Printf("Node Status:\n")
	printNode(node)
	return nil
}

func printNode(node *models.Instance) {
	fmt.Printf("  ID: %s\n", node.NodeID())
	fmt.Printf("  Status: %s\n", node.Status)
	fmt.Printf("  Machine Type: %s\n", node.MachineType)
	if g := gce.NodeGroup(node); g != "" {
		fmt.Printf("  Group: %s\n", g)
	}
	if node.PublicIP != "" {
		fmt.Printf("  Public IP: %s\n", node.PublicIP)
	}
	if node.PrivateIP != "" {
		fmt.Printf("  Private IP: %s\n", node.PrivateIP)
	}
	if len(node.Tags) > 0 {
		fmt.Printf("  Tags: %s\n", strings.Join(node.Tags, ", "))
	}
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, _, _, err := getProviderAndStorage(ctx, newLogger())
	if err != nil {
		return err
	}

	nodes, err := provider.ListNodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}

	if len(nodes) == 0 {
		fmt.Println("No nodes found.")
		return nil
	}

	fmt.Printf("Nodes:\n\n")
	for _, node := range nodes {
		printNode(node)
		fmt.Println()
	}

	return nil
}

func runDestroy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, store, _, err := getProviderAndStorage(ctx, newLogger())
	if err != nil {
		return err
	}

	fmt.Printf("Destroying node %s...\n", nodeID)
	if err := provider.DestroyNode(ctx, nodeID); err != nil {
		return fmt.Errorf("failed to destroy node: %w", err)
	}

	// Remove from storage
	_ = store.DeleteNode(nodeID)
	fmt.Printf("Node %s has been destroyed and removed from storage.\n", nodeID)
	return nil
}

func runReboot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, _, _, err := getProviderAndStorage(ctx, newLogger())
	if err != nil {
		return err
	}
	return provider.RebootNode(ctx, nodeID)
}

func runImages(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, _, _, err := getProviderAndStorage(ctx, newLogger())
	if err != nil {
		return err
	}

	images, err := provider.ListImages(ctx)
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}

	fmt.Printf("Images (%d):\n", len(images))
	for _, img := range images {
		line := fmt.Sprintf("  %s/%s", img.Project, img.Name)
		if img.Family != "" {
			line += fmt.Sprintf(" (family %s)", img.Family)
		}
		if img.IsDeprecated() {
			line += " [" + img.Deprecated.State + "]"
		}
		fmt.Println(line)
	}
	return nil
}

func runHardware(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, _, _, err := getProviderAndStorage(ctx, newLogger())
	if err != nil {
		return err
	}

	profiles, err := provider.ListHardwareProfiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list hardware profiles: %w", err)
	}

	fmt.Printf("Machine types (%d):\n", len(profiles))
	for _, mt := range profiles {
		fmt.Printf("  %s/%s: %d vCPU, %d MB\n", mt.Zone, mt.Name, mt.GuestCPUs, mt.MemoryMb)
	}
	return nil
}

func runLocations(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, _, _, err := getProviderAndStorage(ctx, newLogger())
	if err != nil {
		return err
	}

	zones, err := provider.ListLocations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list locations: %w", err)
	}

	fmt.Printf("Zones (%d):\n", len(zones))
	for _, z := range zones {
		fmt.Printf("  %s (%s)\n", z.Name, z.Status)
	}
	return nil
}

func runNetworks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, _, _, err := getProviderAndStorage(ctx, newLogger())
	if err != nil {
		return err
	}

	networks, err := provider.ListNetworks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list networks: %w", err)
	}

	fmt.Printf("Networks (%d):\n", len(networks))
	for _, n := range networks {
		fmt.Printf("  %s\n", n.Name)
	}
	return nil
}

func runDisks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, _, _, err := getProviderAndStorage(ctx, newLogger())
	if err != nil {
		return err
	}

	disks, err := provider.ListDisks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list disks: %w", err)
	}

	fmt.Printf("Disks (%d):\n", len(disks))
	for _, d := range disks {
		fmt.Printf("  %s/%s: %d GB %s\n", d.Zone, d.Name, d.SizeGb, d.Status)
	}
	return nil
}

func runPruneFirewalls(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, _, _, err := getProviderAndStorage(ctx, newLogger())
	if err != nil {
		return err
	}

	deleted, err := provider.DeleteGroupFirewalls(ctx, group)
	for _, name := range deleted {
		fmt.Printf("Deleted firewall %s\n", name)
	}
	if err != nil {
		return fmt.Errorf("failed to prune firewalls: %w", err)
	}
	if len(deleted) == 0 {
		fmt.Printf("No firewalls found for group %s.\n", group)
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	store, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	if nodeID == "" {
		// Show all nodes
		records, err := store.ListNodes()
		if err != nil {
			return fmt.Errorf("failed to load nodes: %w", err)
		}

		if len(records) == 0 {
			fmt.Println("No nodes found in storage.")
			fmt.Println("Create a node first using: gce-instance-manager create --group web")
			return nil
		}

		fmt.Printf("=== All Stored Nodes (%d total) ===\n\n", len(records))
		for i, record := range records {
			fmt.Printf("Node %d:\n", i+1)
			printDetailedNodeInfo(record)
			fmt.Println()
		}
		return nil
	}

	// Show specific node
	record, err := store.GetNode(nodeID)
	if err != nil {
		return fmt.Errorf("node %s not found: %w", nodeID, err)
	}

	fmt.Printf("=== Node Communication Details ===\n\n")
	printDetailedNodeInfo(record)
	if showKey && record.PrivateKey != "" {
		fmt.Printf("\nPrivate Key:\n%s\n", record.PrivateKey)
	}
	return nil
}

func printDetailedNodeInfo(record *models.NodeRecord) {
	fmt.Printf("Node ID: %s\n", record.ID)
	fmt.Printf("Group: %s\n", record.Group)
	fmt.Printf("Machine Type: %s\n", record.MachineType)
	fmt.Printf("Zone: %s\n", record.Zone)
	fmt.Printf("Image: %s\n", record.Image)
	fmt.Printf("Username: %s\n", record.Username)

	fmt.Printf("\nNetwork & Communication Details:\n")
	if record.PublicIP != "" {
		fmt.Printf("   Public IP: %s\n", record.PublicIP)
		fmt.Printf("   SSH Command: %s\n", record.GetSSHCommand(""))
	} else if record.NeedsIPUpdate() {
		fmt.Printf("   Public IP: Not assigned yet (node may be starting)\n")
		fmt.Printf("   Tip: Run 'gce-instance-manager sync --node-id %s'\n", record.ID)
	} else {
		fmt.Printf("   Public IP: none\n")
	}

	if record.PrivateIP != "" {
		fmt.Printf("   Private IP: %s\n", record.PrivateIP)
	}

	fmt.Printf("\nNode Status:\n")
	fmt.Printf("   Status: %s\n", record.Status)
	fmt.Printf("   Created At: %s\n", record.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("   Duration: %s\n", utils.FormatDuration(record.Duration))

	if record.ExpiresAt.IsZero() {
		fmt.Printf("   Expires At: never\n")
		return
	}
	fmt.Printf("   Expires At: %s\n", record.ExpiresAt.Format("2006-01-02 15:04:05"))

	if record.IsExpired() {
		fmt.Printf("   Status: EXPIRED\n")
		fmt.Printf("   Tip: This node will be destroyed by the background service\n")
	} else {
		timeLeft := time.Until(record.ExpiresAt)
		fmt.Printf("   Time Remaining: %s\n", utils.FormatDuration(timeLeft))

		if timeLeft < 10*time.Minute {
			fmt.Printf("   Warning: Node will expire soon!\n")
			fmt.Printf("   Extend with: gce-instance-manager extend --node-id %s --duration 1h\n", record.ID)
		}
	}
}

func runExtend(cmd *cobra.Command, args []string) error {
	parsedDuration, err := utils.ParseDuration(duration)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	store, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	record, err := store.GetNode(nodeID)
	if err != nil {
		return fmt.Errorf("failed to get node: %w", err)
	}

	oldExpiresAt := record.ExpiresAt
	record.Extend(parsedDuration)

	if err := store.UpdateNode(record); err != nil {
		return fmt.Errorf("failed to update node: %w", err)
	}

	fmt.Printf("Node TTL extended successfully!\n")
	fmt.Printf("  Node ID: %s\n", record.ID)
	if !oldExpiresAt.IsZero() {
		fmt.Printf("  Previous expiry: %s\n", oldExpiresAt.Format(time.RFC3339))
	}
	fmt.Printf("  New expiry: %s\n", record.ExpiresAt.Format(time.RFC3339))
	fmt.Printf("  Extended by: %s\n", utils.FormatDuration(parsedDuration))

	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, store, _, err := getProviderAndStorage(ctx, newLogger())
	if err != nil {
		return err
	}

	if nodeID != "" {
		if err := syncNodeData(ctx, provider, store, nodeID); err != nil {
			return fmt.Errorf("failed to sync node %s: %w", nodeID, err)
		}
		fmt.Printf("Sync completed for node %s.\n", nodeID)
		return nil
	}

	records, err := store.ListNodes()
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}
	for _, record := range records {
		if err := syncNodeData(ctx, provider, store, record.ID); err != nil {
			log.Printf("Warning: failed to sync node %s: %v", record.ID, err)
		}
	}

	fmt.Println("Sync completed for all nodes.")
	return nil
}

func syncNodeData(ctx context.Context, provider *gce.Adapter, store *storage.Storage, id string) error {
	record, err := store.GetNode(id)
	if err != nil {
		return fmt.Errorf("failed to get node from storage: %w", err)
	}

	node, err := provider.GetNode(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get node from GCE: %w", err)
	}
	if node == nil {
		fmt.Printf("Node %s no longer exists, removing it from storage\n", id)
		return store.DeleteNode(id)
	}

	record.Observe(node)
	if err := store.UpdateNode(record); err != nil {
		return fmt.Errorf("failed to update node in storage: %w", err)
	}

	fmt.Printf("Node %s synced: PublicIP=%s, Status=%s\n", id, record.PublicIP, record.Status)
	return nil
}

func runService(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, store, _, err := getProviderAndStorage(ctx, newLogger())
	if err != nil {
		return err
	}

	if err := provider.ValidateCredentials(ctx); err != nil {
		return fmt.Errorf("failed to validate GCE credentials: %w", err)
	}

	sched := scheduler.NewScheduler(provider, store)
	sched.SetInterval(interval)

	logLevelParsed := getLogLevel(logLevel)
	if verbose {
		logLevelParsed = logrus.DebugLevel
	}
	sched.SetLogLevel(logLevelParsed)

	sched.Start()

	fmt.Printf("GCE Instance Manager service started (log level: %s)\n", logLevel)
	fmt.Println("Keeping node records in sync and destroying expired nodes...")
	fmt.Println("Press Ctrl+C to stop the service.")

	<-ctx.Done()

	sched.Stop()
	fmt.Println("Service stopped.")
	return nil
}

func runWeb(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := newLogger()

	provider, store, cfg, err := getProviderAndStorage(ctx, logger)
	if err != nil {
		return err
	}

	if err := provider.ValidateCredentials(ctx); err != nil {
		return fmt.Errorf("failed to validate GCE credentials: %w", err)
	}

	webPort, _ := cmd.Flags().GetInt("port")
	server := webserver.NewServer(provider, store, cfg.DefaultValues, logger, webPort)

	fmt.Printf("GCE Instance Manager API starting on http://localhost:%d\n", webPort)
	fmt.Println("Press Ctrl+C to stop the server.")

	return server.Start(ctx)
}
