package models

// LocationScope is the granularity of a location
type LocationScope string

const (
	LocationProvider LocationScope = "PROVIDER"
	LocationRegion   LocationScope = "REGION"
	LocationZone     LocationScope = "ZONE"
)

// Location identifies where a node is placed
type Location struct {
	ID    string
	Scope LocationScope
}

// Hardware names the machine type a node runs on
type Hardware struct {
	Name string
}

// TemplateOptions is the set of provider options a creation template must expose
type TemplateOptions interface {
	Network() (string, bool)
	EnableNAT() bool
	Tags() []string
	ServiceAccounts() []ServiceAccount
	UserMetadata() map[string]string
	InboundPorts() []int
	BlockUntilRunning() bool
	CredentialOverrides() CredentialOverrides
}

// Template is a fully resolved request to create a node
type Template struct {
	Hardware Hardware
	Location Location
	Image    *Image
	Options  TemplateOptions
}

// Options is the value implementation of TemplateOptions
type Options struct {
	NetworkURI      string
	NAT             bool
	NodeTags        []string
	Accounts        []ServiceAccount
	Metadata        map[string]string
	Ports           []int
	BlockUntilReady bool
	Overrides       CredentialOverrides
}

var _ TemplateOptions = (*Options)(nil)

func (o *Options) Network() (string, bool) {
	return o.NetworkURI, o.NetworkURI != ""
}

func (o *Options) EnableNAT() bool                   { return o.NAT }
func (o *Options) Tags() []string                    { return o.NodeTags }
func (o *Options) ServiceAccounts() []ServiceAccount { return o.Accounts }
func (o *Options) UserMetadata() map[string]string   { return o.Metadata }
func (o *Options) InboundPorts() []int               { return o.Ports }
func (o *Options) BlockUntilRunning() bool           { return o.BlockUntilReady }

func (o *Options) CredentialOverrides() CredentialOverrides {
	return o.Overrides
}
