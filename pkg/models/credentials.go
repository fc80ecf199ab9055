package models

// LoginCredentials are what a caller needs to log into a node
type LoginCredentials struct {
	User             string `json:"user"`
	Password         string `json:"password,omitempty"`
	PrivateKey       string `json:"private_key,omitempty"`
	AuthenticateSudo bool   `json:"authenticate_sudo"`
}

// HasPrivateKey reports whether key material is present
func (c LoginCredentials) HasPrivateKey() bool {
	return c.PrivateKey != ""
}

// CredentialOverrides are caller-supplied values replacing image defaults.
// Empty strings and a nil AuthenticateSudo mean "not set".
type CredentialOverrides struct {
	PublicKey        string
	PrivateKey       string
	LoginUser        string
	Password         string
	AuthenticateSudo *bool
}
