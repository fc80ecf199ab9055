package gce

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"gce-instance-manager/pkg/models"

	"golang.org/x/crypto/ssh"
)

const defaultKeyBits = 2048

// GenerateKeyPair returns a PEM encoded RSA private key and its authorized_keys line.
func GenerateKeyPair(bits int) (privateKeyPEM, authorizedKey string, err error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate RSA private key: %w", err)
	}

	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	pub, err := ssh.NewPublicKey(&key.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to create SSH public key: %w", err)
	}

	return string(pem.EncodeToMemory(block)), authorizedLine(pub), nil
}

// PublicKeyFromPrivate extracts the authorized_keys line from PEM key material.
func PublicKeyFromPrivate(privateKeyPEM string) (string, error) {
	signer, err := ssh.ParsePrivateKey([]byte(privateKeyPEM))
	if err != nil {
		return "", fmt.Errorf("failed to parse private key: %w", err)
	}
	return authorizedLine(signer.PublicKey()), nil
}

func authorizedLine(pub ssh.PublicKey) string {
	return strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pub)))
}

// PopulateDefaultCredentials gives image a generated key pair for user unless it already
// carries default credentials.
func PopulateDefaultCredentials(image *models.Image, user string) error {
	if image.DefaultCredentials != nil && image.DefaultCredentials.HasPrivateKey() {
		return nil
	}
	privateKey, _, err := GenerateKeyPair(defaultKeyBits)
	if err != nil {
		return err
	}
	image.DefaultCredentials = &models.LoginCredentials{
		User:       user,
		PrivateKey: privateKey,
	}
	return nil
}

// deriveCredentials applies overrides on top of the image defaults and returns the login
// credentials together with the public key to authorize on the node. Without an explicit
// public key, the key is taken from the image default private key.
func deriveCredentials(defaults *models.LoginCredentials, o models.CredentialOverrides) (models.LoginCredentials, string, error) {
	var creds models.LoginCredentials
	if defaults != nil {
		creds = *defaults
	}

	publicKey := strings.TrimSpace(o.PublicKey)
	if publicKey == "" {
		if defaults == nil || !defaults.HasPrivateKey() {
			return models.LoginCredentials{}, "", invalidTemplate("no public key given and image has no default private key")
		}
		extracted, err := PublicKeyFromPrivate(defaults.PrivateKey)
		if err != nil {
			return models.LoginCredentials{}, "", fmt.Errorf("failed to derive public key from image credentials: %w", err)
		}
		publicKey = extracted
	}

	if o.PrivateKey != "" {
		creds.PrivateKey = o.PrivateKey
	}
	if o.LoginUser != "" {
		creds.User = o.LoginUser
	}
	if o.Password != "" {
		creds.Password = o.Password
	}
	if o.AuthenticateSudo != nil {
		creds.AuthenticateSudo = *o.AuthenticateSudo
	}
	if creds.User == "" {
		return models.LoginCredentials{}, "", invalidTemplate("no login user")
	}

	return creds, publicKey, nil
}
