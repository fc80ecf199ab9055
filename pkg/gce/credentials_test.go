package gce

import (
	"strings"
	"testing"

	"gce-instance-manager/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPair(t *testing.T) {
	privateKey, publicKey := testKeyPair(t)

	assert.Contains(t, privateKey, "BEGIN RSA PRIVATE KEY")
	assert.True(t, strings.HasPrefix(publicKey, "ssh-rsa "))

	extracted, err := PublicKeyFromPrivate(privateKey)
	require.NoError(t, err)
	assert.Equal(t, publicKey, extracted)
}

func TestPublicKeyFromPrivate_Invalid(t *testing.T) {
	_, err := PublicKeyFromPrivate("not a key")
	assert.Error(t, err)
}

func TestDeriveCredentials(t *testing.T) {
	privateKey, publicKey := testKeyPair(t)
	defaults := &models.LoginCredentials{User: "admin", PrivateKey: privateKey}
	sudo := true

	tests := []struct {
		name      string
		defaults  *models.LoginCredentials
		overrides models.CredentialOverrides
		wantCreds models.LoginCredentials
		wantKey   string
		wantErr   bool
	}{
		{
			name:      "image defaults",
			defaults:  defaults,
			wantCreds: models.LoginCredentials{User: "admin", PrivateKey: privateKey},
			wantKey:   publicKey,
		},
		{
			name:      "explicit public key wins",
			defaults:  defaults,
			overrides: models.CredentialOverrides{PublicKey: "ssh-ed25519 AAAAC3 me@host\n"},
			wantCreds: models.LoginCredentials{User: "admin", PrivateKey: privateKey},
			wantKey:   "ssh-ed25519 AAAAC3 me@host",
		},
		{
			name:     "overrides replace defaults",
			defaults: defaults,
			overrides: models.CredentialOverrides{
				PrivateKey:       "other-pem",
				LoginUser:        "deploy",
				Password:         "s3cret",
				AuthenticateSudo: &sudo,
			},
			wantCreds: models.LoginCredentials{User: "deploy", PrivateKey: "other-pem", Password: "s3cret", AuthenticateSudo: true},
			wantKey:   publicKey,
		},
		{
			name:     "explicit key without image defaults",
			defaults: nil,
			overrides: models.CredentialOverrides{
				PublicKey: "ssh-rsa AAAA me",
				LoginUser: "me",
			},
			wantCreds: models.LoginCredentials{User: "me"},
			wantKey:   "ssh-rsa AAAA me",
		},
		{
			name:     "no key anywhere",
			defaults: &models.LoginCredentials{User: "admin"},
			wantErr:  true,
		},
		{
			name:      "no user",
			defaults:  &models.LoginCredentials{PrivateKey: privateKey},
			overrides: models.CredentialOverrides{},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, key, err := deriveCredentials(tt.defaults, tt.overrides)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTemplate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreds, creds)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestPopulateDefaultCredentials(t *testing.T) {
	image := &models.Image{Name: "debian-12"}
	require.NoError(t, PopulateDefaultCredentials(image, "admin"))
	require.NotNil(t, image.DefaultCredentials)
	assert.Equal(t, "admin", image.DefaultCredentials.User)
	assert.True(t, image.DefaultCredentials.HasPrivateKey())

	existing := image.DefaultCredentials.PrivateKey
	require.NoError(t, PopulateDefaultCredentials(image, "other"))
	assert.Equal(t, existing, image.DefaultCredentials.PrivateKey)
	assert.Equal(t, "admin", image.DefaultCredentials.User)
}
