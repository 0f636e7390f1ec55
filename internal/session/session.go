// Package session manages the device identity the Tricount API expects:
// an app installation id, an RSA key pair registered during the handshake,
// and the header set sent with every request.
package session

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// DeviceDescription is the device name reported during the handshake.
const DeviceDescription = "Android"

const (
	// userAgent imitates the official Android client; other agents are
	// rejected by the service.
	userAgent = "com.bunq.tricount.android:RELEASE:7.0.7:3174:ANDROID:13:C"

	// clientRequestID is sent verbatim on every request. The official
	// client does not rotate it either, which keeps the header set for a
	// given installation id fully deterministic.
	clientRequestID = "049bfcdf-6ae4-4cee-af7b-45da31ea85d0"

	rsaKeyBits = 2048
)

// Provider holds one device identity. A Provider is immutable after New
// and safe for concurrent use.
type Provider struct {
	installationID string
	key            *rsa.PrivateKey
	publicKeyPEM   string
}

// New builds a device identity. appID becomes the app installation id; when
// empty, a fresh UUID is generated, which registers a new device on every
// run. A fresh RSA key pair is generated either way, since the service only
// sees the public key during the handshake.
func New(appID string, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	id := appID
	if id == "" {
		id = uuid.NewString()
		logger.Warn("no app id supplied, generated a fresh installation id; supply a stable app id to reuse the device identity across runs",
			"installation_id", id)
	}

	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key pair: %w", err)
	}

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("encode public key: %w", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	if pemBytes == nil {
		return nil, fmt.Errorf("encode public key: pem encoding failed")
	}

	return &Provider{
		installationID: id,
		key:            key,
		publicKeyPEM:   string(pemBytes),
	}, nil
}

// InstallationID returns the app installation id.
func (p *Provider) InstallationID() string {
	return p.installationID
}

// PublicKeyPEM returns the installation's public key as a PKIX PEM block,
// the form the handshake body expects.
func (p *Provider) PublicKeyPEM() string {
	return p.publicKeyPEM
}

// Headers returns the header set for one request. token is the session
// token from the handshake; pass the empty string for the handshake request
// itself, which is the only unauthenticated call.
//
// For a fixed installation id the returned headers are identical across
// providers and calls.
func (p *Provider) Headers(token string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("app-id", p.installationID)
	h.Set("X-Bunq-Client-Request-Id", clientRequestID)
	if token != "" {
		h.Set("X-Bunq-Client-Authentication", token)
	}
	return h
}
