package coiote

import (
	"crypto/tls"
	"fmt"
	"net/http"
)

// Authenticator produces authenticated request options for Coiote DM.
type Authenticator interface {
	// Apply decorates an outgoing request with credentials.
	Apply(req *http.Request)
	// TLSConfig returns the client TLS configuration, or nil to use the default.
	TLSConfig() *tls.Config
}

// BasicAuth authenticates with a Coiote DM username and password.
type BasicAuth struct {
	Username string
	Password string
}

// NewBasicAuth creates a BasicAuth authenticator.
func NewBasicAuth(username, password string) *BasicAuth {
	return &BasicAuth{Username: username, Password: password}
}

func (a *BasicAuth) Apply(req *http.Request) {
	req.SetBasicAuth(a.Username, a.Password)
}

func (a *BasicAuth) TLSConfig() *tls.Config {
	return nil
}

// CertificateAuth authenticates with a client certificate (mutual TLS).
type CertificateAuth struct {
	certificate tls.Certificate
}

// NewCertificateAuth parses a PEM encoded certificate and private key.
func NewCertificateAuth(certificatePEM, privateKeyPEM []byte) (*CertificateAuth, error) {
	cert, err := tls.X509KeyPair(certificatePEM, privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}
	return &CertificateAuth{certificate: cert}, nil
}

func (a *CertificateAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Certificate")
}

func (a *CertificateAuth) TLSConfig() *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{a.certificate},
		MinVersion:   tls.VersionTLS12,
	}
}
