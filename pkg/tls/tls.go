package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
)

// ServiceCertFiles returns the certificate and key paths a service presents
// on its gRPC listener, laid out as <dir>/<service>.crt and <dir>/<service>.key.
func ServiceCertFiles(dir, service string) (certFile, keyFile string) {
	return filepath.Join(dir, service+".crt"), filepath.Join(dir, service+".key")
}

// ServerConfig builds the listener side. With requireClientCert set and a CA
// file given, peers must present a certificate signed by that CA.
func ServerConfig(certFile, keyFile, caFile string, requireClientCert bool) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load server key pair %s: %w", certFile, err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if !requireClientCert || caFile == "" {
		return cfg, nil
	}

	pool, err := loadCAPool(caFile)
	if err != nil {
		return nil, err
	}
	cfg.ClientCAs = pool
	cfg.ClientAuth = tls.RequireAndVerifyClientCert
	return cfg, nil
}

// ClientConfig trusts caFile and, when a key pair is given, presents it for mTLS.
func ClientConfig(certFile, keyFile, caFile string) (*tls.Config, error) {
	pool, err := loadCAPool(caFile)
	if err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}
	if certFile == "" || keyFile == "" {
		return cfg, nil
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load client key pair %s: %w", certFile, err)
	}
	cfg.Certificates = []tls.Certificate{cert}
	return cfg, nil
}

func loadCAPool(caFile string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read CA bundle %s: %w", caFile, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in CA bundle %s", caFile)
	}
	return pool, nil
}
