package grpc

import (
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"go-commerce/pkg/config"
	"go-commerce/pkg/logger"
	"go-commerce/pkg/tls"
)

// Dial opens a client connection to addr with the shared client interceptor,
// keepalive pings and, when GRPC_MTLS_ENABLED is set, a client certificate.
func Dial(cfg *config.Config, addr string) (*grpc.ClientConn, error) {
	creds := insecure.NewCredentials()
	if cfg.GRPCMTLSEnabled {
		tlsConfig, err := tls.ClientConfig(cfg.GRPCClientCert, cfg.GRPCClientKey, cfg.TLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("client TLS for %s: %w", addr, err)
		}
		creds = credentials.NewTLS(tlsConfig)
	}

	conn, err := grpc.Dial(addr,
		grpc.WithTransportCredentials(creds),
		grpc.WithUnaryInterceptor(UnaryClientInterceptor(cfg.GRPCTimeout)),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}

// NewServer builds a gRPC server for service with the shared interceptor.
// Under GRPC_MTLS_ENABLED it serves <CERT_DIR>/<service>.crt and requires
// client certificates signed by TLS_CA_FILE.
func NewServer(cfg *config.Config, service string, log *logger.Logger) (*grpc.Server, error) {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(UnaryServerInterceptor(log, cfg.GRPCTimeout)),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             15 * time.Second,
			PermitWithoutStream: true,
		}),
	}

	if cfg.GRPCMTLSEnabled {
		certFile, keyFile := tls.ServiceCertFiles(cfg.CertDir, service)
		tlsConfig, err := tls.ServerConfig(certFile, keyFile, cfg.TLSCAFile, true)
		if err != nil {
			return nil, fmt.Errorf("server TLS for %s: %w", service, err)
		}
		opts = append(opts, grpc.Creds(credentials.NewTLS(tlsConfig)))
		log.Info("gRPC mTLS enabled")
	}

	return grpc.NewServer(opts...), nil
}
