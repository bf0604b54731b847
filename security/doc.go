// Package security provides shared TLS configuration.
//
// TLSConfig builds a *tls.Config from file-based settings, so outbound
// clients can trust private certificate authorities and present client
// certificates for mTLS:
//
//	cfg := security.TLSConfig{
//	    CAFile:   "/path/to/ca.pem",
//	    CertFile: "/path/to/cert.pem",
//	    KeyFile:  "/path/to/key.pem",
//	}
//
//	tlsConfig, err := cfg.Build()
package security
