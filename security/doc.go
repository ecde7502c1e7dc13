// Package security provides the TLS settings of the transport, including
// certificate pinning.
//
// # TLS Configuration
//
//	cfg := security.TLSConfig{
//	    CAFile: "/path/to/ca.pem",
//	    Pins:   []string{"47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU="},
//	}
//
//	tlsConfig, err := cfg.Build()
//
// Pins are base64 SHA-256 digests of a certificate's SubjectPublicKeyInfo,
// as produced by SPKIFingerprint.
package security
