package security

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrPinMismatch is returned from the TLS handshake when no presented certificate matches a pin.
var ErrPinMismatch = errors.New("security/tls: server certificate does not match any pin")

// SPKIFingerprint returns the base64 SHA-256 digest of the certificate's SubjectPublicKeyInfo.
func SPKIFingerprint(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// PinSet is a set of accepted SPKI fingerprints.
type PinSet map[string]struct{}

// NewPinSet validates and indexes base64 SHA-256 fingerprints.
func NewPinSet(pins []string) (PinSet, error) {
	set := make(PinSet, len(pins))
	for _, p := range pins {
		raw, err := base64.StdEncoding.DecodeString(p)
		if err != nil {
			return nil, fmt.Errorf("security/tls: pin %q is not base64: %w", p, err)
		}
		if len(raw) != sha256.Size {
			return nil, fmt.Errorf("security/tls: pin %q is not a SHA-256 digest", p)
		}
		set[p] = struct{}{}
	}
	return set, nil
}

// Matches reports whether any of the certificates is pinned.
func (s PinSet) Matches(certs []*x509.Certificate) bool {
	for _, cert := range certs {
		if _, ok := s[SPKIFingerprint(cert)]; ok {
			return true
		}
	}
	return false
}

// VerifyConnection is a tls.Config hook. It checks the verified chains when
// chain verification ran, and the raw peer certificates otherwise.
func (s PinSet) VerifyConnection(cs tls.ConnectionState) error {
	for _, chain := range cs.VerifiedChains {
		if s.Matches(chain) {
			return nil
		}
	}
	if len(cs.VerifiedChains) == 0 && s.Matches(cs.PeerCertificates) {
		return nil
	}
	return ErrPinMismatch
}
