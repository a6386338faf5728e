package safarixcode

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	gop12 "software.sslmate.com/src/go-pkcs12"
)

// TeamIDFromP12 returns the development team of a signing certificate. The
// data is either a PKCS#12 identity or a PEM-encoded certificate.
func TeamIDFromP12(data []byte, password string) (string, error) {
	var cert *x509.Certificate
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN")) {
		c, err := loadPEMCertificate(data)
		if err != nil {
			return "", err
		}
		cert = c
	} else {
		_, c, _, err := gop12.DecodeChain(data, password)
		if err != nil {
			return "", fmt.Errorf("failed to decode P12: %w", err)
		}
		cert = c
	}

	teamID := extractTeamID(cert)
	if teamID == "" {
		return "", fmt.Errorf("certificate %q carries no team identifier", cert.Subject.CommonName)
	}
	return teamID, nil
}

// loadPEMCertificate returns the first CERTIFICATE block of pemData.
func loadPEMCertificate(pemData []byte) (*x509.Certificate, error) {
	for {
		block, rest := pem.Decode(pemData)
		if block == nil {
			return nil, fmt.Errorf("no CERTIFICATE block in PEM data")
		}
		if block.Type == "CERTIFICATE" {
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse certificate: %w", err)
			}
			return cert, nil
		}
		pemData = rest
	}
}

func extractTeamID(cert *x509.Certificate) string {
	// Team ID is typically in the Organizational Unit field
	for _, ou := range cert.Subject.OrganizationalUnit {
		if len(ou) == 10 { // Apple Team IDs are 10 characters
			return ou
		}
	}
	return ""
}
