package safarixcode

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gop12 "software.sslmate.com/src/go-pkcs12"
)

// newSigningIdentity returns a self-signed certificate shaped like an Apple
// development certificate, with the given organizational units.
func newSigningIdentity(t *testing.T, units ...string) (*rsa.PrivateKey, *x509.Certificate) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:         "Apple Development: Jane Appleseed (XYZ987ABCD)",
			Organization:       []string{"Jane Appleseed"},
			OrganizationalUnit: units,
		},
		NotBefore:   time.Now().Add(-time.Hour),
		NotAfter:    time.Now().Add(24 * time.Hour),
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageCodeSigning},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return key, cert
}

func TestTeamIDFromP12(t *testing.T) {
	key, cert := newSigningIdentity(t, "ABCDE12345")
	data, err := gop12.Modern.Encode(key, cert, nil, "secret")
	require.NoError(t, err)

	teamID, err := TeamIDFromP12(data, "secret")
	require.NoError(t, err)
	assert.Equal(t, "ABCDE12345", teamID)
}

func TestTeamIDFromP12_WrongPassword(t *testing.T) {
	key, cert := newSigningIdentity(t, "ABCDE12345")
	data, err := gop12.Modern.Encode(key, cert, nil, "secret")
	require.NoError(t, err)

	_, err = TeamIDFromP12(data, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode P12")
}

func TestTeamIDFromP12_PEM(t *testing.T) {
	_, cert := newSigningIdentity(t, "Engineering", "ABCDE12345")
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	data = append(pem.EncodeToMemory(&pem.Block{Type: "COMMENT", Bytes: []byte("x")}), data...)

	teamID, err := TeamIDFromP12(data, "")
	require.NoError(t, err)
	assert.Equal(t, "ABCDE12345", teamID)
}

func TestTeamIDFromP12_NoTeam(t *testing.T) {
	_, cert := newSigningIdentity(t, "Engineering")
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})

	_, err := TeamIDFromP12(data, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no team identifier")
}

func TestTeamIDFromP12_NoCertificateBlock(t *testing.T) {
	data := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("x")})

	_, err := TeamIDFromP12(data, "")
	assert.Error(t, err)
}
