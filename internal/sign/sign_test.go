package sign

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
)

func generateTestSigner(t *testing.T) *OpenPGPSigner {
	t.Helper()
	armored, err := GenerateKey("Test Signer", "unit test", "test@example.com")
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(armored))
	if err != nil {
		t.Fatalf("ReadArmoredKeyRing: %v", err)
	}
	return &OpenPGPSigner{entity: keyring[0]}
}

func TestDetachedSignProducesVerifiableSignature(t *testing.T) {
	signer := generateTestSigner(t)
	data := []byte("Origin: Test\nSuite: stable\n")

	sig, err := signer.DetachedSign(data)
	if err != nil {
		t.Fatalf("DetachedSign: %v", err)
	}
	if !strings.Contains(string(sig), "BEGIN PGP SIGNATURE") {
		t.Errorf("expected armored signature block, got: %s", sig)
	}

	keyring := openpgp.EntityList{signer.entity}
	if _, err := openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(data), bytes.NewReader(sig), nil); err != nil {
		t.Errorf("signature failed verification: %v", err)
	}
}

func TestClearSignProducesCleartextBlock(t *testing.T) {
	signer := generateTestSigner(t)
	data := []byte("Origin: Test\nSuite: stable\n")

	out, err := signer.ClearSign(data)
	if err != nil {
		t.Fatalf("ClearSign: %v", err)
	}
	if !strings.Contains(string(out), "BEGIN PGP SIGNED MESSAGE") {
		t.Errorf("expected cleartext signature block, got: %s", out)
	}
	if !strings.Contains(string(out), "Origin: Test") {
		t.Errorf("expected original content preserved in cleartext block")
	}
}

func TestLoadSignerRejectsGpgScheme(t *testing.T) {
	if _, err := LoadSigner("gpg://some-key-id"); err == nil {
		t.Errorf("expected an error for a gpg:// certificate reference")
	}
}
