// Package sign abstracts the OpenPGP signing backend the Index
// Emitter calls into for Release.gpg and InRelease (spec.md §4.6),
// generalized from the teacher's verify-only OpenPGP usage
// (internal/debutils/verify.go) into a sign+verify abstraction.
package sign

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"github.com/aosc-dev/p-vector/internal/errs"
	"github.com/aosc-dev/p-vector/internal/utils/security"
)

// Signer is the signing backend spec.md §6 calls out as abstracted:
// "sign(bytes) -> bytes" for detached and cleartext signatures over
// the raw bytes of Release.
type Signer interface {
	// DetachedSign returns an ASCII-armored detached signature over
	// data, the contents of Release.gpg.
	DetachedSign(data []byte) ([]byte, error)
	// ClearSign returns the cleartext-signed variant of data, the
	// contents of InRelease.
	ClearSign(data []byte) ([]byte, error)
}

// OpenPGPSigner signs with a single loaded private key.
type OpenPGPSigner struct {
	entity *openpgp.Entity
}

// LoadSigner loads the private key at certificate (an armored secret
// key file path; a "gpg://" prefix referring to a local agent/keyring
// entry is not supported and returns an error naming the scheme) per
// spec.md §6's Certificate config key.
func LoadSigner(certificate string) (*OpenPGPSigner, error) {
	if strings.HasPrefix(certificate, "gpg://") {
		return nil, fmt.Errorf("%w: gpg:// keyring references are not supported, use an armored key file path", errs.ErrSigning)
	}

	data, err := security.SafeReadFile(certificate, security.ResolveSymlinks)
	if err != nil {
		return nil, fmt.Errorf("%w: reading certificate %s: %v", errs.ErrSigning, certificate, err)
	}

	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing certificate %s: %v", errs.ErrSigning, certificate, err)
	}
	if len(keyring) == 0 {
		return nil, fmt.Errorf("%w: certificate %s contains no keys", errs.ErrSigning, certificate)
	}
	return &OpenPGPSigner{entity: keyring[0]}, nil
}

func (s *OpenPGPSigner) DetachedSign(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&buf, s.entity, bytes.NewReader(data), &packet.Config{}); err != nil {
		return nil, fmt.Errorf("%w: detached sign: %v", errs.ErrSigning, err)
	}
	return buf.Bytes(), nil
}

func (s *OpenPGPSigner) ClearSign(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := clearsign.Encode(&buf, s.entity.PrivateKey, &packet.Config{})
	if err != nil {
		return nil, fmt.Errorf("%w: clearsign: %v", errs.ErrSigning, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%w: clearsign write: %v", errs.ErrSigning, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: clearsign close: %v", errs.ErrSigning, err)
	}
	return buf.Bytes(), nil
}

// GenerateKey creates a fresh OpenPGP entity (RSA, the ProtonMail
// fork's default) for the "gen-key" command and returns its armored
// private key.
func GenerateKey(name, comment, email string) ([]byte, error) {
	entity, err := openpgp.NewEntity(name, comment, email, &packet.Config{
		RSABits: 4096,
		Time:    func() time.Time { return time.Now() },
	})
	if err != nil {
		return nil, fmt.Errorf("%w: generating key: %v", errs.ErrSigning, err)
	}

	var buf bytes.Buffer
	aw, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: armoring key: %v", errs.ErrSigning, err)
	}
	if err := entity.SerializePrivate(aw, nil); err != nil {
		return nil, fmt.Errorf("%w: serializing key: %v", errs.ErrSigning, err)
	}
	if err := aw.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing armor: %v", errs.ErrSigning, err)
	}
	return buf.Bytes(), nil
}
