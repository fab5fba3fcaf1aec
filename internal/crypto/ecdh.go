package crypto

import (
	"crypto/ecdh"
	"fmt"
)

// GenerateECDHKey creates a fresh P-256 private key for pairwise sharing.
func GenerateECDHKey() (*ecdh.PrivateKey, error) {
	key, err := ecdh.P256().GenerateKey(reader())
	if err != nil {
		return nil, fmt.Errorf("generate P-256 key: %w", err)
	}
	return key, nil
}

// ParseECDHPublicKey parses a 65-byte uncompressed P-256 point.
func ParseECDHPublicKey(raw []byte) (*ecdh.PublicKey, error) {
	if len(raw) != P256PublicKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidPublicKeySize, len(raw), P256PublicKeySize)
	}

	pub, err := ecdh.P256().NewPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid P-256 point", ErrInvalidPublicKey)
	}

	return pub, nil
}

// ParseECDHPrivateKey parses a 32-byte P-256 private scalar.
func ParseECDHPrivateKey(raw []byte) (*ecdh.PrivateKey, error) {
	if len(raw) != P256PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidSecretKeySize, len(raw), P256PrivateKeySize)
	}

	priv, err := ecdh.P256().NewPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("parse P-256 private key: %w", err)
	}

	return priv, nil
}

// ECDHSharedKey derives the pairwise symmetric key between the holder of
// priv and the holder of pub. The derivation is commutative:
// ECDHSharedKey(aPriv, bPub) and ECDHSharedKey(bPriv, aPub) produce
// byte-identical keys, which is the property the sharing protocol relies
// on. Neither private key ever leaves its owner.
func ECDHSharedKey(priv *ecdh.PrivateKey, pub *ecdh.PublicKey) ([]byte, error) {
	secret, err := priv.ECDH(pub)
	if err != nil {
		return nil, fmt.Errorf("derive shared secret: %w", err)
	}
	defer Zero(secret)

	return DeriveSharedKey(secret, []byte(ECDHContext))
}
