package strongbox

import (
	"bytes"
	"fmt"

	"github.com/strongboxhq/strongbox-go/internal/crypto"
)

// MasterKey is the symmetric key derived from a user's password. It wraps
// vault keys and exported private keys but never encrypts vault content
// directly, so a password change only requires re-wrapping keys.
//
// The raw bytes are not exportable. The key lives in memory for the duration
// of an unlock session; call Destroy when the session ends.
type MasterKey struct {
	key       []byte
	salt      []byte
	destroyed bool
}

// DeriveMasterKey derives a master key from a password with a freshly
// generated 32-byte salt. Persist Salt alongside the account; re-unlocking
// goes through DeriveMasterKeyWithSalt with the stored value.
func DeriveMasterKey(password string) (*MasterKey, error) {
	salt, err := crypto.RandomBytes(crypto.SaltSize)
	if err != nil {
		return nil, err
	}
	return DeriveMasterKeyWithSalt(password, salt)
}

// DeriveMasterKeyWithSalt re-derives the master key for an existing salt.
// The same password and salt always produce the same key; nothing random
// enters the derivation. The salt must be 32 bytes.
func DeriveMasterKeyWithSalt(password string, salt []byte) (*MasterKey, error) {
	if len(salt) != crypto.SaltSize {
		return nil, fmt.Errorf("invalid salt size: got %d, want %d", len(salt), crypto.SaltSize)
	}

	key, err := crypto.DerivePBKDF2Key([]byte(password), salt)
	if err != nil {
		return nil, wrapError(err)
	}

	return &MasterKey{
		key:  key,
		salt: bytes.Clone(salt),
	}, nil
}

// Salt returns a copy of the derivation salt. The salt is not secret; it is
// stored in the clear so the key can be re-derived on the next unlock.
func (mk *MasterKey) Salt() []byte {
	return bytes.Clone(mk.salt)
}

// Destroy wipes the key material. All subsequent operations with this key
// fail with ErrMasterKeyDestroyed.
func (mk *MasterKey) Destroy() {
	crypto.Zero(mk.key)
	mk.destroyed = true
}

// check guards every operation that uses the key material.
func (mk *MasterKey) check() error {
	if mk == nil || mk.destroyed {
		return ErrMasterKeyDestroyed
	}
	return nil
}

// bytes exposes the raw key to the engine. Callers must not retain or
// mutate the slice.
func (mk *MasterKey) bytes() []byte {
	return mk.key
}
