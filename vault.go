package strongbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/strongboxhq/strongbox-go/internal/crypto"
)

// Vault is the stored form of a vault: display metadata in the clear,
// content and key as encrypted envelopes. This is the record a storage
// backend persists and syncs; it never contains plaintext entries or raw
// key material.
//
// Each vault has its own random key. The key is wrapped under the owner's
// master key in EncryptedKey, and the content is encrypted under the vault
// key in EncryptedData. Both fields hold base64-encoded envelope JSON.
type Vault struct {
	// ID uniquely identifies the vault.
	ID string `json:"id"`
	// Name is display-only plaintext.
	Name string `json:"name"`
	// Description is display-only plaintext.
	Description string `json:"description"`
	// EncryptedData is the vault content envelope, base64-encoded.
	EncryptedData string `json:"encryptedData"`
	// EncryptedKey is the wrapped vault key envelope, base64-encoded.
	EncryptedKey string `json:"encryptedKey"`
	// KeyFingerprint is the fingerprint of the raw vault key. It is checked
	// after every unwrap to detect substituted or corrupted key material.
	KeyFingerprint string `json:"keyFingerprint"`
	// OwnerID identifies the owning user.
	OwnerID string `json:"ownerId"`
	// OrganizationID is set when the vault belongs to an organization.
	OrganizationID string `json:"organizationId,omitempty"`
	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt advances on every content mutation.
	UpdatedAt time.Time `json:"updatedAt"`
	// LastAccessedAt is the caller-maintained access stamp; see Touch.
	// Persisting it is the storage backend's concern.
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`
}

// CreateVault builds a new vault record with empty content. A fresh vault
// key is generated, used to encrypt the empty content, wrapped under the
// master key, and discarded; only its fingerprint survives in the clear.
func CreateVault(name, description, ownerID string, master *MasterKey, opts ...VaultOption) (*Vault, error) {
	if err := master.check(); err != nil {
		return nil, err
	}

	cfg := vaultConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	vaultKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(vaultKey)

	encryptedData, err := sealContent(vaultKey, NewVaultContent())
	if err != nil {
		return nil, err
	}

	encryptedKey, err := wrapVaultKey(vaultKey, master)
	if err != nil {
		return nil, err
	}

	id := cfg.id
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC()
	return &Vault{
		ID:             id,
		Name:           name,
		Description:    description,
		EncryptedData:  encryptedData,
		EncryptedKey:   encryptedKey,
		KeyFingerprint: crypto.Fingerprint(vaultKey),
		OwnerID:        ownerID,
		OrganizationID: cfg.organizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// DecryptVault unwraps the vault key under the master key, verifies the key
// against the stored fingerprint, and decrypts the content. The record is
// never written to, so any number of decrypts of the same vault may run
// concurrently.
//
// A wrong master key, tampered ciphertext, and a corrupted record all fail
// with ErrDecryptionFailed; a cleanly-decrypted key that fails the
// fingerprint check fails with ErrKeyIntegrityViolation.
func DecryptVault(v *Vault, master *MasterKey) (*VaultContent, error) {
	if err := master.check(); err != nil {
		return nil, err
	}

	vaultKey, err := unwrapVaultKey(v, master)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(vaultKey)

	return openContent(vaultKey, v.EncryptedData)
}

// Touch stamps LastAccessedAt with the current time. Access tracking is the
// caller's concern: stamp after a successful decrypt, before handing the
// record back to storage. Touch is a plain field write and is not
// synchronized.
func (v *Vault) Touch() {
	now := time.Now().UTC()
	v.LastAccessedAt = &now
}

// UpdateVault replaces the vault content. The entire payload is
// re-encrypted under the vault key with a fresh IV; there is no partial
// update. UpdatedAt advances on success.
func UpdateVault(v *Vault, master *MasterKey, content *VaultContent) error {
	if err := master.check(); err != nil {
		return err
	}

	vaultKey, err := unwrapVaultKey(v, master)
	if err != nil {
		return err
	}
	defer crypto.Zero(vaultKey)

	encryptedData, err := sealContent(vaultKey, content)
	if err != nil {
		return err
	}

	v.EncryptedData = encryptedData
	v.UpdatedAt = time.Now().UTC()
	return nil
}

// ShareKeyWith wraps this vault's key for a recipient without ever exposing
// it outside the process: the key is unwrapped under the owner's master
// key, encrypted under the pairwise key with the recipient, and zeroed.
// The recipient passes the received key to AcceptSharedVault.
func (v *Vault) ShareKeyWith(master *MasterKey, sender *KeyPair, recipient *PublicKey) (*SharedSecret, error) {
	if err := master.check(); err != nil {
		return nil, err
	}

	vaultKey, err := unwrapVaultKey(v, master)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(vaultKey)

	return ShareWith(vaultKey, sender, recipient)
}

// AcceptSharedVault wraps a received vault key under the recipient's own
// master key and returns the recipient's copy of the record. The key must
// match the record's fingerprint; a mismatch means the key or the record
// was substituted in transit and the vault must not be opened with it.
func AcceptSharedVault(v *Vault, vaultKey []byte, master *MasterKey) (*Vault, error) {
	if err := master.check(); err != nil {
		return nil, err
	}

	if !crypto.VerifyKeyFingerprint(vaultKey, v.KeyFingerprint) {
		return nil, &KeyIntegrityError{
			VaultID:  v.ID,
			Expected: v.KeyFingerprint,
			Actual:   crypto.Fingerprint(vaultKey),
		}
	}

	encryptedKey, err := wrapVaultKey(vaultKey, master)
	if err != nil {
		return nil, err
	}

	accepted := *v
	accepted.EncryptedKey = encryptedKey
	accepted.UpdatedAt = time.Now().UTC()
	accepted.LastAccessedAt = nil
	return &accepted, nil
}

// wrapVaultKey encrypts the raw vault key under the master key and encodes
// the envelope into the stored record form.
func wrapVaultKey(vaultKey []byte, master *MasterKey) (string, error) {
	env, err := crypto.WrapKey(master.bytes(), vaultKey)
	if err != nil {
		return "", err
	}
	return encodeStoredEnvelope(env)
}

// unwrapVaultKey recovers the raw vault key from the record and verifies it
// against the stored fingerprint. The caller owns the returned bytes and
// must zero them.
func unwrapVaultKey(v *Vault, master *MasterKey) ([]byte, error) {
	env, err := decodeStoredEnvelope(v.EncryptedKey)
	if err != nil {
		return nil, &DecryptionError{Op: "unwrap vault key"}
	}

	vaultKey, err := crypto.UnwrapKey(master.bytes(), env)
	if err != nil {
		return nil, &DecryptionError{Op: "unwrap vault key"}
	}

	if !crypto.VerifyKeyFingerprint(vaultKey, v.KeyFingerprint) {
		actual := crypto.Fingerprint(vaultKey)
		crypto.Zero(vaultKey)
		return nil, &KeyIntegrityError{
			VaultID:  v.ID,
			Expected: v.KeyFingerprint,
			Actual:   actual,
		}
	}

	return vaultKey, nil
}

// sealContent serializes and encrypts vault content under the vault key.
func sealContent(vaultKey []byte, content *VaultContent) (string, error) {
	content.normalize()
	plaintext, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("encode vault content: %w", err)
	}

	env, err := crypto.Seal(vaultKey, plaintext)
	if err != nil {
		return "", err
	}

	return encodeStoredEnvelope(env)
}

// openContent decrypts and parses vault content. Every failure mode
// collapses into DecryptionError.
func openContent(vaultKey []byte, encryptedData string) (*VaultContent, error) {
	env, err := decodeStoredEnvelope(encryptedData)
	if err != nil {
		return nil, &DecryptionError{Op: "decrypt vault content"}
	}

	plaintext, err := crypto.Open(env, vaultKey)
	if err != nil {
		return nil, &DecryptionError{Op: "decrypt vault content"}
	}

	var content VaultContent
	if err := json.Unmarshal(plaintext, &content); err != nil {
		return nil, &DecryptionError{Op: "decrypt vault content"}
	}

	content.normalize()
	return &content, nil
}

// encodeStoredEnvelope applies the outer base64 layer of the record format:
// envelope JSON, then base64.
func encodeStoredEnvelope(env *crypto.Envelope) (string, error) {
	data, err := env.Encode()
	if err != nil {
		return "", err
	}
	return crypto.ToBase64(data), nil
}

// decodeStoredEnvelope reverses encodeStoredEnvelope.
func decodeStoredEnvelope(s string) (*crypto.Envelope, error) {
	raw, err := crypto.FromBase64(s)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable record field", ErrInvalidEnvelope)
	}
	env, err := crypto.DecodeEnvelope(raw)
	if err != nil {
		return nil, wrapError(err)
	}
	return env, nil
}
