package strongbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/strongboxhq/strongbox-go/internal/crypto"
)

// Keystore bundles a user's identity for local persistence: the master-key
// salt plus the user's sharing keypairs, private halves wrapped under the
// master key. The structure itself is plaintext JSON; SealKeystore encrypts
// the whole thing under a passphrase for storage at rest.
type Keystore struct {
	// UserID identifies the owning user.
	UserID string `json:"userId"`
	// Salt is the master-key derivation salt, base64. Not secret.
	Salt string `json:"salt"`
	// KeyPairs holds the user's P-256 sharing keypairs by name.
	KeyPairs map[string]*ExportedKeyPair `json:"keyPairs,omitempty"`
	// PQKeyPairs holds the user's post-quantum identities by name.
	PQKeyPairs map[string]*ExportedPQKeyPair `json:"pqKeyPairs,omitempty"`
	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt advances whenever a keypair is added.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewKeystore builds an empty keystore for a user, recording the master
// key's salt so the key can be re-derived on the next unlock.
func NewKeystore(userID string, master *MasterKey) (*Keystore, error) {
	if err := master.check(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Keystore{
		UserID:     userID,
		Salt:       crypto.ToBase64(master.Salt()),
		KeyPairs:   map[string]*ExportedKeyPair{},
		PQKeyPairs: map[string]*ExportedPQKeyPair{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// MasterSalt returns the stored salt bytes for DeriveMasterKeyWithSalt.
func (ks *Keystore) MasterSalt() ([]byte, error) {
	salt, err := crypto.FromBase64(ks.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable salt", ErrInvalidKeystore)
	}
	return salt, nil
}

// AddKeyPair wraps a sharing keypair under the master key and files it
// under name, replacing any existing keypair with that name.
func (ks *Keystore) AddKeyPair(name string, kp *KeyPair, master *MasterKey) error {
	exported, err := ExportKeyPair(kp, master)
	if err != nil {
		return err
	}

	if ks.KeyPairs == nil {
		ks.KeyPairs = map[string]*ExportedKeyPair{}
	}
	ks.KeyPairs[name] = exported
	ks.UpdatedAt = time.Now().UTC()
	return nil
}

// KeyPair unwraps the named sharing keypair.
func (ks *Keystore) KeyPair(name string, master *MasterKey) (*KeyPair, error) {
	exported, ok := ks.KeyPairs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyPairNotFound, name)
	}
	return ImportKeyPair(exported, master)
}

// AddPQKeyPair wraps a post-quantum identity under the master key and files
// it under name, replacing any existing identity with that name.
func (ks *Keystore) AddPQKeyPair(name string, kp *PQKeyPair, master *MasterKey) error {
	exported, err := ExportPQKeyPair(kp, master)
	if err != nil {
		return err
	}

	if ks.PQKeyPairs == nil {
		ks.PQKeyPairs = map[string]*ExportedPQKeyPair{}
	}
	ks.PQKeyPairs[name] = exported
	ks.UpdatedAt = time.Now().UTC()
	return nil
}

// PQKeyPair unwraps the named post-quantum identity.
func (ks *Keystore) PQKeyPair(name string, master *MasterKey) (*PQKeyPair, error) {
	exported, ok := ks.PQKeyPairs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyPairNotFound, name)
	}
	return ImportPQKeyPair(exported, master)
}

// Validate checks that the keystore is structurally sound. Wrapped key
// material is not decrypted; that requires the master key.
func (ks *Keystore) Validate() error {
	var errs []string

	if ks.UserID == "" {
		errs = append(errs, "userId is required")
	}

	if ks.Salt == "" {
		errs = append(errs, "salt is required")
	} else if salt, err := crypto.FromBase64(ks.Salt); err != nil {
		errs = append(errs, "salt is not valid base64")
	} else if len(salt) != crypto.SaltSize {
		errs = append(errs, fmt.Sprintf("salt size %d, expected %d", len(salt), crypto.SaltSize))
	}

	for name, kp := range ks.KeyPairs {
		if kp == nil || kp.PrivateKey == nil {
			errs = append(errs, fmt.Sprintf("keypair %q has no private key envelope", name))
		}
	}
	for name, kp := range ks.PQKeyPairs {
		if kp == nil || kp.KEMPrivateKey == nil || kp.SigPrivateKey == nil {
			errs = append(errs, fmt.Sprintf("pq keypair %q has no private key envelopes", name))
		}
	}

	if ks.CreatedAt.IsZero() {
		errs = append(errs, "createdAt is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// SealKeystore encrypts the keystore under a passphrase for storage at
// rest. The passphrase is independent of the vault password; it is
// stretched with Argon2id, and the cost parameters are recorded in the
// sealed data so OpenKeystore needs only the passphrase.
func SealKeystore(ks *Keystore, passphrase string, opts ...SealOption) ([]byte, error) {
	if err := ks.Validate(); err != nil {
		return nil, err
	}

	cfg := sealConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	plaintext, err := json.Marshal(ks)
	if err != nil {
		return nil, fmt.Errorf("encode keystore: %w", err)
	}
	defer crypto.Zero(plaintext)

	box, err := crypto.SealBox(passphrase, plaintext, cfg.params)
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(box, "", "  ")
}

// OpenKeystore decrypts a sealed keystore. A wrong passphrase fails with
// ErrDecryptionFailed; structural defects fail with ErrInvalidKeystore.
func OpenKeystore(data []byte, passphrase string) (*Keystore, error) {
	var box crypto.SealedBox
	if err := json.Unmarshal(data, &box); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeystore, err)
	}

	plaintext, err := crypto.OpenBox(passphrase, &box)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return nil, &DecryptionError{Op: "open keystore"}
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeystore, err)
	}
	defer crypto.Zero(plaintext)

	var ks Keystore
	if err := json.Unmarshal(plaintext, &ks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeystore, err)
	}

	if err := ks.Validate(); err != nil {
		return nil, err
	}
	return &ks, nil
}

// SaveKeystoreToFile seals the keystore and writes it to a file with
// secure permissions (0600).
func SaveKeystoreToFile(ks *Keystore, passphrase, filePath string, opts ...SealOption) error {
	data, err := SealKeystore(ks, passphrase, opts...)
	if err != nil {
		return err
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

// LoadKeystoreFromFile reads and opens a sealed keystore file.
func LoadKeystoreFromFile(filePath, passphrase string) (*Keystore, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return OpenKeystore(data, passphrase)
}
