package strongbox

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/strongboxhq/strongbox-go/internal/crypto"
)

// Validate checks that a stored vault record is structurally sound: all
// required fields present, both envelopes decodable, and the fingerprint
// well-formed. It decrypts nothing; a record can validate cleanly and still
// fail to open under the wrong master key.
func (v *Vault) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidVaultRecord)
	}
	if v.OwnerID == "" {
		return fmt.Errorf("%w: ownerId is required", ErrInvalidVaultRecord)
	}

	if v.EncryptedData == "" {
		return fmt.Errorf("%w: encryptedData is required", ErrInvalidVaultRecord)
	}
	if _, err := decodeStoredEnvelope(v.EncryptedData); err != nil {
		return fmt.Errorf("%w: encryptedData: %v", ErrInvalidVaultRecord, err)
	}

	if v.EncryptedKey == "" {
		return fmt.Errorf("%w: encryptedKey is required", ErrInvalidVaultRecord)
	}
	if _, err := decodeStoredEnvelope(v.EncryptedKey); err != nil {
		return fmt.Errorf("%w: encryptedKey: %v", ErrInvalidVaultRecord, err)
	}

	if v.KeyFingerprint == "" {
		return fmt.Errorf("%w: keyFingerprint is required", ErrInvalidVaultRecord)
	}
	if fp, err := crypto.FromBase64URL(v.KeyFingerprint); err != nil || len(fp) != 32 {
		return fmt.Errorf("%w: keyFingerprint is not a valid fingerprint", ErrInvalidVaultRecord)
	}

	if v.CreatedAt.IsZero() {
		return fmt.Errorf("%w: createdAt is required", ErrInvalidVaultRecord)
	}

	return nil
}

// SaveVaultToFile writes a vault record to a JSON file with secure
// permissions (0600). The record is already encrypted; the file holds no
// plaintext secrets.
func SaveVaultToFile(v *Vault, filePath string) error {
	if v == nil {
		return fmt.Errorf("vault is nil")
	}

	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal vault record: %w", err)
	}

	if err := os.WriteFile(filePath, jsonData, 0600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

// LoadVaultFromFile reads and validates a vault record from a JSON file.
func LoadVaultFromFile(filePath string) (*Vault, error) {
	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var v Vault
	if err := json.Unmarshal(jsonData, &v); err != nil {
		return nil, fmt.Errorf("parse vault record: %w", err)
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}

	return &v, nil
}
