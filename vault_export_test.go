package strongbox

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestVault_Validate(t *testing.T) {
	vault, _ := newTestVault(t, "password")

	if err := vault.Validate(); err != nil {
		t.Errorf("Validate() on fresh vault error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(v *Vault)
	}{
		{"missing id", func(v *Vault) { v.ID = "" }},
		{"missing ownerId", func(v *Vault) { v.OwnerID = "" }},
		{"missing encryptedData", func(v *Vault) { v.EncryptedData = "" }},
		{"undecodable encryptedData", func(v *Vault) { v.EncryptedData = "not base64!" }},
		{"missing encryptedKey", func(v *Vault) { v.EncryptedKey = "" }},
		{"truncated encryptedKey", func(v *Vault) { v.EncryptedKey = v.EncryptedKey[:8] }},
		{"missing keyFingerprint", func(v *Vault) { v.KeyFingerprint = "" }},
		{"malformed keyFingerprint", func(v *Vault) { v.KeyFingerprint = "tooshort" }},
		{"zero createdAt", func(v *Vault) { v.CreatedAt = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken, _ := newTestVault(t, "password")
			tt.mutate(broken)

			if err := broken.Validate(); !errors.Is(err, ErrInvalidVaultRecord) {
				t.Errorf("Validate() error = %v, want ErrInvalidVaultRecord", err)
			}
		})
	}
}

func TestSaveLoadVaultFile(t *testing.T) {
	vault, mk := newTestVault(t, "password")
	if _, err := AddEntry(vault, mk, Entry{Name: "example.com", Type: EntryTypePassword}); err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "vault.json")
	if err := SaveVaultToFile(vault, path); err != nil {
		t.Fatalf("SaveVaultToFile() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadVaultFromFile(path)
	if err != nil {
		t.Fatalf("LoadVaultFromFile() error = %v", err)
	}
	if loaded.ID != vault.ID {
		t.Errorf("ID = %s, want %s", loaded.ID, vault.ID)
	}
	if loaded.KeyFingerprint != vault.KeyFingerprint {
		t.Error("KeyFingerprint should survive the file round trip")
	}

	content, err := DecryptVault(loaded, mk)
	if err != nil {
		t.Fatalf("DecryptVault() after load error = %v", err)
	}
	if len(content.Entries) != 1 || content.Entries[0].Name != "example.com" {
		t.Errorf("entries after load = %+v", content.Entries)
	}
}

func TestSaveVaultToFile_Nil(t *testing.T) {
	if err := SaveVaultToFile(nil, "/tmp/vault.json"); err == nil {
		t.Error("SaveVaultToFile(nil, ...) should return error")
	}
}

func TestLoadVaultFromFile_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		if _, err := LoadVaultFromFile("/nonexistent/path/vault.json"); err == nil {
			t.Error("LoadVaultFromFile() should fail for a missing file")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vault.json")
		if err := os.WriteFile(path, []byte("not valid json"), 0600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		if _, err := LoadVaultFromFile(path); err == nil {
			t.Error("LoadVaultFromFile() should fail for invalid JSON")
		}
	})

	t.Run("invalid record", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vault.json")
		if err := os.WriteFile(path, []byte(`{"id":"v1"}`), 0600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		if _, err := LoadVaultFromFile(path); !errors.Is(err, ErrInvalidVaultRecord) {
			t.Error("LoadVaultFromFile() should validate the record")
		}
	})
}
