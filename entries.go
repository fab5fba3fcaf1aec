package strongbox

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntryType classifies a vault entry.
type EntryType string

const (
	// EntryTypePassword is a site or service credential.
	EntryTypePassword EntryType = "password"
	// EntryTypeNote is free-form secure text.
	EntryTypeNote EntryType = "note"
	// EntryTypeCard is a payment card.
	EntryTypeCard EntryType = "card"
	// EntryTypeIdentity is personal identity data.
	EntryTypeIdentity EntryType = "identity"
)

// FieldType controls how a field value is rendered.
type FieldType string

const (
	// FieldTypeText is shown in the clear.
	FieldTypeText FieldType = "text"
	// FieldTypeHidden is masked until revealed, e.g. passwords and CVVs.
	FieldTypeHidden FieldType = "hidden"
	// FieldTypeURL is a link.
	FieldTypeURL FieldType = "url"
)

// Field is one named value within an entry.
type Field struct {
	Name  string    `json:"name"`
	Value string    `json:"value"`
	Type  FieldType `json:"type,omitempty"`
}

// Entry is a single record within a vault: a credential, note, card, or
// identity. Entries exist only inside the encrypted payload; they are never
// individually persisted.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      EntryType `json:"type"`
	Fields    []Field   `json:"fields"`
	FolderID  string    `json:"folderId,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Favorite  bool      `json:"favorite"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Folder groups entries within a vault.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// VaultContent is the decrypted payload of a vault. The engine treats it as
// one opaque document: any mutation re-encrypts the whole thing.
type VaultContent struct {
	Entries []Entry  `json:"entries"`
	Folders []Folder `json:"folders"`
}

// NewVaultContent returns empty content with both collections present, so
// the serialized payload always carries entries and folders arrays.
func NewVaultContent() *VaultContent {
	return &VaultContent{
		Entries: []Entry{},
		Folders: []Folder{},
	}
}

// normalize ensures both collections serialize as arrays, never null.
func (c *VaultContent) normalize() {
	if c.Entries == nil {
		c.Entries = []Entry{}
	}
	if c.Folders == nil {
		c.Folders = []Folder{}
	}
}

// AddEntry appends an entry to the vault and re-encrypts the payload. An
// empty entry ID gets a generated one. Timestamps are stamped here; values
// supplied by the caller are overwritten. Returns the stored entry.
func AddEntry(v *Vault, master *MasterKey, entry Entry) (Entry, error) {
	content, err := DecryptVault(v, master)
	if err != nil {
		return Entry{}, err
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Fields == nil {
		entry.Fields = []Field{}
	}
	if entry.FolderID != "" && !content.hasFolder(entry.FolderID) {
		return Entry{}, fmt.Errorf("%w: %s", ErrFolderNotFound, entry.FolderID)
	}

	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	content.Entries = append(content.Entries, entry)
	if err := UpdateVault(v, master, content); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// UpdateEntry replaces the entry with the same ID and re-encrypts the
// payload. CreatedAt is preserved from the stored entry; UpdatedAt
// advances. Returns the stored entry.
func UpdateEntry(v *Vault, master *MasterKey, entry Entry) (Entry, error) {
	content, err := DecryptVault(v, master)
	if err != nil {
		return Entry{}, err
	}

	if entry.FolderID != "" && !content.hasFolder(entry.FolderID) {
		return Entry{}, fmt.Errorf("%w: %s", ErrFolderNotFound, entry.FolderID)
	}

	for i := range content.Entries {
		if content.Entries[i].ID != entry.ID {
			continue
		}

		if entry.Fields == nil {
			entry.Fields = []Field{}
		}
		entry.CreatedAt = content.Entries[i].CreatedAt
		entry.UpdatedAt = time.Now().UTC()
		content.Entries[i] = entry

		if err := UpdateVault(v, master, content); err != nil {
			return Entry{}, err
		}
		return entry, nil
	}

	return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, entry.ID)
}

// DeleteEntry removes the entry with the given ID and re-encrypts the
// payload.
func DeleteEntry(v *Vault, master *MasterKey, entryID string) error {
	content, err := DecryptVault(v, master)
	if err != nil {
		return err
	}

	for i := range content.Entries {
		if content.Entries[i].ID != entryID {
			continue
		}
		content.Entries = append(content.Entries[:i], content.Entries[i+1:]...)
		return UpdateVault(v, master, content)
	}

	return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
}

// AddFolder adds a folder to the vault and re-encrypts the payload. An
// empty folder ID gets a generated one. Returns the stored folder.
func AddFolder(v *Vault, master *MasterKey, folder Folder) (Folder, error) {
	content, err := DecryptVault(v, master)
	if err != nil {
		return Folder{}, err
	}

	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	folder.CreatedAt = time.Now().UTC()

	content.Folders = append(content.Folders, folder)
	if err := UpdateVault(v, master, content); err != nil {
		return Folder{}, err
	}
	return folder, nil
}

func (c *VaultContent) hasFolder(folderID string) bool {
	for _, f := range c.Folders {
		if f.ID == folderID {
			return true
		}
	}
	return false
}

// SearchEntries returns the entries matching query, case-insensitively,
// against entry names, notes, field names, and the values of non-hidden
// fields. Hidden field values (passwords, CVVs) are never matched. An empty
// query matches everything.
//
// Search operates on decrypted content only; no crypto is involved.
func SearchEntries(content *VaultContent, query string) []Entry {
	q := strings.ToLower(query)
	matches := make([]Entry, 0, len(content.Entries))
	for _, e := range content.Entries {
		if entryMatches(e, q) {
			matches = append(matches, e)
		}
	}
	return matches
}

func entryMatches(e Entry, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(e.Notes), q) {
		return true
	}
	for _, f := range e.Fields {
		if strings.Contains(strings.ToLower(f.Name), q) {
			return true
		}
		if f.Type != FieldTypeHidden && strings.Contains(strings.ToLower(f.Value), q) {
			return true
		}
	}
	return false
}

// EntriesByFolder returns the entries filed under folderID.
func EntriesByFolder(content *VaultContent, folderID string) []Entry {
	matches := make([]Entry, 0, len(content.Entries))
	for _, e := range content.Entries {
		if e.FolderID == folderID {
			matches = append(matches, e)
		}
	}
	return matches
}

// FavoriteEntries returns the entries marked favorite.
func FavoriteEntries(content *VaultContent) []Entry {
	matches := make([]Entry, 0, len(content.Entries))
	for _, e := range content.Entries {
		if e.Favorite {
			matches = append(matches, e)
		}
	}
	return matches
}
