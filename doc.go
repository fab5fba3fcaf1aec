// Package strongbox implements the client-side cryptographic engine for a
// zero-knowledge secrets vault.
//
// All encryption and decryption happens on the client: a master key is
// derived from the user's password with PBKDF2, each vault's content is
// encrypted under its own random AES-256-GCM key, and vault keys are only
// ever persisted wrapped under the master key. Storage backends see
// ciphertext, fingerprints, and display metadata, never plaintext or keys.
//
// Basic usage:
//
//	master, err := strongbox.DeriveMasterKey("correct horse battery staple")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer master.Destroy()
//
//	// Create a vault and add an entry
//	vault, err := strongbox.CreateVault("Personal", "My passwords", "user-1", master)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	entry, err := strongbox.AddEntry(vault, master, strongbox.Entry{
//	    Name: "example.com",
//	    Type: strongbox.EntryTypePassword,
//	    Fields: []strongbox.Field{
//	        {Name: "username", Value: "alice"},
//	        {Name: "password", Value: "hunter2", Type: strongbox.FieldTypeHidden},
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Stored entry:", entry.ID)
//
// Vaults are shared by sending the vault key through a pairwise-encrypted
// SharedSecret (P-256 ECDH) or a signed post-quantum PQShare (ML-KEM-768
// and ML-DSA-65); the vault ciphertext itself never needs re-encryption
// for sharing.
package strongbox
