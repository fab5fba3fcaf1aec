package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	strongbox "github.com/strongboxhq/strongbox-go"
)

// Config holds the I/O streams for the helper commands so tests can
// substitute buffers for the real standard streams.
type Config struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func DefaultConfig() *Config {
	return &Config{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// keyFactory derives the master key for commands that need one. The password
// comes from STRONGBOX_PASSWORD. A nil salt means "use STRONGBOX_SALT if
// set, otherwise draw a fresh one"; commands that read a record from stdin
// pass the record's salt instead. Tests override this to inject failures.
var keyFactory = func(salt []byte) (*strongbox.MasterKey, error) {
	password := os.Getenv("STRONGBOX_PASSWORD")
	if password == "" {
		return nil, errors.New("STRONGBOX_PASSWORD is not set")
	}
	if salt == nil {
		if enc := os.Getenv("STRONGBOX_SALT"); enc != "" {
			decoded, err := base64.StdEncoding.DecodeString(enc)
			if err != nil {
				return nil, fmt.Errorf("decode STRONGBOX_SALT: %w", err)
			}
			salt = decoded
		}
	}
	if salt == nil {
		return strongbox.DeriveMasterKey(password)
	}
	return strongbox.DeriveMasterKeyWithSalt(password, salt)
}

// exitFunc is replaced in tests to observe the exit code.
var exitFunc = os.Exit

func run(args []string, cfg *Config) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: testhelper <command> [args]")
	}

	switch args[1] {
	case "derive-key":
		return runDeriveKey(cfg)
	case "create-vault":
		if len(args) < 4 {
			return fmt.Errorf("usage: testhelper create-vault <owner-id> <name>")
		}
		return runCreateVault(cfg, args[2], args[3])
	case "decrypt-vault":
		return runDecryptVault(cfg)
	case "add-entry":
		return runAddEntry(cfg)
	case "share-key":
		return runShareKey(cfg)
	case "receive-key":
		return runReceiveKey(cfg)
	case "generate-password":
		return runGeneratePassword(cfg, args[2:])
	default:
		return fmt.Errorf("unknown command: %s", args[1])
	}
}

func runDeriveKey(cfg *Config) error {
	master, err := keyFactory(nil)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	defer master.Destroy()

	out := struct {
		Salt string `json:"salt"`
	}{Salt: base64.StdEncoding.EncodeToString(master.Salt())}

	if err := json.NewEncoder(cfg.Stdout).Encode(out); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// VaultOutput pairs a vault record with the master key salt used to derive
// its owner's key, so another process holding the same password can unlock
// it.
type VaultOutput struct {
	Salt  string           `json:"salt"`
	Vault *strongbox.Vault `json:"vault"`
}

func runCreateVault(cfg *Config, ownerID, name string) error {
	master, err := keyFactory(nil)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	defer master.Destroy()

	vault, err := strongbox.CreateVault(name, "", ownerID, master)
	if err != nil {
		return fmt.Errorf("create vault: %w", err)
	}

	out := VaultOutput{
		Salt:  base64.StdEncoding.EncodeToString(master.Salt()),
		Vault: vault,
	}
	if err := json.NewEncoder(cfg.Stdout).Encode(out); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func readVaultInput(cfg *Config) (*VaultOutput, error) {
	data, err := io.ReadAll(cfg.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}

	var input VaultOutput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parse vault: %w", err)
	}
	if input.Vault == nil {
		return nil, fmt.Errorf("parse vault: missing vault record")
	}
	return &input, nil
}

func masterForSalt(encodedSalt string) (*strongbox.MasterKey, error) {
	salt, err := base64.StdEncoding.DecodeString(encodedSalt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	master, err := keyFactory(salt)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return master, nil
}

func runDecryptVault(cfg *Config) error {
	input, err := readVaultInput(cfg)
	if err != nil {
		return err
	}

	master, err := masterForSalt(input.Salt)
	if err != nil {
		return err
	}
	defer master.Destroy()

	content, err := strongbox.DecryptVault(input.Vault, master)
	if err != nil {
		return fmt.Errorf("decrypt vault: %w", err)
	}

	if err := json.NewEncoder(cfg.Stdout).Encode(content); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// AddEntryInput is the stdin payload for add-entry: a vault record plus the
// entry to store in it.
type AddEntryInput struct {
	Salt  string           `json:"salt"`
	Vault *strongbox.Vault `json:"vault"`
	Entry *strongbox.Entry `json:"entry"`
}

func runAddEntry(cfg *Config) error {
	data, err := io.ReadAll(cfg.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	var input AddEntryInput
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	if input.Vault == nil || input.Entry == nil {
		return fmt.Errorf("parse input: missing vault or entry")
	}

	master, err := masterForSalt(input.Salt)
	if err != nil {
		return err
	}
	defer master.Destroy()

	if _, err := strongbox.AddEntry(input.Vault, master, *input.Entry); err != nil {
		return fmt.Errorf("add entry: %w", err)
	}

	out := VaultOutput{Salt: input.Salt, Vault: input.Vault}
	if err := json.NewEncoder(cfg.Stdout).Encode(out); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// ShareOutput carries everything the receiving side needs: the vault record,
// the rewrapped vault key, the sender's public key for authentication, and
// the recipient's key pair sealed under the master key.
type ShareOutput struct {
	Salt             string                     `json:"salt"`
	Vault            *strongbox.Vault           `json:"vault"`
	Share            *strongbox.SharedSecret    `json:"share"`
	SenderPublicKey  string                     `json:"senderPublicKey"`
	RecipientKeyPair *strongbox.ExportedKeyPair `json:"recipientKeyPair"`
}

func runShareKey(cfg *Config) error {
	input, err := readVaultInput(cfg)
	if err != nil {
		return err
	}

	master, err := masterForSalt(input.Salt)
	if err != nil {
		return err
	}
	defer master.Destroy()

	sender, err := strongbox.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("generate sender key pair: %w", err)
	}
	recipient, err := strongbox.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("generate recipient key pair: %w", err)
	}

	share, err := input.Vault.ShareKeyWith(master, sender, recipient.PublicKey())
	if err != nil {
		return fmt.Errorf("share key: %w", err)
	}

	exported, err := strongbox.ExportKeyPair(recipient, master)
	if err != nil {
		return fmt.Errorf("export recipient key pair: %w", err)
	}

	out := ShareOutput{
		Salt:             input.Salt,
		Vault:            input.Vault,
		Share:            share,
		SenderPublicKey:  base64.StdEncoding.EncodeToString(sender.PublicKey().Bytes()),
		RecipientKeyPair: exported,
	}
	if err := json.NewEncoder(cfg.Stdout).Encode(out); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// ReceiveOutput holds the re-wrapped vault record and its decrypted content,
// proving the share round trip worked.
type ReceiveOutput struct {
	Vault   *strongbox.Vault        `json:"vault"`
	Content *strongbox.VaultContent `json:"content"`
}

func runReceiveKey(cfg *Config) error {
	data, err := io.ReadAll(cfg.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	var input ShareOutput
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("parse share: %w", err)
	}
	if input.Vault == nil || input.Share == nil || input.RecipientKeyPair == nil {
		return fmt.Errorf("parse share: missing vault, share, or recipient key pair")
	}

	master, err := masterForSalt(input.Salt)
	if err != nil {
		return err
	}
	defer master.Destroy()

	recipient, err := strongbox.ImportKeyPair(input.RecipientKeyPair, master)
	if err != nil {
		return fmt.Errorf("import recipient key pair: %w", err)
	}

	senderRaw, err := base64.StdEncoding.DecodeString(input.SenderPublicKey)
	if err != nil {
		return fmt.Errorf("decode sender public key: %w", err)
	}
	sender, err := strongbox.ParsePublicKey(senderRaw)
	if err != nil {
		return fmt.Errorf("parse sender public key: %w", err)
	}

	vaultKey, err := strongbox.ReceiveFrom(input.Share, recipient, sender)
	if err != nil {
		return fmt.Errorf("receive key: %w", err)
	}

	accepted, err := strongbox.AcceptSharedVault(input.Vault, vaultKey, master)
	if err != nil {
		return fmt.Errorf("accept vault: %w", err)
	}

	content, err := strongbox.DecryptVault(accepted, master)
	if err != nil {
		return fmt.Errorf("decrypt vault: %w", err)
	}

	out := ReceiveOutput{Vault: accepted, Content: content}
	if err := json.NewEncoder(cfg.Stdout).Encode(out); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// PasswordOutput is the generate-password result.
type PasswordOutput struct {
	Password string `json:"password"`
	Length   int    `json:"length"`
}

func runGeneratePassword(cfg *Config, args []string) error {
	policy := strongbox.DefaultPasswordPolicy()
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("parse length: %w", err)
		}
		policy.Length = n
	}

	password, err := strongbox.GeneratePassword(policy)
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}

	out := PasswordOutput{Password: password, Length: len(password)}
	if err := json.NewEncoder(cfg.Stdout).Encode(out); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	exitFunc(1)
}
