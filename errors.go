package strongbox

import (
	"errors"
	"fmt"
	"strings"

	"github.com/strongboxhq/strongbox-go/internal/crypto"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrDecryptionFailed is returned when decryption fails for any reason:
	// wrong key, tampered ciphertext, or a malformed envelope. The cause is
	// deliberately not distinguished.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrKeyIntegrityViolation is returned when an unwrapped or received vault
	// key does not match the stored fingerprint.
	ErrKeyIntegrityViolation = errors.New("key integrity violation")

	// ErrSenderMismatch is returned when a share's declared sender does not
	// match the expected sender's key.
	ErrSenderMismatch = errors.New("sender key mismatch")

	// ErrNoMatchingShare is returned when no share in a set is addressed to
	// the recipient's key.
	ErrNoMatchingShare = errors.New("no matching share for recipient")

	// ErrInvalidPolicy is returned when a password policy is unsatisfiable.
	ErrInvalidPolicy = errors.New("invalid password policy")

	// ErrEntryNotFound is returned when a vault entry is not found.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrFolderNotFound is returned when a vault folder is not found.
	ErrFolderNotFound = errors.New("folder not found")

	// ErrKeyPairNotFound is returned when a keystore has no keypair under the
	// requested name.
	ErrKeyPairNotFound = errors.New("keypair not found")

	// ErrInvalidEnvelope is returned when an envelope or record is structurally
	// invalid before any decryption is attempted.
	ErrInvalidEnvelope = errors.New("invalid envelope")

	// ErrInvalidPublicKey is returned when public key bytes cannot be parsed.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrSignatureInvalid is returned when signature verification fails.
	ErrSignatureInvalid = errors.New("signature verification failed")

	// ErrInvalidKeystore is returned when keystore data cannot be parsed.
	ErrInvalidKeystore = errors.New("invalid keystore data")

	// ErrInvalidVaultRecord is returned when a stored vault record fails
	// validation.
	ErrInvalidVaultRecord = errors.New("invalid vault record")

	// ErrMasterKeyDestroyed is returned when operations are attempted with a
	// destroyed master key.
	ErrMasterKeyDestroyed = errors.New("master key has been destroyed")
)

// StrongboxError is implemented by all engine errors.
type StrongboxError interface {
	error
	StrongboxError() // marker method
}

// DecryptionError reports a failed decryption. Op names the operation that
// failed; the underlying cause is never exposed, so a wrong password, a
// tampered ciphertext, and a corrupted envelope are indistinguishable to
// callers.
type DecryptionError struct {
	Op string // operation that failed, e.g. "decrypt vault content"
}

// Error implements the error interface.
func (e *DecryptionError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: decryption failed", e.Op)
	}
	return "decryption failed"
}

// StrongboxError implements the StrongboxError interface.
func (e *DecryptionError) StrongboxError() {}

// Is allows errors.Is(err, ErrDecryptionFailed) matching.
func (e *DecryptionError) Is(target error) bool {
	return target == ErrDecryptionFailed
}

// KeyIntegrityError reports a fingerprint mismatch on a vault key. The key
// material decrypted cleanly but is not the key the record was created with,
// which indicates substitution or corruption of stored data.
type KeyIntegrityError struct {
	VaultID  string // vault whose key failed verification
	Expected string // fingerprint stored on the record
	Actual   string // fingerprint of the key material in hand
}

// Error implements the error interface.
func (e *KeyIntegrityError) Error() string {
	return fmt.Sprintf("vault %s: key fingerprint %s does not match stored fingerprint %s", e.VaultID, e.Actual, e.Expected)
}

// StrongboxError implements the StrongboxError interface.
func (e *KeyIntegrityError) StrongboxError() {}

// Is allows errors.Is(err, ErrKeyIntegrityViolation) matching.
func (e *KeyIntegrityError) Is(target error) bool {
	return target == ErrKeyIntegrityViolation
}

// SenderMismatchError reports a share whose declared sender is not the key
// the recipient expected. The share is refused before any decryption.
type SenderMismatchError struct {
	Expected string // fingerprint of the expected sender's key
	Declared string // fingerprint declared in the share payload
}

// Error implements the error interface.
func (e *SenderMismatchError) Error() string {
	return fmt.Sprintf("share declares sender %s, expected %s", e.Declared, e.Expected)
}

// StrongboxError implements the StrongboxError interface.
func (e *SenderMismatchError) StrongboxError() {}

// Is allows errors.Is(err, ErrSenderMismatch) matching.
func (e *SenderMismatchError) Is(target error) bool {
	return target == ErrSenderMismatch
}

// SignatureVerificationError represents a signature verification failure on a
// post-quantum share.
type SignatureVerificationError struct {
	Message string
}

// Error implements the error interface.
func (e *SignatureVerificationError) Error() string {
	return fmt.Sprintf("signature verification failed: %s", e.Message)
}

// StrongboxError implements the StrongboxError interface.
func (e *SignatureVerificationError) StrongboxError() {}

// Is allows errors.Is(err, ErrSignatureInvalid) matching.
func (e *SignatureVerificationError) Is(target error) bool {
	return target == ErrSignatureInvalid
}

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Errors []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// StrongboxError implements the StrongboxError interface.
func (e *ValidationError) StrongboxError() {}

// wrapError converts internal crypto errors to public errors so that
// errors.Is() checks work with the package sentinels. Decrypt paths do not
// use it; they construct a DecryptionError directly so that every failure
// mode collapses into one indistinguishable error.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, crypto.ErrDecryptionFailed):
		return ErrDecryptionFailed
	case errors.Is(err, crypto.ErrInvalidEnvelope),
		errors.Is(err, crypto.ErrInvalidAlgorithm),
		errors.Is(err, crypto.ErrInvalidSaltSize):
		return fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	case errors.Is(err, crypto.ErrInvalidPublicKey),
		errors.Is(err, crypto.ErrInvalidPublicKeySize):
		return fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	case errors.Is(err, crypto.ErrSignatureVerificationFailed):
		return &SignatureVerificationError{Message: err.Error()}
	}

	return err
}
