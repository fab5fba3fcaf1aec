package strongbox

import (
	"errors"
	"fmt"
	"testing"

	"github.com/strongboxhq/strongbox-go/internal/crypto"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []struct {
		name string
		err  error
	}{
		{"ErrDecryptionFailed", ErrDecryptionFailed},
		{"ErrKeyIntegrityViolation", ErrKeyIntegrityViolation},
		{"ErrSenderMismatch", ErrSenderMismatch},
		{"ErrNoMatchingShare", ErrNoMatchingShare},
		{"ErrInvalidPolicy", ErrInvalidPolicy},
		{"ErrEntryNotFound", ErrEntryNotFound},
		{"ErrFolderNotFound", ErrFolderNotFound},
		{"ErrKeyPairNotFound", ErrKeyPairNotFound},
		{"ErrInvalidEnvelope", ErrInvalidEnvelope},
		{"ErrInvalidPublicKey", ErrInvalidPublicKey},
		{"ErrSignatureInvalid", ErrSignatureInvalid},
		{"ErrInvalidKeystore", ErrInvalidKeystore},
		{"ErrInvalidVaultRecord", ErrInvalidVaultRecord},
		{"ErrMasterKeyDestroyed", ErrMasterKeyDestroyed},
	}

	for _, s := range sentinels {
		t.Run(s.name, func(t *testing.T) {
			if s.err == nil {
				t.Error("sentinel error is nil")
			}
			if s.err.Error() == "" {
				t.Error("sentinel error has empty message")
			}
		})
	}
}

func TestDecryptionError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DecryptionError
		expected string
	}{
		{
			name:     "with operation",
			err:      &DecryptionError{Op: "decrypt vault content"},
			expected: "decrypt vault content: decryption failed",
		},
		{
			name:     "without operation",
			err:      &DecryptionError{},
			expected: "decryption failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			if result != tt.expected {
				t.Errorf("Error() = %s, want %s", result, tt.expected)
			}
		})
	}
}

func TestDecryptionError_Is(t *testing.T) {
	err := &DecryptionError{Op: "unwrap vault key"}

	if !errors.Is(err, ErrDecryptionFailed) {
		t.Error("errors.Is() should match ErrDecryptionFailed")
	}
	if errors.Is(err, ErrKeyIntegrityViolation) {
		t.Error("errors.Is() should not match ErrKeyIntegrityViolation")
	}
}

func TestKeyIntegrityError(t *testing.T) {
	err := &KeyIntegrityError{
		VaultID:  "vault-1",
		Expected: "fp-expected",
		Actual:   "fp-actual",
	}

	expected := "vault vault-1: key fingerprint fp-actual does not match stored fingerprint fp-expected"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !errors.Is(err, ErrKeyIntegrityViolation) {
		t.Error("errors.Is() should match ErrKeyIntegrityViolation")
	}
	if errors.Is(err, ErrDecryptionFailed) {
		t.Error("errors.Is() should not match ErrDecryptionFailed")
	}
}

func TestSenderMismatchError(t *testing.T) {
	err := &SenderMismatchError{
		Expected: "fp-alice",
		Declared: "fp-mallory",
	}

	expected := "share declares sender fp-mallory, expected fp-alice"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !errors.Is(err, ErrSenderMismatch) {
		t.Error("errors.Is() should match ErrSenderMismatch")
	}
}

func TestSignatureVerificationError(t *testing.T) {
	err := &SignatureVerificationError{Message: "share transcript"}

	expected := "signature verification failed: share transcript"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !errors.Is(err, ErrSignatureInvalid) {
		t.Error("errors.Is() should match ErrSignatureInvalid")
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Errors: []string{"userId is required", "salt is required"}}

	expected := "validation failed: userId is required; salt is required"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}
}

func TestWrapError_DecryptionFailed(t *testing.T) {
	wrapped := wrapError(fmt.Errorf("open: %w", crypto.ErrDecryptionFailed))

	if !errors.Is(wrapped, ErrDecryptionFailed) {
		t.Error("wrapped error should match ErrDecryptionFailed")
	}
}

func TestWrapError_InvalidEnvelope(t *testing.T) {
	internal := []error{
		crypto.ErrInvalidEnvelope,
		crypto.ErrInvalidAlgorithm,
		crypto.ErrInvalidSaltSize,
	}

	for _, err := range internal {
		wrapped := wrapError(err)
		if !errors.Is(wrapped, ErrInvalidEnvelope) {
			t.Errorf("wrapError(%v) should match ErrInvalidEnvelope", err)
		}
	}
}

func TestWrapError_InvalidPublicKey(t *testing.T) {
	internal := []error{
		crypto.ErrInvalidPublicKey,
		crypto.ErrInvalidPublicKeySize,
	}

	for _, err := range internal {
		wrapped := wrapError(err)
		if !errors.Is(wrapped, ErrInvalidPublicKey) {
			t.Errorf("wrapError(%v) should match ErrInvalidPublicKey", err)
		}
	}
}

func TestWrapError_SignatureVerification(t *testing.T) {
	wrapped := wrapError(crypto.ErrSignatureVerificationFailed)

	var sigErr *SignatureVerificationError
	if !errors.As(wrapped, &sigErr) {
		t.Fatal("wrapError should convert to public SignatureVerificationError")
	}
	if !errors.Is(wrapped, ErrSignatureInvalid) {
		t.Error("wrapped error should match ErrSignatureInvalid")
	}
}

func TestWrapError_PassesThroughOther(t *testing.T) {
	originalErr := errors.New("some other error")

	wrapped := wrapError(originalErr)

	if wrapped != originalErr {
		t.Error("wrapError should pass through unrelated errors unchanged")
	}
}

func TestWrapError_NilReturnsNil(t *testing.T) {
	if wrapError(nil) != nil {
		t.Error("wrapError(nil) should return nil")
	}
}

func TestErrorChain_CanUnwrapToSentinel(t *testing.T) {
	inner := &DecryptionError{Op: "open share"}
	doubleWrapped := fmt.Errorf("receive failed: %w", inner)

	if !errors.Is(doubleWrapped, ErrDecryptionFailed) {
		t.Error("double-wrapped error should still match ErrDecryptionFailed")
	}

	var target *DecryptionError
	if !errors.As(doubleWrapped, &target) {
		t.Fatal("errors.As should recover the DecryptionError")
	}
	if target.Op != "open share" {
		t.Errorf("Op = %s, want 'open share'", target.Op)
	}
}

func TestStrongboxError_Marker(t *testing.T) {
	structured := []error{
		&DecryptionError{Op: "x"},
		&KeyIntegrityError{},
		&SenderMismatchError{},
		&SignatureVerificationError{},
		&ValidationError{Errors: []string{"x"}},
	}

	for _, err := range structured {
		if _, ok := err.(StrongboxError); !ok {
			t.Errorf("%T should implement StrongboxError", err)
		}
	}
}
