package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if len(key) != AESKeySize {
		t.Errorf("key length = %d, want %d", len(key), AESKeySize)
	}

	other, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(key, other) {
		t.Error("two generated keys are identical")
	}
}

func TestWrapUnwrapKey(t *testing.T) {
	kek := testKey(0x61)

	vaultKey, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	env, err := WrapKey(kek, vaultKey)
	if err != nil {
		t.Fatalf("WrapKey() error = %v", err)
	}

	unwrapped, err := UnwrapKey(kek, env)
	if err != nil {
		t.Fatalf("UnwrapKey() error = %v", err)
	}

	if !bytes.Equal(unwrapped, vaultKey) {
		t.Error("unwrapped key differs from original")
	}
}

func TestUnwrapKey_WrongKEK(t *testing.T) {
	vaultKey, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	env, err := WrapKey(testKey(0x62), vaultKey)
	if err != nil {
		t.Fatal(err)
	}

	_, err = UnwrapKey(testKey(0x63), env)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestUnwrapKey_NotAKey(t *testing.T) {
	kek := testKey(0x64)

	// A validly sealed envelope whose plaintext is not key-sized.
	env, err := Seal(kek, []byte("definitely not 32 bytes long..."))
	if err != nil {
		t.Fatal(err)
	}

	_, err = UnwrapKey(kek, env)
	if !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("expected ErrInvalidKeySize, got %v", err)
	}
}

func TestWrappedKey_FingerprintSurvivesRoundTrip(t *testing.T) {
	kek := testKey(0x65)

	vaultKey, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	fp := Fingerprint(vaultKey)

	env, err := WrapKey(kek, vaultKey)
	if err != nil {
		t.Fatal(err)
	}
	unwrapped, err := UnwrapKey(kek, env)
	if err != nil {
		t.Fatal(err)
	}

	if !VerifyKeyFingerprint(unwrapped, fp) {
		t.Error("fingerprint mismatch after wrap/unwrap round trip")
	}
}
