package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func testKey(b byte) []byte {
	key := make([]byte, AESKeySize)
	for i := range key {
		key[i] = b
	}
	return key
}

func testIV(b byte) []byte {
	iv := make([]byte, AESNonceSize)
	for i := range iv {
		iv[i] = b
	}
	return iv
}

func TestEncryptAESGCM_RoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		plaintext []byte
		aad       []byte
	}{
		{"simple text", []byte("hello, vault"), nil},
		{"empty plaintext", []byte{}, nil},
		{"binary data", []byte{0x00, 0xff, 0x10, 0x80, 0x7f}, nil},
		{"with aad", []byte("shared payload"), []byte("sender:recipient")},
		{"large payload", bytes.Repeat([]byte("entry"), 4096), nil},
	}

	key := testKey(0x42)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := testIV(0x17)

			ciphertext, err := EncryptAESGCM(key, iv, tt.aad, tt.plaintext)
			if err != nil {
				t.Fatalf("EncryptAESGCM() error = %v", err)
			}

			if len(ciphertext) != len(tt.plaintext)+AESTagSize {
				t.Errorf("ciphertext length = %d, want %d", len(ciphertext), len(tt.plaintext)+AESTagSize)
			}

			plaintext, err := DecryptAESGCM(key, iv, tt.aad, ciphertext)
			if err != nil {
				t.Fatalf("DecryptAESGCM() error = %v", err)
			}

			if !bytes.Equal(plaintext, tt.plaintext) {
				t.Errorf("round trip mismatch: got %q, want %q", plaintext, tt.plaintext)
			}
		})
	}
}

func TestEncryptAESGCM_InvalidSizes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		key     []byte
		iv      []byte
		wantErr error
	}{
		{"short key", make([]byte, 16), testIV(0), ErrInvalidKeySize},
		{"long key", make([]byte, 64), testIV(0), ErrInvalidKeySize},
		{"empty key", nil, testIV(0), ErrInvalidKeySize},
		{"short iv", testKey(0), make([]byte, 8), ErrInvalidNonceSize},
		{"long iv", testKey(0), make([]byte, 16), ErrInvalidNonceSize},
		{"empty iv", testKey(0), nil, ErrInvalidNonceSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncryptAESGCM(tt.key, tt.iv, nil, []byte("data"))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("EncryptAESGCM() error = %v, want %v", err, tt.wantErr)
			}

			_, err = DecryptAESGCM(tt.key, tt.iv, nil, make([]byte, AESTagSize+4))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecryptAESGCM() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecryptAESGCM_WrongKey(t *testing.T) {
	t.Parallel()
	iv := testIV(0x01)

	ciphertext, err := EncryptAESGCM(testKey(0xaa), iv, nil, []byte("secret entry"))
	if err != nil {
		t.Fatal(err)
	}

	_, err = DecryptAESGCM(testKey(0xbb), iv, nil, ciphertext)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecryptAESGCM_WrongAAD(t *testing.T) {
	t.Parallel()
	key := testKey(0x33)
	iv := testIV(0x02)

	ciphertext, err := EncryptAESGCM(key, iv, []byte("alice:bob"), []byte("payload"))
	if err != nil {
		t.Fatal(err)
	}

	_, err = DecryptAESGCM(key, iv, []byte("mallory:bob"), ciphertext)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

// Flipping any single bit of ciphertext or IV must make decryption fail;
// it must never yield wrong plaintext.
func TestDecryptAESGCM_TamperedBits(t *testing.T) {
	t.Parallel()
	key := testKey(0x55)
	iv := testIV(0x03)
	plaintext := []byte("tamper target")

	ciphertext, err := EncryptAESGCM(key, iv, nil, plaintext)
	if err != nil {
		t.Fatal(err)
	}

	for i := range ciphertext {
		for bit := 0; bit < 8; bit++ {
			tampered := bytes.Clone(ciphertext)
			tampered[i] ^= 1 << bit

			if _, err := DecryptAESGCM(key, iv, nil, tampered); !errors.Is(err, ErrDecryptionFailed) {
				t.Fatalf("ciphertext byte %d bit %d: expected ErrDecryptionFailed, got %v", i, bit, err)
			}
		}
	}

	for i := range iv {
		for bit := 0; bit < 8; bit++ {
			tamperedIV := bytes.Clone(iv)
			tamperedIV[i] ^= 1 << bit

			if _, err := DecryptAESGCM(key, tamperedIV, nil, ciphertext); !errors.Is(err, ErrDecryptionFailed) {
				t.Fatalf("iv byte %d bit %d: expected ErrDecryptionFailed, got %v", i, bit, err)
			}
		}
	}
}

func TestDecryptAESGCM_TooShort(t *testing.T) {
	t.Parallel()
	_, err := DecryptAESGCM(testKey(0), testIV(0), nil, make([]byte, AESTagSize-1))
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func BenchmarkEncryptAESGCM(b *testing.B) {
	key := testKey(0x42)
	iv := testIV(0x01)
	plaintext := bytes.Repeat([]byte("x"), 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EncryptAESGCM(key, iv, nil, plaintext); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecryptAESGCM(b *testing.B) {
	key := testKey(0x42)
	iv := testIV(0x01)
	ciphertext, _ := EncryptAESGCM(key, iv, nil, bytes.Repeat([]byte("x"), 1024))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecryptAESGCM(key, iv, nil, ciphertext); err != nil {
			b.Fatal(err)
		}
	}
}
