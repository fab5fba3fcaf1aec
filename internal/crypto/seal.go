package crypto

import (
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	sealedBoxVersion = 1
	sealedBoxKDF     = "argon2id"

	// SealedSaltSize is the Argon2id salt length for sealed boxes.
	SealedSaltSize = 16
)

// Argon2Params control passphrase stretching for sealed boxes. The chosen
// parameters are recorded inside the box, so opening honors whatever the
// sealer used.
type Argon2Params struct {
	Time     uint32
	MemoryKB uint32
	Threads  uint8
}

// DefaultArgon2Params returns the sealing defaults.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: 2, MemoryKB: 64 * 1024, Threads: 1}
}

// SealedBox is the passphrase-sealed container for local keystore files.
// Unlike Envelope it is local-only — no other implementation reads it — so
// it uses a memory-hard KDF instead of the interop-pinned PBKDF2, and
// XChaCha20-Poly1305 instead of AES-GCM.
type SealedBox struct {
	Version     int    `json:"version"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdfTime"`
	KDFMemoryKB uint32 `json:"kdfMemoryKB"`
	KDFThreads  uint8  `json:"kdfThreads"`
	// Salt is the Argon2id salt, standard base64.
	Salt string `json:"salt"`
	// Nonce is the 24-byte XChaCha20 nonce, standard base64.
	Nonce string `json:"nonce"`
	// Data is the ciphertext with appended tag, standard base64.
	Data string `json:"data"`
}

// SealBox encrypts plaintext under a passphrase using Argon2id and
// XChaCha20-Poly1305. A zero-value params selects the defaults.
func SealBox(passphrase string, plaintext []byte, params Argon2Params) (*SealedBox, error) {
	if params.Time == 0 || params.MemoryKB == 0 || params.Threads == 0 {
		params = DefaultArgon2Params()
	}

	salt, err := RandomBytes(SealedSaltSize)
	if err != nil {
		return nil, err
	}

	key := argon2.IDKey([]byte(passphrase), salt, params.Time, params.MemoryKB, params.Threads, chacha20poly1305.KeySize)
	defer Zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	nonce, err := RandomBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	return &SealedBox{
		Version:     sealedBoxVersion,
		KDF:         sealedBoxKDF,
		KDFTime:     params.Time,
		KDFMemoryKB: params.MemoryKB,
		KDFThreads:  params.Threads,
		Salt:        ToBase64(salt),
		Nonce:       ToBase64(nonce),
		Data:        ToBase64(ciphertext),
	}, nil
}

// OpenBox decrypts a sealed box with the passphrase. Format defects
// surface as ErrInvalidEnvelope; a wrong passphrase, like any tampering,
// surfaces as ErrDecryptionFailed.
func OpenBox(passphrase string, box *SealedBox) ([]byte, error) {
	if box == nil || box.Version != sealedBoxVersion || box.KDF != sealedBoxKDF {
		return nil, ErrInvalidEnvelope
	}

	if box.KDFTime == 0 || box.KDFMemoryKB == 0 || box.KDFThreads == 0 {
		return nil, ErrInvalidEnvelope
	}

	salt, err := FromBase64(box.Salt)
	if err != nil || len(salt) != SealedSaltSize {
		return nil, ErrInvalidEnvelope
	}

	nonce, err := FromBase64(box.Nonce)
	if err != nil || len(nonce) != chacha20poly1305.NonceSizeX {
		return nil, ErrInvalidEnvelope
	}

	ciphertext, err := FromBase64(box.Data)
	if err != nil {
		return nil, ErrInvalidEnvelope
	}

	key := argon2.IDKey([]byte(passphrase), salt, box.KDFTime, box.KDFMemoryKB, box.KDFThreads, chacha20poly1305.KeySize)
	defer Zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}
