package strongbox

import (
	"fmt"

	"github.com/strongboxhq/strongbox-go/internal/crypto"
)

// Envelope is the portable form of an encrypted payload: ciphertext plus the
// parameters needed to decrypt it, minus the key. Share payloads and exported
// keypairs embed envelopes as JSON objects; stored vault records carry the
// same structure base64-encoded in their encryptedData and encryptedKey
// fields.
//
// All fields are base64 (standard alphabet, padded).
type Envelope struct {
	// Data is the ciphertext with the 16-byte GCM tag appended.
	Data string `json:"data"`
	// IV is the 12-byte nonce, generated fresh for every encryption.
	IV string `json:"iv"`
	// Algorithm identifies the cipher. Always "AES-GCM".
	Algorithm string `json:"algorithm"`
	// Salt is set only on password-derived envelopes.
	Salt string `json:"salt,omitempty"`
	// KeyDerivation is "PBKDF2" when Salt is set.
	KeyDerivation string `json:"keyDerivation,omitempty"`
}

// EncryptWithPassword seals data under a key derived directly from the
// password, with a fresh salt recorded in the envelope alongside the KDF
// name. The result is self-describing: it can be opened from the password
// alone, with no master key or keystore involved. This is the portable form
// for payloads that travel outside any keystore.
func EncryptWithPassword(data []byte, password string) (*Envelope, error) {
	salt, err := crypto.RandomBytes(crypto.SaltSize)
	if err != nil {
		return nil, err
	}

	key, err := crypto.DerivePBKDF2Key([]byte(password), salt)
	if err != nil {
		return nil, wrapError(err)
	}
	defer crypto.Zero(key)

	env, err := crypto.SealWithSalt(key, salt, data)
	if err != nil {
		return nil, wrapError(err)
	}

	return newEnvelope(env), nil
}

// DecryptWithPassword re-derives the key from the password and the
// envelope's embedded salt, then opens the envelope. An envelope without a
// salt is not password-derived and fails with ErrInvalidEnvelope; a wrong
// password and tampered ciphertext both fail with ErrDecryptionFailed.
func DecryptWithPassword(env *Envelope, password string) ([]byte, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: no envelope", ErrInvalidEnvelope)
	}

	ienv := env.internal()
	salt, err := ienv.SaltBytes()
	if err != nil {
		return nil, wrapError(err)
	}

	key, err := crypto.DerivePBKDF2Key([]byte(password), salt)
	if err != nil {
		return nil, wrapError(err)
	}
	defer crypto.Zero(key)

	plaintext, err := crypto.Open(ienv, key)
	if err != nil {
		return nil, &DecryptionError{Op: "decrypt password envelope"}
	}

	return plaintext, nil
}

func (e *Envelope) internal() *crypto.Envelope {
	return &crypto.Envelope{
		Data:          e.Data,
		IV:            e.IV,
		Algorithm:     e.Algorithm,
		Salt:          e.Salt,
		KeyDerivation: e.KeyDerivation,
	}
}

func newEnvelope(env *crypto.Envelope) *Envelope {
	return &Envelope{
		Data:          env.Data,
		IV:            env.IV,
		Algorithm:     env.Algorithm,
		Salt:          env.Salt,
		KeyDerivation: env.KeyDerivation,
	}
}
