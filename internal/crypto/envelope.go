package crypto

import (
	"encoding/json"
	"fmt"
)

// Envelope is the self-describing ciphertext container persisted and
// transmitted by the vault. A decrypting party learns the algorithm and,
// for password-derived envelopes, the salt from the envelope itself.
type Envelope struct {
	// Data is the ciphertext with appended GCM tag, standard base64.
	Data string `json:"data"`
	// IV is the 12-byte GCM nonce, standard base64. Unique per encryption
	// call under a given key; reuse is a correctness violation.
	IV string `json:"iv"`
	// Algorithm identifies the AEAD. Always "AES-GCM".
	Algorithm string `json:"algorithm"`
	// Salt is the PBKDF2 salt for password-derived envelopes, standard base64.
	Salt string `json:"salt,omitempty"`
	// KeyDerivation names the KDF for password-derived envelopes ("PBKDF2").
	KeyDerivation string `json:"keyDerivation,omitempty"`
}

// Seal encrypts plaintext under key with a freshly drawn IV. Callers never
// supply their own IV.
func Seal(key, plaintext []byte) (*Envelope, error) {
	iv, err := RandomBytes(AESNonceSize)
	if err != nil {
		return nil, err
	}

	ciphertext, err := EncryptAESGCM(key, iv, nil, plaintext)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Data:      ToBase64(ciphertext),
		IV:        ToBase64(iv),
		Algorithm: AlgorithmAESGCM,
	}, nil
}

// SealWithSalt encrypts plaintext under a password-derived key and records
// the derivation salt and KDF tag, so the envelope can later be opened from
// the password alone.
func SealWithSalt(key, salt, plaintext []byte) (*Envelope, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidSaltSize, len(salt), SaltSize)
	}

	env, err := Seal(key, plaintext)
	if err != nil {
		return nil, err
	}

	env.Salt = ToBase64(salt)
	env.KeyDerivation = KeyDerivationPBKDF2
	return env, nil
}

// Open decrypts the envelope under key. Structural defects and
// authentication failures both abort the open; only the sentinel
// distinguishes them, never the plaintext.
func Open(env *Envelope, key []byte) ([]byte, error) {
	if env == nil {
		return nil, ErrInvalidEnvelope
	}

	if env.Algorithm != AlgorithmAESGCM {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAlgorithm, env.Algorithm)
	}

	iv, err := FromBase64(env.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable iv", ErrInvalidEnvelope)
	}

	ciphertext, err := FromBase64(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable data", ErrInvalidEnvelope)
	}

	return DecryptAESGCM(key, iv, nil, ciphertext)
}

// SaltBytes decodes the envelope's salt field. Returns ErrInvalidSaltSize
// when the envelope carries no salt or one of the wrong length.
func (e *Envelope) SaltBytes() ([]byte, error) {
	if e.Salt == "" {
		return nil, fmt.Errorf("%w: envelope has no salt", ErrInvalidSaltSize)
	}

	salt, err := FromBase64(e.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable salt", ErrInvalidEnvelope)
	}

	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidSaltSize, len(salt), SaltSize)
	}

	return salt, nil
}

// Encode marshals the envelope to compact JSON, the form embedded in stored
// vault records.
func (e *Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

// DecodeEnvelope parses envelope JSON and checks the required fields are
// present. It does not verify the ciphertext; that happens on Open.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	if env.Data == "" || env.IV == "" || env.Algorithm == "" {
		return nil, fmt.Errorf("%w: missing required fields", ErrInvalidEnvelope)
	}

	return &env, nil
}
