package crypto

// GenerateKey returns a fresh random 256-bit symmetric key. Each vault gets
// its own independent key from this function.
func GenerateKey() ([]byte, error) {
	return RandomBytes(AESKeySize)
}

// WrapKey encrypts raw key bytes under a key-encryption key, producing the
// envelope persisted as a vault's encryptedKey field.
func WrapKey(kek, raw []byte) (*Envelope, error) {
	return Seal(kek, raw)
}

// UnwrapKey reverses WrapKey. A wrong key-encryption key surfaces as
// ErrDecryptionFailed; a right one that somehow yields a non-key-sized
// plaintext surfaces as ErrInvalidKeySize.
func UnwrapKey(kek []byte, env *Envelope) ([]byte, error) {
	raw, err := Open(env, kek)
	if err != nil {
		return nil, err
	}

	if len(raw) != AESKeySize {
		Zero(raw)
		return nil, ErrInvalidKeySize
	}

	return raw, nil
}
