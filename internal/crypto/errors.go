package crypto

import "errors"

var (
	// ErrDecryptionFailed is returned when authenticated decryption fails.
	// Wrong key and tampered ciphertext are deliberately indistinguishable.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidKeySize is returned when a symmetric key size is invalid.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidNonceSize is returned when the IV/nonce size is invalid.
	ErrInvalidNonceSize = errors.New("invalid nonce size")

	// ErrInvalidSaltSize is returned when a derivation salt size is invalid.
	ErrInvalidSaltSize = errors.New("invalid salt size")

	// ErrInvalidEnvelope is returned when an envelope is structurally
	// invalid: malformed JSON, missing fields, or undecodable encoding.
	ErrInvalidEnvelope = errors.New("invalid envelope")

	// ErrInvalidAlgorithm is returned when an envelope carries an
	// unrecognized or unsupported algorithm tag.
	ErrInvalidAlgorithm = errors.New("invalid algorithm")

	// ErrInvalidPublicKeySize is returned when a public key size is invalid.
	ErrInvalidPublicKeySize = errors.New("invalid public key size")

	// ErrInvalidPublicKey is returned when public key bytes do not decode
	// to a valid key (for example, a point not on the curve).
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrInvalidSecretKeySize is returned when a secret key size is invalid.
	ErrInvalidSecretKeySize = errors.New("invalid secret key size")

	// ErrInvalidCiphertextSize is returned when a KEM ciphertext size is invalid.
	ErrInvalidCiphertextSize = errors.New("invalid ciphertext size")

	// ErrSignatureVerificationFailed is returned when signature verification fails.
	ErrSignatureVerificationFailed = errors.New("signature verification failed")
)
