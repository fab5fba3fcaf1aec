package crypto

const (
	// AESKeySize is the size of an AES-256 key in bytes.
	AESKeySize = 32
	// AESNonceSize is the size of an AES-GCM nonce in bytes.
	AESNonceSize = 12
	// AESTagSize is the size of an AES-GCM authentication tag in bytes.
	AESTagSize = 16

	// SaltSize is the size of a master-key derivation salt in bytes.
	SaltSize = 32
	// PBKDF2Iterations is the fixed PBKDF2 iteration count. Interoperating
	// implementations must match it exactly.
	PBKDF2Iterations = 100_000

	// P256PublicKeySize is the size of an uncompressed P-256 point in bytes.
	P256PublicKeySize = 65
	// P256PrivateKeySize is the size of a P-256 private scalar in bytes.
	P256PrivateKeySize = 32

	// MLKEMPublicKeySize is the size of an ML-KEM-768 public key in bytes.
	MLKEMPublicKeySize = 1184
	// MLKEMSecretKeySize is the size of an ML-KEM-768 secret key in bytes.
	MLKEMSecretKeySize = 2400
	// MLKEMCiphertextSize is the size of an ML-KEM-768 ciphertext in bytes.
	MLKEMCiphertextSize = 1088
	// MLKEMSharedKeySize is the size of the shared secret from ML-KEM-768 in bytes.
	MLKEMSharedKeySize = 32

	// MLDSAPublicKeySize is the size of an ML-DSA-65 public key in bytes.
	MLDSAPublicKeySize = 1952
	// MLDSASecretKeySize is the size of an ML-DSA-65 secret key in bytes.
	MLDSASecretKeySize = 4032
	// MLDSASignatureSize is the size of an ML-DSA-65 signature in bytes.
	MLDSASignatureSize = 3309

	// KEMPublicKeyOffset is the byte offset where the public key is embedded
	// within an ML-KEM-768 secret key.
	KEMPublicKeyOffset = 1152

	// AlgorithmAESGCM is the envelope algorithm tag for AES-256-GCM.
	AlgorithmAESGCM = "AES-GCM"
	// KeyDerivationPBKDF2 is the envelope tag for password-derived keys.
	KeyDerivationPBKDF2 = "PBKDF2"

	// ECDHContext is the HKDF info string for pairwise share keys, providing
	// domain separation from other uses of the same ECDH secret.
	ECDHContext = "strongbox:ecdh:v1"
	// PQShareContext is the HKDF info string for post-quantum share keys.
	PQShareContext = "strongbox:pqshare:v1"

	// PQSuite is the canonical string representation of the post-quantum
	// sharing algorithm suite.
	PQSuite = "ML-KEM-768:ML-DSA-65:AES-256-GCM:HKDF-SHA-512"
)
