package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
)

// KEMKeypair is an ML-KEM-768 keypair for key encapsulation.
type KEMKeypair struct {
	// PublicKey is the raw ML-KEM-768 public key bytes.
	PublicKey []byte
	// SecretKey is the raw ML-KEM-768 secret key bytes.
	SecretKey []byte
}

// GenerateKEMKeypair creates a new ML-KEM-768 keypair.
func GenerateKEMKeypair() (*KEMKeypair, error) {
	pub, priv, err := mlkem768.GenerateKeyPair(randReader)
	if err != nil {
		return nil, err
	}

	// MarshalBinary never fails for valid keys from GenerateKeyPair
	pubBytes, _ := pub.MarshalBinary()
	privBytes, _ := priv.MarshalBinary()

	return &KEMKeypair{
		PublicKey: pubBytes,
		SecretKey: privBytes,
	}, nil
}

// KEMKeypairFromSecretKey reconstructs a keypair from the secret key.
// The public key is embedded in the secret key at offset 1152.
func KEMKeypairFromSecretKey(secretKey []byte) (*KEMKeypair, error) {
	if len(secretKey) != MLKEMSecretKeySize {
		return nil, ErrInvalidSecretKeySize
	}

	publicKey := make([]byte, MLKEMPublicKeySize)
	copy(publicKey, secretKey[KEMPublicKeyOffset:KEMPublicKeyOffset+MLKEMPublicKeySize])

	return &KEMKeypair{
		PublicKey: publicKey,
		SecretKey: secretKey,
	}, nil
}

// Encapsulate draws a fresh shared secret for the recipient's public key.
// Returns the KEM ciphertext to transmit alongside the payload and the
// 32-byte shared secret to feed into key derivation.
func Encapsulate(recipientPublicKey []byte) (ctKem, sharedSecret []byte, err error) {
	if len(recipientPublicKey) != MLKEMPublicKeySize {
		return nil, nil, ErrInvalidPublicKeySize
	}

	var pub mlkem768.PublicKey
	if err := pub.Unpack(recipientPublicKey); err != nil {
		return nil, nil, fmt.Errorf("unpack public key: %w", err)
	}

	seed, err := RandomBytes(mlkem768.EncapsulationSeedSize)
	if err != nil {
		return nil, nil, err
	}

	ctKem = make([]byte, MLKEMCiphertextSize)
	sharedSecret = make([]byte, MLKEMSharedKeySize)
	pub.EncapsulateTo(ctKem, sharedSecret, seed)

	return ctKem, sharedSecret, nil
}

// Decapsulate recovers the shared secret from a KEM ciphertext.
func (k *KEMKeypair) Decapsulate(ctKem []byte) ([]byte, error) {
	if len(ctKem) != MLKEMCiphertextSize {
		return nil, ErrInvalidCiphertextSize
	}

	var priv mlkem768.PrivateKey
	if err := priv.Unpack(k.SecretKey); err != nil {
		return nil, fmt.Errorf("unpack private key: %w", err)
	}

	sharedSecret := make([]byte, MLKEMSharedKeySize)
	priv.DecapsulateTo(sharedSecret, ctKem)

	return sharedSecret, nil
}

// SigKeypair is an ML-DSA-65 keypair for signing share payloads.
type SigKeypair struct {
	// PublicKey is the raw ML-DSA-65 public key bytes.
	PublicKey []byte
	// SecretKey is the raw ML-DSA-65 secret key bytes.
	SecretKey []byte
}

// GenerateSigKeypair creates a new ML-DSA-65 signing keypair.
func GenerateSigKeypair() (*SigKeypair, error) {
	pub, priv, err := mldsa65.GenerateKey(randReader)
	if err != nil {
		return nil, err
	}

	pubBytes, _ := pub.MarshalBinary()
	privBytes, _ := priv.MarshalBinary()

	return &SigKeypair{
		PublicKey: pubBytes,
		SecretKey: privBytes,
	}, nil
}

// Sign signs message with an ML-DSA-65 secret key.
func Sign(secretKey, message []byte) ([]byte, error) {
	if len(secretKey) != MLDSASecretKeySize {
		return nil, ErrInvalidSecretKeySize
	}

	sk := &mldsa65.PrivateKey{}
	if err := sk.UnmarshalBinary(secretKey); err != nil {
		return nil, fmt.Errorf("unmarshal signing key: %w", err)
	}

	sig := make([]byte, MLDSASignatureSize)
	if err := mldsa65.SignTo(sk, message, nil, false, sig); err != nil {
		return nil, fmt.Errorf("sign transcript: %w", err)
	}

	return sig, nil
}

// Verify verifies an ML-DSA-65 signature over message.
func Verify(publicKey, message, signature []byte) error {
	if len(publicKey) != MLDSAPublicKeySize {
		return ErrInvalidPublicKeySize
	}

	pk := &mldsa65.PublicKey{}
	if err := pk.UnmarshalBinary(publicKey); err != nil {
		return fmt.Errorf("failed to parse public key: %w", err)
	}

	if !mldsa65.Verify(pk, message, nil, signature) {
		return ErrSignatureVerificationFailed
	}

	return nil
}

// DerivePQShareKey performs HKDF-SHA-512 key derivation for the
// post-quantum sharing scheme.
//
// The key derivation uses:
//   - IKM (input key material): the KEM shared secret
//   - Salt: SHA-256 hash of the KEM ciphertext
//   - Info: context string || AAD length (4 bytes BE) || AAD
//
// This produces a 256-bit key suitable for AES-256-GCM.
func DerivePQShareKey(sharedSecret, aad, ctKem []byte) ([]byte, error) {
	saltHash := sha256.Sum256(ctKem)

	contextBytes := []byte(PQShareContext)
	aadLength := make([]byte, 4)
	binary.BigEndian.PutUint32(aadLength, uint32(len(aad)))

	info := make([]byte, 0, len(contextBytes)+4+len(aad))
	info = append(info, contextBytes...)
	info = append(info, aadLength...)
	info = append(info, aad...)

	return DeriveKey(sharedSecret, saltHash[:], info, AESKeySize)
}

// BuildPQTranscript constructs the byte string a sender signs and a
// recipient verifies. Sender and recipient must build it identically.
func BuildPQTranscript(version int, suite string, ctKem, iv, aad, ciphertext, senderSigPk []byte) []byte {
	// version (1 byte)
	transcript := []byte{byte(version)}

	transcript = append(transcript, []byte(suite)...)
	transcript = append(transcript, []byte(PQShareContext)...)

	// raw bytes
	transcript = append(transcript, ctKem...)
	transcript = append(transcript, iv...)
	transcript = append(transcript, aad...)
	transcript = append(transcript, ciphertext...)
	transcript = append(transcript, senderSigPk...)

	return transcript
}
