package strongbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/strongboxhq/strongbox-go/internal/crypto"
)

func testPQKeyPair(t *testing.T) *PQKeyPair {
	t.Helper()

	kp, err := GeneratePQKeyPair()
	if err != nil {
		t.Fatalf("GeneratePQKeyPair() error = %v", err)
	}
	return kp
}

func TestGeneratePQKeyPair(t *testing.T) {
	kp := testPQKeyPair(t)

	pub := kp.PublicKey()
	if len(pub.KEMKey()) != 1184 {
		t.Errorf("KEM key length = %d, want 1184", len(pub.KEMKey()))
	}
	if len(pub.SigningKey()) != 1952 {
		t.Errorf("signing key length = %d, want 1952", len(pub.SigningKey()))
	}
	if len(pub.Fingerprint()) != 43 {
		t.Errorf("fingerprint length = %d, want 43", len(pub.Fingerprint()))
	}
	if pub.Fingerprint() == pub.SigningFingerprint() {
		t.Error("encapsulation and signing fingerprints should differ")
	}
}

func TestParsePQPublicKey(t *testing.T) {
	kp := testPQKeyPair(t)
	pub := kp.PublicKey()

	parsed, err := ParsePQPublicKey(pub.KEMKey(), pub.SigningKey())
	if err != nil {
		t.Fatalf("ParsePQPublicKey() error = %v", err)
	}
	if parsed.Fingerprint() != pub.Fingerprint() {
		t.Error("fingerprint should survive a parse round trip")
	}

	if _, err := ParsePQPublicKey(make([]byte, 100), pub.SigningKey()); !errors.Is(err, ErrInvalidPublicKey) {
		t.Errorf("ParsePQPublicKey() with bad KEM key error = %v, want ErrInvalidPublicKey", err)
	}
	if _, err := ParsePQPublicKey(pub.KEMKey(), make([]byte, 100)); !errors.Is(err, ErrInvalidPublicKey) {
		t.Errorf("ParsePQPublicKey() with bad signing key error = %v, want ErrInvalidPublicKey", err)
	}
}

func TestSharePQWith_ReceivePQShare(t *testing.T) {
	alice := testPQKeyPair(t)
	bob := testPQKeyPair(t)

	data := []byte("the vault key goes here")
	share, err := SharePQWith(data, alice, bob.PublicKey())
	if err != nil {
		t.Fatalf("SharePQWith() error = %v", err)
	}

	if share.Version != 1 {
		t.Errorf("Version = %d, want 1", share.Version)
	}
	if share.Suite != "ML-KEM-768:ML-DSA-65:AES-256-GCM:HKDF-SHA-512" {
		t.Errorf("Suite = %s", share.Suite)
	}
	if share.SenderKeyID != alice.PublicKey().SigningFingerprint() {
		t.Error("SenderKeyID should be the sender's signing fingerprint")
	}
	if share.RecipientKeyID != bob.Fingerprint() {
		t.Error("RecipientKeyID should be the recipient's encapsulation fingerprint")
	}

	opened, err := ReceivePQShare(share, bob, alice.PublicKey())
	if err != nil {
		t.Fatalf("ReceivePQShare() error = %v", err)
	}
	if !bytes.Equal(opened, data) {
		t.Errorf("ReceivePQShare() = %q, want %q", opened, data)
	}
}

func TestReceivePQShare_SenderMismatch(t *testing.T) {
	alice := testPQKeyPair(t)
	bob := testPQKeyPair(t)
	mallory := testPQKeyPair(t)

	share, err := SharePQWith([]byte("payload"), mallory, bob.PublicKey())
	if err != nil {
		t.Fatalf("SharePQWith() error = %v", err)
	}

	_, err = ReceivePQShare(share, bob, alice.PublicKey())
	if !errors.Is(err, ErrSenderMismatch) {
		t.Errorf("ReceivePQShare() error = %v, want ErrSenderMismatch", err)
	}
}

func TestReceivePQShare_SubstitutedSigningKey(t *testing.T) {
	alice := testPQKeyPair(t)
	bob := testPQKeyPair(t)
	mallory := testPQKeyPair(t)

	share, err := SharePQWith([]byte("payload"), mallory, bob.PublicKey())
	if err != nil {
		t.Fatalf("SharePQWith() error = %v", err)
	}

	// Mallory relabels the share with Alice's fingerprint but the embedded
	// signing key is still her own.
	share.SenderKeyID = alice.PublicKey().SigningFingerprint()

	_, err = ReceivePQShare(share, bob, alice.PublicKey())
	if !errors.Is(err, ErrSenderMismatch) {
		t.Errorf("ReceivePQShare() error = %v, want ErrSenderMismatch", err)
	}
}

func TestReceivePQShare_ForgedSignature(t *testing.T) {
	alice := testPQKeyPair(t)
	bob := testPQKeyPair(t)
	mallory := testPQKeyPair(t)

	share, err := SharePQWith([]byte("payload"), mallory, bob.PublicKey())
	if err != nil {
		t.Fatalf("SharePQWith() error = %v", err)
	}

	// Mallory fully impersonates Alice's identity fields. The signature was
	// still made with her key and cannot verify under Alice's.
	alicePub := alice.PublicKey()
	share.SenderKeyID = alicePub.SigningFingerprint()
	share.SenderSigKey = crypto.ToBase64URL(alicePub.SigningKey())

	_, err = ReceivePQShare(share, bob, alicePub)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("ReceivePQShare() error = %v, want ErrSignatureInvalid", err)
	}
}

func TestReceivePQShare_TamperedCiphertext(t *testing.T) {
	alice := testPQKeyPair(t)
	bob := testPQKeyPair(t)

	share, err := SharePQWith([]byte("payload"), alice, bob.PublicKey())
	if err != nil {
		t.Fatalf("SharePQWith() error = %v", err)
	}

	mutated := []byte(share.Ciphertext)
	if mutated[0] == 'A' {
		mutated[0] = 'B'
	} else {
		mutated[0] = 'A'
	}
	share.Ciphertext = string(mutated)

	// Verification covers the ciphertext, so tampering is caught before any
	// decryption is attempted.
	_, err = ReceivePQShare(share, bob, alice.PublicKey())
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("ReceivePQShare() with tampered ciphertext error = %v, want ErrSignatureInvalid", err)
	}
}

func TestReceivePQShare_WrongRecipient(t *testing.T) {
	alice := testPQKeyPair(t)
	bob := testPQKeyPair(t)
	carol := testPQKeyPair(t)

	share, err := SharePQWith([]byte("payload"), alice, bob.PublicKey())
	if err != nil {
		t.Fatalf("SharePQWith() error = %v", err)
	}

	// The signature is genuine, so carol passes verification, but
	// decapsulation with the wrong key yields a useless shared secret.
	_, err = ReceivePQShare(share, carol, alice.PublicKey())
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("ReceivePQShare() by wrong recipient error = %v, want ErrDecryptionFailed", err)
	}
}

func TestReceivePQShare_UnsupportedVersion(t *testing.T) {
	alice := testPQKeyPair(t)
	bob := testPQKeyPair(t)

	share, err := SharePQWith([]byte("payload"), alice, bob.PublicKey())
	if err != nil {
		t.Fatalf("SharePQWith() error = %v", err)
	}
	share.Version = 2

	_, err = ReceivePQShare(share, bob, alice.PublicKey())
	if !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("ReceivePQShare() error = %v, want ErrInvalidEnvelope", err)
	}
}

func TestSharePQWithMany_FindPQShareForRecipient(t *testing.T) {
	sender := testPQKeyPair(t)
	recipients := []*PQKeyPair{testPQKeyPair(t), testPQKeyPair(t), testPQKeyPair(t)}
	outsider := testPQKeyPair(t)

	publicKeys := make([]*PQPublicKey, len(recipients))
	for i, kp := range recipients {
		publicKeys[i] = kp.PublicKey()
	}

	data := []byte("team vault key")
	shares, err := SharePQWithMany(data, sender, publicKeys)
	if err != nil {
		t.Fatalf("SharePQWithMany() error = %v", err)
	}
	if len(shares) != 3 {
		t.Fatalf("SharePQWithMany() produced %d shares, want 3", len(shares))
	}

	for i, kp := range recipients {
		share, err := FindPQShareForRecipient(shares, kp)
		if err != nil {
			t.Fatalf("FindPQShareForRecipient() for recipient %d error = %v", i, err)
		}
		opened, err := ReceivePQShare(share, kp, sender.PublicKey())
		if err != nil {
			t.Fatalf("ReceivePQShare() for recipient %d error = %v", i, err)
		}
		if !bytes.Equal(opened, data) {
			t.Errorf("recipient %d received %q, want %q", i, opened, data)
		}
	}

	if _, err := FindPQShareForRecipient(shares, outsider); !errors.Is(err, ErrNoMatchingShare) {
		t.Errorf("FindPQShareForRecipient() for outsider error = %v, want ErrNoMatchingShare", err)
	}
}

func TestExportImportPQKeyPair(t *testing.T) {
	mk := testMasterKey(t, "password")
	kp := testPQKeyPair(t)

	exported, err := ExportPQKeyPair(kp, mk)
	if err != nil {
		t.Fatalf("ExportPQKeyPair() error = %v", err)
	}
	if exported.SigPublicKey == "" {
		t.Error("exported signing public key should be set")
	}
	if exported.KEMPrivateKey == nil || exported.SigPrivateKey == nil {
		t.Fatal("exported private key envelopes should be set")
	}

	imported, err := ImportPQKeyPair(exported, mk)
	if err != nil {
		t.Fatalf("ImportPQKeyPair() error = %v", err)
	}
	if imported.Fingerprint() != kp.Fingerprint() {
		t.Error("fingerprint should survive an export/import round trip")
	}

	// The imported identity can both receive and send.
	sender := testPQKeyPair(t)
	share, err := SharePQWith([]byte("check"), sender, imported.PublicKey())
	if err != nil {
		t.Fatalf("SharePQWith() error = %v", err)
	}
	if got, err := ReceivePQShare(share, imported, sender.PublicKey()); err != nil || string(got) != "check" {
		t.Errorf("ReceivePQShare() = %q, %v", got, err)
	}

	reply, err := SharePQWith([]byte("reply"), imported, sender.PublicKey())
	if err != nil {
		t.Fatalf("SharePQWith() from imported identity error = %v", err)
	}
	if got, err := ReceivePQShare(reply, sender, imported.PublicKey()); err != nil || string(got) != "reply" {
		t.Errorf("ReceivePQShare() = %q, %v", got, err)
	}
}

func TestImportPQKeyPair_WrongMasterKey(t *testing.T) {
	mk := testMasterKey(t, "password")
	wrong := testMasterKey(t, "other password")
	kp := testPQKeyPair(t)

	exported, err := ExportPQKeyPair(kp, mk)
	if err != nil {
		t.Fatalf("ExportPQKeyPair() error = %v", err)
	}

	_, err = ImportPQKeyPair(exported, wrong)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("ImportPQKeyPair() error = %v, want ErrDecryptionFailed", err)
	}
}

func TestPQShare_WireFormat(t *testing.T) {
	alice := testPQKeyPair(t)
	bob := testPQKeyPair(t)

	share, err := SharePQWith([]byte("payload"), alice, bob.PublicKey())
	if err != nil {
		t.Fatalf("SharePQWith() error = %v", err)
	}

	raw, err := json.Marshal(share)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	for _, key := range []string{"v", "algs", "ctKem", "iv", "ciphertext", "sig", "senderSigKey", "senderKeyId", "recipientKeyId"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("wire format missing field %q", key)
		}
	}

	// Binary fields are base64url: no padding, no + or /.
	for _, value := range []string{share.CtKem, share.IV, share.Ciphertext, share.Sig, share.SenderSigKey} {
		if strings.ContainsAny(value, "+/=") {
			t.Errorf("wire value %q is not base64url", value[:16])
		}
	}
}
