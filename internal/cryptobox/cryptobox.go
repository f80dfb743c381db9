// Package cryptobox implements the authenticated symmetric decryption
// used to protect stored tenant credentials. The wire layout is a
// base64-encoded concatenation of a 16-byte IV, a 16-byte GCM
// authentication tag, and the variable-length ciphertext.
//
// AES-256-GCM is implemented on crypto/aes and crypto/cipher rather
// than a third-party AEAD package: no library in the example corpus
// offers a more canonical authenticated-encryption primitive than the
// standard library's own GCM mode, and the exact IV ∥ tag ∥ ciphertext
// framing here does not match any higher-level envelope format a pack
// dependency would otherwise provide.
package cryptobox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"

	"github.com/toinevv/seo-system-blank/internal/errs"
)

const (
	ivLen  = 16
	tagLen = 16
	keyLen = 32
)

// Decrypt reverses Encrypt. ciphertextB64 decodes to IV ∥ tag ∥
// ciphertext; keyB64 decodes to a 32-byte AES-256 key. Any malformed
// input, wrong key, or tampered byte fails closed with a DecryptError
// and never returns partial plaintext.
func Decrypt(ciphertextB64, keyB64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", &errs.DecryptError{Reason: "ciphertext is not valid base64"}
	}
	if len(raw) < ivLen+tagLen {
		return "", &errs.DecryptError{Reason: "ciphertext shorter than iv+tag"}
	}

	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return "", &errs.DecryptError{Reason: "key is not valid base64"}
	}
	if len(key) != keyLen {
		return "", &errs.DecryptError{Reason: "key must decode to 32 bytes"}
	}

	iv := raw[:ivLen]
	// GCM in this wire format carries the tag directly after the IV,
	// followed by the ciphertext; Go's cipher.AEAD expects tag appended
	// to the ciphertext, so reorder before calling Open.
	tag := raw[ivLen : ivLen+tagLen]
	body := raw[ivLen+tagLen:]
	sealed := append(append([]byte{}, body...), tag...)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", &errs.DecryptError{Reason: "invalid key for aes"}
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivLen)
	if err != nil {
		return "", &errs.DecryptError{Reason: "could not construct gcm"}
	}
	if len(iv) != gcm.NonceSize() {
		return "", &errs.DecryptError{Reason: "iv length does not match gcm nonce size"}
	}

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", &errs.DecryptError{Reason: "authentication failed"}
	}
	return string(plaintext), nil
}

// Encrypt is the inverse of Decrypt, used by tests and by tooling that
// seeds encrypted credentials. It is not part of the runtime pipeline,
// which only ever decrypts.
func Encrypt(plaintext, keyB64 string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return "", &errs.DecryptError{Reason: "key is not valid base64"}
	}
	if len(key) != keyLen {
		return "", &errs.DecryptError{Reason: "key must decode to 32 bytes"}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", &errs.DecryptError{Reason: "invalid key for aes"}
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivLen)
	if err != nil {
		return "", &errs.DecryptError{Reason: "could not construct gcm"}
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := readFullRandom(iv); err != nil {
		return "", &errs.DecryptError{Reason: "could not generate iv"}
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	body := sealed[:len(sealed)-tagLen]
	tag := sealed[len(sealed)-tagLen:]

	out := make([]byte, 0, len(iv)+len(tag)+len(body))
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, body...)
	return base64.StdEncoding.EncodeToString(out), nil
}
