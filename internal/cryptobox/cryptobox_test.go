package cryptobox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

const testKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=" // 32 raw bytes, base64

func TestEncryptDecryptRoundTrip(t *testing.T) {
	ciphertext, err := Encrypt("super-secret-api-key", testKey)
	require.NoError(t, err)

	plain, err := Decrypt(ciphertext, testKey)
	require.NoError(t, err)
	require.Equal(t, "super-secret-api-key", plain)
}

func TestDecryptTamperedByteFails(t *testing.T) {
	ciphertext, err := Encrypt("hello world", testKey)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = Decrypt(tampered, testKey)
	require.Error(t, err)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	ciphertext, err := Encrypt("hello world", testKey)
	require.NoError(t, err)

	otherKey := base64.StdEncoding.EncodeToString(make([]byte, 32))
	_, err = Decrypt(ciphertext, otherKey)
	require.Error(t, err)
}

func TestDecryptMalformedInputFails(t *testing.T) {
	_, err := Decrypt("not-base64!!", testKey)
	require.Error(t, err)

	_, err = Decrypt(base64.StdEncoding.EncodeToString([]byte("short")), testKey)
	require.Error(t, err)
}
