package utils

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestKey(t *testing.T) {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(key))
}

func TestEncryptDecrypt(t *testing.T) {
	setTestKey(t)

	ciphertext, err := Encrypt("hello parley")
	require.NoError(t, err)
	assert.NotEqual(t, "hello parley", ciphertext)

	plaintext, err := Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "hello parley", plaintext)
}

func TestEncryptEmptyPassthrough(t *testing.T) {
	setTestKey(t)

	out, err := Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDecryptGarbage(t *testing.T) {
	setTestKey(t)

	_, err := Decrypt("definitely-not-base64!!")
	assert.Error(t, err)

	_, err = Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestGetEncryptionKeyValidation(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "")
	_, err := GetEncryptionKey()
	assert.Error(t, err)

	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString([]byte("too-short")))
	_, err = GetEncryptionKey()
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)

	ok, err := VerifyPassword("s3cret-password", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("anything", "not-a-hash")
	assert.Error(t, err)
}
