// Package vault provides AES-256-GCM encryption/decryption for sensitive
// overlay values.
//
// Encrypted strings are prefixed with "$INVVAULT;" so they can be
// identified. Use the vault sub-command or the Encrypt helper to produce
// encrypted values, then store them in host_vars or group_vars documents.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Prefix identifies vault-encrypted strings.
const Prefix = "$INVVAULT;"

const (
	saltSize   = 16
	iterations = 600_000
)

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, 32, sha256.New)
}

// Encrypt encrypts plaintext with AES-256-GCM using a key derived from the
// given password via PBKDF2 with a random per-value salt. The result is
// prefixed with Prefix so it can later be identified and decrypted.
func Encrypt(plaintext, password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	payload := append(append(salt, nonce...), sealed...)
	return Prefix + base64.StdEncoding.EncodeToString(payload), nil
}

// Decrypt decrypts a vault-encrypted string. If the string does not start
// with Prefix it is returned unchanged (pass-through for plain values).
func Decrypt(ciphertext, password string) (string, error) {
	if !strings.HasPrefix(ciphertext, Prefix) {
		return ciphertext, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ciphertext, Prefix))
	if err != nil {
		return "", fmt.Errorf("vault decode: %w", err)
	}
	if len(data) < saltSize {
		return "", fmt.Errorf("vault: ciphertext too short")
	}
	salt, data := data[:saltSize], data[saltSize:]
	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	ns := gcm.NonceSize()
	if len(data) < ns {
		return "", fmt.Errorf("vault: ciphertext too short")
	}
	plain, err := gcm.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("vault decrypt: %w", err)
	}
	return string(plain), nil
}

// IsEncrypted reports whether s is vault-encrypted.
func IsEncrypted(s string) bool {
	return strings.HasPrefix(s, Prefix)
}

// LoadPassword reads the vault password from a file, trimming whitespace.
func LoadPassword(file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading vault password file %q: %w", file, err)
	}
	return strings.TrimSpace(string(data)), nil
}
