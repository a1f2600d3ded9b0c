package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"

	"ragchat/internal/domain"
)

const encPrefix = "enc:"

// decryptSecrets replaces "enc:..." values with their plaintext. Values
// without the prefix are left alone. An encrypted value with no passphrase
// is an error: sending ciphertext as a token would only fail later and
// less clearly.
func decryptSecrets(cfg *Config, passphrase string) error {
	fields := []struct {
		name string
		ptr  *string
	}{
		{"server.csrf_token", &cfg.Server.CSRFToken},
	}
	for _, f := range fields {
		if !strings.HasPrefix(*f.ptr, encPrefix) {
			continue
		}
		if passphrase == "" {
			return domain.NewDomainError("Config.Decrypt", domain.ErrDecryption, f.name+" is encrypted but RAGCHAT_CONFIG_KEY is not set")
		}
		plain, err := DecryptValue(strings.TrimPrefix(*f.ptr, encPrefix), passphrase)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.ptr = plain
	}
	return nil
}

// EncryptValue encrypts a plaintext value with AES-256-GCM using a passphrase.
func EncryptValue(plaintext, passphrase string) (string, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", domain.WrapOp("generate salt", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", domain.WrapOp("generate nonce", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	// Format: hex(salt) + ":" + hex(nonce+ciphertext)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(ciphertext), nil
}

// DecryptValue decrypts an AES-256-GCM encrypted value.
func DecryptValue(encrypted, passphrase string) (string, error) {
	parts := strings.SplitN(encrypted, ":", 2)
	if len(parts) != 2 {
		return "", domain.NewDomainError("Config.Decrypt", domain.ErrDecryption, "invalid encrypted format")
	}

	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", domain.NewDomainError("Config.Decrypt", domain.ErrDecryption, "decode salt")
	}

	data, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", domain.NewDomainError("Config.Decrypt", domain.ErrDecryption, "decode ciphertext")
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", domain.NewDomainError("Config.Decrypt", domain.ErrDecryption, "ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", domain.NewDomainError("Config.Decrypt", domain.ErrDecryption, err.Error())
	}

	return string(plaintext), nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, domain.NewDomainError("Config.Cipher", domain.ErrEncryption, err.Error())
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, domain.NewDomainError("Config.Cipher", domain.ErrEncryption, err.Error())
	}
	return gcm, nil
}

// deriveKey uses Argon2id to derive a 32-byte key from passphrase + salt.
func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, 32)
}
