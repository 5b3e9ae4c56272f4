// Package encryption guards the persisted bearer token, which grants full
// account access while valid.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/vaxwatch/vax-agent/pkg/file"
)

const (
	keySize   = 32
	nonceSize = 12
)

// EncryptionManagerInterface defines encryption and decryption methods.
type EncryptionManagerInterface interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// EncryptionManager implements AES-GCM with a key loaded from a local file.
type EncryptionManager struct {
	aesgcm cipher.AEAD
}

// NewEncryptionManager loads the AES key from aesKeyPath and prepares the
// cipher. The key file must hold exactly 32 raw bytes.
func NewEncryptionManager(fileClient file.FileOperations, aesKeyPath string) (*EncryptionManager, error) {
	key, err := fileClient.ReadFileRaw(aesKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read AES key: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("invalid AES key size: got %d bytes, want %d bytes", len(key), keySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher block: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES-GCM: %w", err)
	}

	return &EncryptionManager{aesgcm: aesgcm}, nil
}

// Encrypt seals plaintext with a fresh random nonce, prepended to the output.
func (e *EncryptionManager) Encrypt(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return e.aesgcm.Seal(nonce[:], nonce[:], plaintext, nil), nil
}

// Decrypt opens ciphertext produced by Encrypt.
func (e *EncryptionManager) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short: must include nonce and encrypted data")
	}

	plaintext, err := e.aesgcm.Open(nil, ciphertext[:nonceSize], ciphertext[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}
