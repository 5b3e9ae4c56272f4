package token

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/vaxwatch/vax-agent/pkg/encryption"
	"github.com/vaxwatch/vax-agent/pkg/file"
)

// DefaultMaxAge is how long a persisted token is trusted without
// re-authenticating.
const DefaultMaxAge = time.Hour

// StoreInterface defines methods to persist and recall the current bearer token.
type StoreInterface interface {
	Load() (string, time.Time, error)
	Save(token string) error
	Token() string
	IsFresh() bool
}

// tokenRecord is the on-disk shape, encrypted at rest.
type tokenRecord struct {
	Token      string    `json:"token"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Store keeps the last-issued bearer token in memory and mirrors it to an
// encrypted file so a restarted process can reuse a recent login.
type Store struct {
	tokenFilePath     string
	maxAge            time.Duration
	fileOps           file.FileOperations
	encryptionManager encryption.EncryptionManagerInterface

	mu         sync.RWMutex
	token      string
	acquiredAt time.Time
}

// NewStore initializes a Store backed by the given token file.
func NewStore(tokenFilePath string, maxAge time.Duration, fileOps file.FileOperations,
	encryptionManager encryption.EncryptionManagerInterface) *Store {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Store{
		tokenFilePath:     tokenFilePath,
		maxAge:            maxAge,
		fileOps:           fileOps,
		encryptionManager: encryptionManager,
	}
}

// Load reads the persisted token and its acquisition time into memory.
// A missing or empty file is not an error; the token is simply absent.
func (s *Store) Load() (string, time.Time, error) {
	data, err := s.fileOps.ReadFileRaw(s.tokenFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", time.Time{}, nil
		}
		return "", time.Time{}, err
	}
	if len(data) == 0 {
		return "", time.Time{}, nil
	}

	decrypted, err := s.encryptionManager.Decrypt(data)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decrypt token file: %w", err)
	}

	var record tokenRecord
	if err := json.Unmarshal(decrypted, &record); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to parse token file: %w", err)
	}

	s.mu.Lock()
	s.token = record.Token
	s.acquiredAt = record.AcquiredAt
	s.mu.Unlock()

	return record.Token, record.AcquiredAt, nil
}

// Save persists the token and resets its age to zero. The previous token is
// superseded wholesale.
func (s *Store) Save(token string) error {
	record := tokenRecord{
		Token:      token,
		AcquiredAt: time.Now(),
	}

	// Memory first: even if the file write fails, in-flight calls must see
	// the newest token.
	s.mu.Lock()
	s.token = record.Token
	s.acquiredAt = record.AcquiredAt
	s.mu.Unlock()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize token record: %w", err)
	}

	encrypted, err := s.encryptionManager.Encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt token record: %w", err)
	}

	return s.fileOps.WriteFileRaw(s.tokenFilePath, encrypted)
}

// Token returns the in-memory token, which may be stale or empty. It is safe
// to call while a refresh is in flight; callers always observe the latest
// stored value.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsFresh reports whether the current token can be used without
// re-authenticating: it must be younger than the configured window and, when
// the bearer is a parseable JWT, its exp claim must not have passed.
func (s *Store) IsFresh() bool {
	s.mu.RLock()
	tok := s.token
	acquired := s.acquiredAt
	s.mu.RUnlock()

	if tok == "" {
		return false
	}
	if time.Since(acquired) >= s.maxAge {
		return false
	}
	return !jwtExpired(tok)
}

// jwtExpired inspects the exp claim without verifying the signature; the
// server holds the signing key. Opaque tokens fall back to age-based freshness.
func jwtExpired(tok string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return false
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return false
	}
	return time.Now().After(time.Unix(int64(exp), 0))
}
