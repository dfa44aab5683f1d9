package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/ports"
)

// EnvelopeKey is the single answer key of an encrypted progress record.
const EnvelopeKey = "__encrypted__"

// ErrNotEncrypted is returned when loading a record that has no envelope.
var ErrNotEncrypted = errors.New("progress is missing encrypted answers envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// ParseKey decodes a base64 AES-256 key.
func ParseKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

type encryptionMiddleware struct {
	next ports.ProgressStore
	keys *keyring
}

// NewEncryptionMiddleware creates a middleware that encrypts respondent
// answers using AES-GCM. Form, session, step and status stay readable so
// stores can index and operators can monitor sessions.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	keys, err := newKeyring(config)
	if err != nil {
		panic(err)
	}
	return func(next ports.ProgressStore) ports.ProgressStore {
		return &encryptionMiddleware{next: next, keys: keys}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, progress *domain.Progress) error {
	plainText, err := json.Marshal(progress.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}

	sealed, err := m.keys.seal(plainText)
	if err != nil {
		return fmt.Errorf("failed to encrypt answers: %w", err)
	}

	envelope := *progress
	envelope.Answers = domain.Answers{
		EnvelopeKey: base64.StdEncoding.EncodeToString(sealed),
	}
	return m.next.Save(ctx, &envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, formID, sessionID string) (*domain.Progress, error) {
	envelope, err := m.next.Load(ctx, formID, sessionID)
	if err != nil {
		return nil, err
	}

	encoded, ok := envelope.Answers[EnvelopeKey].(string)
	if !ok {
		// Fail secure: plaintext records are not silently accepted.
		return nil, fmt.Errorf("%w: %s/%s", ErrNotEncrypted, formID, sessionID)
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := m.keys.open(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt answers: %w", err)
	}

	out := *envelope
	out.Answers = domain.Answers{}
	if err := json.Unmarshal(plainText, &out.Answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted answers: %w", err)
	}
	return &out, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, formID, sessionID string) error {
	return m.next.Delete(ctx, formID, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context, formID string) ([]string, error) {
	return m.next.List(ctx, formID)
}

// keyring seals with the active key and opens with any known key,
// active first.
type keyring struct {
	active cipher.AEAD
	all    []cipher.AEAD
}

func newKeyring(config EncryptionConfig) (*keyring, error) {
	k := &keyring{}
	for i, key := range append([][]byte{config.ActiveKey}, config.FallbackKeys...) {
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		k.all = append(k.all, gcm)
	}
	k.active = k.all[0]
	return k, nil
}

// seal returns nonce || ciphertext.
func (k *keyring) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, k.active.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return k.active.Seal(nonce, nonce, plaintext, nil), nil
}

func (k *keyring) open(sealed []byte) ([]byte, error) {
	for _, gcm := range k.all {
		if len(sealed) < gcm.NonceSize() {
			return nil, errors.New("ciphertext too short")
		}
		nonce, body := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
		if plain, err := gcm.Open(nil, nonce, body, nil); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}
