package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"

	"github.com/hificopy/formflow/pkg/adapters/memory"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/persistence/middleware"
	"github.com/hificopy/formflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func progress() *domain.Progress {
	return &domain.Progress{
		FormID:      "demo",
		SessionID:   "s1",
		Answers:     domain.Answers{"email": "ana@acme.io", "size": "11-50"},
		CurrentStep: 2,
		Status:      domain.StatusInProgress,
	}
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewProgressStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)

	original := progress()
	require.NoError(t, secure.Save(ctx, original))
	assert.Equal(t, "ana@acme.io", original.Answers["email"], "caller's progress must not be modified")

	stored, err := underlying.Load(ctx, "demo", "s1")
	require.NoError(t, err)
	assert.NotContains(t, stored.Answers, "email")
	assert.Contains(t, stored.Answers, middleware.EnvelopeKey)
	assert.Equal(t, domain.StatusInProgress, stored.Status, "metadata stays readable")
	assert.Equal(t, 2, stored.CurrentStep)

	loaded, err := secure.Load(ctx, "demo", "s1")
	require.NoError(t, err)
	assert.Equal(t, "ana@acme.io", loaded.Answers["email"])
	assert.Equal(t, "11-50", loaded.Answers["size"])

	ids, err := secure.List(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	require.NoError(t, secure.Delete(ctx, "demo", "s1"))
	_, err = secure.Load(ctx, "demo", "s1")
	assert.ErrorIs(t, err, domain.ErrProgressNotFound)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewProgressStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	old := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, old.Save(ctx, progress()))

	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)
	loaded, err := rotated.Load(ctx, "demo", "s1")
	require.NoError(t, err)
	assert.Equal(t, "ana@acme.io", loaded.Answers["email"])

	wrong := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})(underlying)
	_, err = wrong.Load(ctx, "demo", "s1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlaintext(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewProgressStore()
	require.NoError(t, underlying.Save(ctx, progress()))

	secure := middleware.Chain(underlying, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
	_, err := secure.Load(ctx, "demo", "s1")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	var store ports.ProgressStore = memory.NewProgressStore()
	store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(store)
	ports.RunProgressStoreContract(t, store)
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey("c2hvcnQ=")
	assert.Error(t, err)
	_, err = middleware.ParseKey("%%%")
	assert.Error(t, err)

	assert.Panics(t, func() { middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")}) })
}
