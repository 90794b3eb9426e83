package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rental/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "http://localhost:8080/files/")
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "contracts/401/lease 2024.pdf", []byte("%PDF-1.4"), "application/pdf"))

	_, err = os.Stat(filepath.Join(dir, "contracts", "401", "lease 2024.pdf"))
	require.NoError(t, err)

	data, err := s.Get(ctx, "/contracts/401/lease 2024.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	u, err := s.URL(ctx, "contracts/401/lease 2024.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/contracts/401/lease%202024.pdf", u)

	require.NoError(t, s.Delete(ctx, "contracts/401/lease 2024.pdf"))
	_, err = s.Get(ctx, "contracts/401/lease 2024.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "contracts/401/lease 2024.pdf"), ErrObjectNotFound)

	assert.Error(t, s.Put(ctx, "a/../../etc/passwd", nil, ""))
	assert.ErrorIs(t, s.Put(ctx, "", nil, ""), ErrKeyRequired)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	store, err := New(ctx, config.StorageConfig{Driver: config.StorageLocal, LocalDir: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = New(ctx, config.StorageConfig{Driver: "ftp"}, zap.NewNop())
	assert.Error(t, err)
}
