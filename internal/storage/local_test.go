package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/littlstar/lstar/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_CommitAndRemove(t *testing.T) {
	l, err := NewLocal(filepath.Join(t.TempDir(), "downloads"))
	require.NoError(t, err)

	p, err := l.Create(42, ".mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(p.Path()), ".42-"))

	_, err = p.Write([]byte("hello"))
	require.NoError(t, err)

	final, err := p.Commit()
	require.NoError(t, err)
	assert.Equal(t, l.FinalPath(42, "mp4"), final)
	assert.True(t, l.Exists(final))
	assert.False(t, l.Exists(p.Path()))

	data, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, l.Remove(final))
	err = l.Remove(final)
	assert.True(t, errors.Is(err, domain.ErrLocalFileMissing))
	assert.Equal(t, domain.KindStorage, domain.KindOf(err))
}

func TestLocal_Orphans(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	a, err := l.Create(1, "")
	require.NoError(t, err)
	require.NoError(t, a.Close())
	b, err := l.Create(1, "")
	require.NoError(t, err)
	require.NoError(t, b.Close())
	c, err := l.Create(12, "")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	orphans, err := l.Orphans(1)
	require.NoError(t, err)
	assert.Len(t, orphans, 2, "id 12 is not a match for id 1")

	all, err := l.AllOrphans()
	require.NoError(t, err)
	assert.Len(t, all[1], 2)
	assert.Len(t, all[12], 1)

	require.NoError(t, c.Discard())
	all, err = l.AllOrphans()
	require.NoError(t, err)
	assert.NotContains(t, all, uint64(12))
}

func TestPartialID(t *testing.T) {
	id, ok := PartialID("/x/.77-0b5c.part")
	assert.True(t, ok)
	assert.Equal(t, uint64(77), id)

	_, ok = PartialID("/x/77.mp4")
	assert.False(t, ok)
}

func TestExtFromURL(t *testing.T) {
	assert.Equal(t, ".mov", ExtFromURL("https://cdn.example.com/v/1.MOV?sig=abc"))
	assert.Equal(t, ".mp4", ExtFromURL("https://cdn.example.com/v/1"))
	assert.Equal(t, ".mp4", ExtFromURL("%zz"))
}

func TestLocal_URL(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	u := l.URL(l.FinalPath(3, ".mp4"))
	assert.True(t, strings.HasPrefix(u, "file:///"))
	assert.True(t, strings.HasSuffix(u, "/3.mp4"))
}
