package blob

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))

	t.Run("png", func(t *testing.T) {
		img, err := DecodeDataURL("data:image/png;base64," + payload)
		require.NoError(t, err)
		assert.Equal(t, "png", img.Ext)
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, []byte("png-bytes"), img.Data)
	})

	t.Run("jpeg maps to jpg", func(t *testing.T) {
		img, err := DecodeDataURL("data:image/jpeg;base64," + payload)
		require.NoError(t, err)
		assert.Equal(t, "jpg", img.Ext)
	})

	t.Run("not a data url", func(t *testing.T) {
		_, err := DecodeDataURL("hello")
		assert.ErrorIs(t, err, ErrInvalidDataURL)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := DecodeDataURL("data:image/svg+xml;base64," + payload)
		assert.ErrorIs(t, err, ErrInvalidDataURL)
	})

	t.Run("broken base64", func(t *testing.T) {
		_, err := DecodeDataURL("data:image/png;base64,@@@")
		assert.ErrorIs(t, err, ErrInvalidDataURL)
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := DecodeDataURL("data:image/png;base64,")
		assert.ErrorIs(t, err, ErrEmptyPayload)
	})
}

func TestNewName(t *testing.T) {
	now := time.Unix(1700000000, 0)
	name := NewName("tenant-applications/id-pictures", "id", "png", now)
	assert.True(t, strings.HasPrefix(name, "tenant-applications/id-pictures/id_"))
	assert.True(t, strings.HasSuffix(name, "_1700000000.png"))
	assert.NotEqual(t, name, NewName("tenant-applications/id-pictures", "id", "png", now))
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	name, err := SaveImage(ctx, s, "payments/proofs", "proof", &Image{Data: []byte("x"), Ext: "png", ContentType: "image/png"})
	require.NoError(t, err)

	b, err := s.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), b)
	assert.Equal(t, "/storage/"+name, PublicURL(s, name))

	require.NoError(t, s.Delete(ctx, name))
	_, err = s.Get(ctx, name)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	assert.NoError(t, s.Delete(ctx, name))
}

func TestLocalStore_RejectsEscapingNames(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)
	assert.Error(t, s.Put(context.Background(), "", []byte("x"), ""))
}

func TestPublicURL_PassesAbsoluteURLs(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", PublicURL(s, "https://cdn.example.com/a.png"))
	assert.Equal(t, "/files/units/photos/a.png", PublicURL(s, "units/photos/a.png"))
	assert.Equal(t, "", PublicURL(s, ""))
}

func TestSaveRefs(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)
	png := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))

	refs, err := SaveRefs(ctx, s, "properties", "photo", []string{png, "/storage/properties/old.jpg", " ", "https://cdn.example.com/a.jpg"})
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.True(t, strings.HasPrefix(refs[0], "properties/photo_"))
	assert.Equal(t, "properties/old.jpg", refs[1])
	assert.Equal(t, "https://cdn.example.com/a.jpg", refs[2])

	_, err = s.Get(ctx, refs[0])
	require.NoError(t, err)

	t.Run("invalid data url removes earlier writes", func(t *testing.T) {
		root := t.TempDir()
		s, err := NewLocalStore(root, "")
		require.NoError(t, err)
		_, err = SaveRefs(ctx, s, "units", "photo", []string{png, "data:image/png;base64,@@@"})
		assert.ErrorIs(t, err, ErrInvalidDataURL)
		entries, _ := os.ReadDir(filepath.Join(root, "units"))
		assert.Empty(t, entries)
	})
}
