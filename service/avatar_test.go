package service

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moby/locker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lumeweb.com/accounts/core"
	"go.uber.org/zap"
)

func newTestAvatar(t *testing.T, accounts core.AccountStore) *AvatarServiceDefault {
	t.Helper()

	store, err := NewFileSystemAvatarStore(filepath.Join(t.TempDir(), "avatars"), zap.NewNop())
	require.NoError(t, err)

	return newTestAvatarWithStore(t, accounts, store)
}

func newTestAvatarWithStore(t *testing.T, accounts core.AccountStore, store core.AvatarStore) *AvatarServiceDefault {
	t.Helper()

	validation, _, err := NewValidationService()
	require.NoError(t, err)

	return &AvatarServiceDefault{
		store:      store,
		accounts:   accounts,
		validation: validation,
		logger:     zap.NewNop(),
		locks:      locker.New(),
		publicURL:  "https://accounts.example.com",
		size:       250,
		uploadDir:  t.TempDir(),
		staleAfter: time.Hour,
	}
}

func writeTempPNG(t *testing.T, dir string, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	file, err := os.CreateTemp(dir, "upload-*")
	require.NoError(t, err)
	defer file.Close()

	require.NoError(t, png.Encode(file, img))

	return file.Name()
}

func writeTempFile(t *testing.T, dir string, data []byte) string {
	t.Helper()

	file, err := os.CreateTemp(dir, "upload-*")
	require.NoError(t, err)
	defer file.Close()

	_, err = file.Write(data)
	require.NoError(t, err)

	return file.Name()
}

func TestAvatar_UpdateReplacesPreviousFile(t *testing.T) {
	ctx := context.Background()
	accounts := newTestStore(t)
	avatar := newTestAvatar(t, accounts)
	account := insertAccount(t, accounts, "a@example.com")

	first := writeTempPNG(t, avatar.uploadDir, 40, 20)
	url, err := avatar.Update(ctx, account.ID, core.AvatarUpload{TempPath: first, OriginalName: "first.png"})
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.example.com/avatars/"+account.ID+"_first.png", url)
	assert.NoFileExists(t, first)

	second := writeTempPNG(t, avatar.uploadDir, 10, 300)
	url, err = avatar.Update(ctx, account.ID, core.AvatarUpload{TempPath: second, OriginalName: "second.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.example.com/avatars/"+account.ID+"_second.jpg", url)
	assert.NoFileExists(t, second)

	names, err := avatar.store.List(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{account.ID + "_second.jpg"}, names)

	stored, err := accounts.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, url, stored.AvatarURL)

	r, err := avatar.Open(ctx, account.ID+"_second.jpg")
	require.NoError(t, err)
	defer r.Close()

	cfg, format, err := image.DecodeConfig(r)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 250, cfg.Width)
	assert.Equal(t, 250, cfg.Height)
}

func TestAvatar_URLEscapesName(t *testing.T) {
	avatar := newTestAvatar(t, newTestStore(t))

	assert.Equal(t, "https://accounts.example.com/avatars/abc_my%20photo.png", avatar.URL("abc_my photo.png"))
	assert.Equal(t, "https://accounts.example.com/avatars/abc_a%23b%3Fc%25.png", avatar.URL("abc_a#b?c%.png"))
}

func TestAvatar_UpdateWithSpacedFilename(t *testing.T) {
	ctx := context.Background()
	accounts := newTestStore(t)
	avatar := newTestAvatar(t, accounts)
	account := insertAccount(t, accounts, "a@example.com")

	url, err := avatar.Update(ctx, account.ID, core.AvatarUpload{TempPath: writeTempPNG(t, avatar.uploadDir, 4, 4), OriginalName: "my photo.png"})
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.example.com/avatars/"+account.ID+"_my%20photo.png", url)

	r, err := avatar.Open(ctx, account.ID+"_my photo.png")
	require.NoError(t, err)
	require.NoError(t, r.Close())
}

func TestAvatar_DecodeFailureKeepsCurrentAvatar(t *testing.T) {
	ctx := context.Background()
	accounts := newTestStore(t)
	avatar := newTestAvatar(t, accounts)
	account := insertAccount(t, accounts, "a@example.com")

	good := writeTempPNG(t, avatar.uploadDir, 8, 8)
	url, err := avatar.Update(ctx, account.ID, core.AvatarUpload{TempPath: good, OriginalName: "me.png"})
	require.NoError(t, err)

	bad := writeTempFile(t, avatar.uploadDir, []byte("definitely not an image"))
	_, err = avatar.Update(ctx, account.ID, core.AvatarUpload{TempPath: bad, OriginalName: "me.png"})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.NoFileExists(t, bad)

	stored, err := accounts.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, url, stored.AvatarURL)

	names, err := avatar.store.List(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{account.ID + "_me.png"}, names)
}

func TestAvatar_RejectedFilenameRemovesUpload(t *testing.T) {
	accounts := newTestStore(t)
	avatar := newTestAvatar(t, accounts)
	account := insertAccount(t, accounts, "a@example.com")

	for _, name := range []string{"../escape.png", "avatar.exe", ""} {
		upload := writeTempPNG(t, avatar.uploadDir, 4, 4)

		_, err := avatar.Update(context.Background(), account.ID, core.AvatarUpload{TempPath: upload, OriginalName: name})
		assert.True(t, core.IsValidation(err), name)
		assert.NoFileExists(t, upload)
	}
}

func TestAvatar_PurgeRemovesOnlyOwnFiles(t *testing.T) {
	ctx := context.Background()
	accounts := newTestStore(t)
	avatar := newTestAvatar(t, accounts)
	one := insertAccount(t, accounts, "one@example.com")
	two := insertAccount(t, accounts, "two@example.com")

	_, err := avatar.Update(ctx, one.ID, core.AvatarUpload{TempPath: writeTempPNG(t, avatar.uploadDir, 4, 4), OriginalName: "a.png"})
	require.NoError(t, err)
	_, err = avatar.Update(ctx, two.ID, core.AvatarUpload{TempPath: writeTempPNG(t, avatar.uploadDir, 4, 4), OriginalName: "b.png"})
	require.NoError(t, err)

	require.NoError(t, avatar.Purge(ctx, one.ID))

	names, err := avatar.store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{two.ID + "_b.png"}, names)
}

func TestAvatar_OpenMissing(t *testing.T) {
	avatar := newTestAvatar(t, newTestStore(t))

	for _, name := range []string{"missing.png", "../config.yaml"} {
		_, err := avatar.Open(context.Background(), name)
		assert.True(t, core.IsNotFound(err), name)
	}
}

func TestAvatar_SweepUploads(t *testing.T) {
	avatar := newTestAvatar(t, newTestStore(t))

	stale := writeTempFile(t, avatar.uploadDir, []byte("old"))
	fresh := writeTempFile(t, avatar.uploadDir, []byte("new"))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	removed, err := avatar.SweepUploads(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
}

func TestFileSystemAvatarStore_WriteAndList(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileSystemAvatarStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, store.Write(ctx, "abc_one.png", strings.NewReader("one")))
	require.NoError(t, store.Write(ctx, "abd_two.png", strings.NewReader("two")))

	names, err := store.List(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc_one.png"}, names)

	r, err := store.Open(ctx, "abc_one.png")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "one", string(data))

	require.NoError(t, store.Delete(ctx, "abc_one.png"))
	require.NoError(t, store.Delete(ctx, "abc_one.png"))

	assert.ErrorIs(t, store.Write(ctx, "../evil.png", strings.NewReader("x")), ErrInvalidAvatarName)
}
