package filestorage

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFor(t *testing.T) {
	assert.Equal(t, ProfileImage, ProfileFor("image/png"))
	assert.Equal(t, ProfileVideo, ProfileFor("video/mp4"))
	assert.Equal(t, ProfileDocument, ProfileFor("application/pdf"))
	assert.Equal(t, ProfileDocument, ProfileFor("audio/mpeg"))
}

func TestAllowLists(t *testing.T) {
	assert.True(t, IsAllowedMedia("application/pdf"))
	assert.True(t, IsAllowedMedia("image/jpeg"))
	assert.False(t, IsAllowedMedia("application/x-msdownload"))

	assert.True(t, IsAllowedImage("image/webp"))
	assert.False(t, IsAllowedImage("application/pdf"))
}

func TestLocalStorage_StoreAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "http://localhost:8080/uploads/")
	require.NoError(t, err)

	body := "hello portal"
	stored, err := store.Store(context.Background(), strings.NewReader(body), int64(len(body)), "text/plain", ProfileDocument, "Notes.TXT")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.StorageID, "document/"))
	assert.True(t, strings.HasSuffix(stored.StorageID, ".txt"))
	assert.Equal(t, "http://localhost:8080/uploads/"+stored.StorageID, stored.URL)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(stored.StorageID)))
	require.NoError(t, err)
	assert.Equal(t, body, string(data))

	require.NoError(t, store.Delete(context.Background(), stored.StorageID))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(stored.StorageID)))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, store.Delete(context.Background(), stored.StorageID))
}

func TestLocalStorage_StoreCancelled(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Store(ctx, strings.NewReader("data"), 4, "text/plain", ProfileDocument, "a.txt")
	assert.Error(t, err)
}

func TestLocalStorage_ResolveStaysInsideBase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "/uploads")
	require.NoError(t, err)

	p, err := store.resolve("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "etc", "passwd"), p)

	_, err = store.resolve("")
	assert.Error(t, err)
	_, err = store.resolve("..")
	assert.Error(t, err)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(Config{Type: "ftp"})
	assert.Error(t, err)
}

func TestNew_S3RequiresBucket(t *testing.T) {
	_, err := New(Config{Type: "s3"})
	assert.Error(t, err)
}

func TestNewS3Storage_PublicURL(t *testing.T) {
	s, err := NewS3Storage(Config{
		Bucket:    "portal",
		Endpoint:  "https://account.r2.cloudflarestorage.com",
		AccessKey: "key",
		SecretKey: "secret",
		PublicURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com", s.baseURL)
	assert.Equal(t, "portal", s.bucket)
}

func fileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestOpenUpload_DeclaredType(t *testing.T) {
	fh := fileHeader(t, "doc.pdf", "application/pdf; charset=binary", []byte("%PDF-1.4 test"))

	upload, err := OpenUpload(fh)
	require.NoError(t, err)
	defer upload.Close()

	assert.Equal(t, "application/pdf", upload.MimeType)
	assert.Equal(t, "doc.pdf", upload.Filename)
}

func TestOpenUpload_SniffsGenericType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	fh := fileHeader(t, "photo.bin", "application/octet-stream", png)

	upload, err := OpenUpload(fh)
	require.NoError(t, err)
	defer upload.Close()

	assert.Equal(t, "image/png", upload.MimeType)

	// the reader is rewound after sniffing
	head := make([]byte, 4)
	_, err = upload.File.Read(head)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(head))
}
