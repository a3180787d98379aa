package storage

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func makeFileHeader(t *testing.T, field, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File[field][0]
}

func TestSavePhoto_WritesKeyedByUserID(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStorage(dir)

	content := append(pngHeader, make([]byte, 32)...)
	path, err := fs.SavePhoto(7, makeFileHeader(t, "file", "whatever.png", content))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "photos", "photo-7.png"), path)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, content, written)
}

func TestSavePhoto_RejectsNonPNGContent(t *testing.T) {
	fs := NewFileStorage(t.TempDir())

	// The extension claims PNG; the bytes do not.
	_, err := fs.SavePhoto(1, makeFileHeader(t, "file", "fake.png", []byte("definitely not a png")))
	require.ErrorIs(t, err, ErrInvalidFileType)
}

func TestSavePhoto_RejectsOversized(t *testing.T) {
	fs := NewFileStorage(t.TempDir())

	big := append(pngHeader, make([]byte, 51*1024)...)
	_, err := fs.SavePhoto(1, makeFileHeader(t, "file", "big.png", big))
	require.ErrorIs(t, err, ErrFileTooLarge)
}

func TestSaveFiles_StripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStorage(dir)

	header := makeFileHeader(t, "files", "nested/dir/doc.txt", []byte("hello"))
	saved, err := fs.SaveFiles(3, []*multipart.FileHeader{header})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	require.Equal(t, "doc.txt", saved[0].Name)
	require.Equal(t, filepath.Join(dir, "files", "3", "doc.txt"), saved[0].Path)
}
