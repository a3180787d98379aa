package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrInvalidFileType is returned when the uploaded content does not
	// match the type the route accepts.
	ErrInvalidFileType = errors.New("invalid file type")
	// ErrFileTooLarge is returned when an upload exceeds the route's size cap.
	ErrFileTooLarge = errors.New("file too large")
)

// Profile photos are small PNGs.
const maxPhotoSize = 50 * 1024

// Cap for generic document uploads.
const maxFileSize = 5 * 1024 * 1024

// FileStorage writes validated multipart uploads to the local filesystem,
// keyed by user id.
type FileStorage struct {
	baseDir string
}

// NewFileStorage creates a file storage rooted at baseDir
func NewFileStorage(baseDir string) *FileStorage {
	return &FileStorage{baseDir: baseDir}
}

func readUpload(file *multipart.FileHeader, maxSize int64) ([]byte, error) {
	if file.Size > maxSize {
		return nil, ErrFileTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	// Size in the part header is client-supplied; bound the read as well.
	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

// SavePhoto validates and stores a user's profile photo. The content must
// actually be a PNG (sniffed, not trusted from the header) and at most 50 KiB.
func (s *FileStorage) SavePhoto(userID int64, file *multipart.FileHeader) (string, error) {
	data, err := readUpload(file, maxPhotoSize)
	if err != nil {
		return "", err
	}

	if !mimetype.Detect(data).Is("image/png") {
		return "", ErrInvalidFileType
	}

	dir := filepath.Join(s.baseDir, "photos")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create photo directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("photo-%d.png", userID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write photo: %w", err)
	}
	return path, nil
}

// SavedFile describes one stored upload.
type SavedFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	Path string `json:"path"`
}

// SaveFiles stores a batch of document uploads under the user's directory.
// Each file is size-capped; the detected content type is recorded.
func (s *FileStorage) SaveFiles(userID int64, files []*multipart.FileHeader) ([]SavedFile, error) {
	dir := filepath.Join(s.baseDir, "files", fmt.Sprintf("%d", userID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create files directory: %w", err)
	}

	saved := make([]SavedFile, 0, len(files))
	for _, file := range files {
		data, err := readUpload(file, maxFileSize)
		if err != nil {
			return nil, err
		}

		// Keep only the base name; the part header may carry a path.
		name := filepath.Base(file.Filename)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write file %s: %w", name, err)
		}

		saved = append(saved, SavedFile{
			Name: name,
			Size: int64(len(data)),
			Type: mimetype.Detect(data).String(),
			Path: path,
		})
	}
	return saved, nil
}
