package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"accounts-api/internal/middleware"
	"accounts-api/internal/storage"
)

// At most this many documents per files-fields upload.
const maxDocuments = 10

type FileController struct {
	fileStorage *storage.FileStorage
}

func NewFileController(fileStorage *storage.FileStorage) *FileController {
	return &FileController{
		fileStorage: fileStorage,
	}
}

func writeUploadError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrInvalidFileType) || errors.Is(err, storage.ErrFileTooLarge) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Something went wrong",
	})
}

// UploadPhoto handles POST /api/v1/auth/photo (bearer token required).
// Accepts a single "file" part, PNG only, at most 50 KiB.
func (fc *FileController) UploadPhoto(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Unauthorized",
		})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing file",
		})
		return
	}

	if _, err := fc.fileStorage.SavePhoto(user.ID, file); err != nil {
		writeUploadError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// UploadFiles handles POST /api/v1/auth/files (bearer token required).
// Accepts any number of "files" parts.
func (fc *FileController) UploadFiles(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Unauthorized",
		})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid multipart form",
		})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing files",
		})
		return
	}

	saved, err := fc.fileStorage.SaveFiles(user.ID, files)
	if err != nil {
		writeUploadError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"files": saved,
	})
}

// UploadFilesFields handles POST /api/v1/auth/files-fields (bearer token
// required). Accepts one "photo" part (PNG, same rules as /photo) and up to
// ten "documents" parts in a single form.
func (fc *FileController) UploadFilesFields(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Unauthorized",
		})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid multipart form",
		})
		return
	}

	photos := form.File["photo"]
	documents := form.File["documents"]
	if len(photos) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Exactly one photo is required",
		})
		return
	}
	if len(documents) > maxDocuments {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Too many documents",
		})
		return
	}

	photoPath, err := fc.fileStorage.SavePhoto(user.ID, photos[0])
	if err != nil {
		writeUploadError(c, err)
		return
	}

	saved := []storage.SavedFile{}
	if len(documents) > 0 {
		saved, err = fc.fileStorage.SaveFiles(user.ID, documents)
		if err != nil {
			writeUploadError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"photo":     photoPath,
		"documents": saved,
	})
}
