package service

import (
	"context"
	"io"

	"github.com/mynu/mynu-backend/internal/storage"
	"github.com/mynu/mynu-backend/pkg/logger"
)

// FileUpload is an uploaded file as received from a multipart form.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func storeUpload(ctx context.Context, files storage.FileStorage, folder string, upload *FileUpload) (string, error) {
	if err := storage.ValidateImage(upload.ContentType, upload.Size); err != nil {
		return "", err
	}
	return files.Put(ctx, folder, upload.Filename, upload.ContentType, upload.Body)
}

// discardFiles removes files best-effort; failures are only logged.
func discardFiles(ctx context.Context, files storage.FileStorage, paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := files.Delete(ctx, path); err != nil {
			logger.Warn("Failed to delete stored file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	}
}
