package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/google/uuid"
	"github.com/mynu/mynu-backend/config"
)

const MaxImageSize int64 = 5 << 20 // 5 MiB

var (
	ErrFileTooLarge       = errors.New("file exceeds the maximum allowed size")
	ErrUnsupportedType    = errors.New("content type is not allowed")
	ErrInvalidStoragePath = errors.New("invalid storage path")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// FileStorage stores uploaded files under folder-scoped relative paths such as dishes/<uuid>.jpg.
type FileStorage interface {
	Put(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

// New builds the driver selected by configuration.
func New(ctx context.Context, cfg config.StorageConfig) (FileStorage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.LocalRoot, cfg.LocalURL)
	case "s3":
		return NewS3Storage(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ValidateImage checks an upload against the accepted image types and size.
func ValidateImage(contentType string, size int64) error {
	if size > MaxImageSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, size, MaxImageSize)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if _, ok := imageExtensions[mediaType]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return nil
}

// objectKey builds a unique key inside folder. The extension follows the content type.
func objectKey(folder, contentType string) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	ext, ok := imageExtensions[mediaType]
	if !ok {
		ext = ".bin"
	}
	return fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.New().String(), ext)
}

// cleanKey rejects absolute paths and parent traversal.
func cleanKey(path string) (string, error) {
	key := strings.TrimPrefix(path, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidStoragePath, path)
	}
	return key, nil
}
