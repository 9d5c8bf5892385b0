package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/internal/app/service"
)

// formImage opens an optional multipart file. The returned closer is never nil.
func formImage(c *gin.Context, field string) (*service.FileUpload, io.Closer, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, io.NopCloser(nil), nil
		}
		return nil, io.NopCloser(nil), err
	}

	file, err := header.Open()
	if err != nil {
		return nil, io.NopCloser(nil), err
	}

	return &service.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, file, nil
}
