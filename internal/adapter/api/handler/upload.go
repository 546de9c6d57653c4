package handler

import (
	"fmt"
	"mime/multipart"

	"servicemarket/internal/infrastructure/storage"
	"servicemarket/internal/usecase"
	"servicemarket/pkg/errors"
)

// checkImage applies the size and type rules every image upload shares.
func checkImage(file *multipart.FileHeader, maxBytes int64) error {
	if file.Size > maxBytes {
		return errors.BadRequest(fmt.Sprintf("File %s exceeds the %d MB limit", file.Filename, maxBytes>>20), nil)
	}
	if !storage.AllowedContentType(file.Header.Get("Content-Type")) {
		return errors.BadRequest(fmt.Sprintf("File %s must be a JPEG, PNG, GIF or WebP image", file.Filename), nil)
	}
	return nil
}

// openImages opens every file as an ImageUpload. The returned close func
// releases all of them.
func openImages(files []*multipart.FileHeader, maxBytes int64) ([]usecase.ImageUpload, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	uploads := make([]usecase.ImageUpload, 0, len(files))
	for _, fh := range files {
		if err := checkImage(fh, maxBytes); err != nil {
			closeAll()
			return nil, func() {}, err
		}
		src, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, errors.BadRequest("Failed to read uploaded file", err)
		}
		opened = append(opened, src)
		uploads = append(uploads, usecase.ImageUpload{
			Reader:      src,
			ContentType: fh.Header.Get("Content-Type"),
			Filename:    fh.Filename,
		})
	}
	return uploads, closeAll, nil
}
