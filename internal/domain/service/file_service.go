package service

import (
	"context"
	"io"
)

type UploadResult struct {
	URL        string
	ObjectName string
	Size       int64
}

// FileStorage stores public binaries such as avatars and listing images.
type FileStorage interface {
	// Upload writes r under folder and returns its public URL.
	Upload(ctx context.Context, r io.Reader, contentType, folder, filename string) (*UploadResult, error)
	Delete(ctx context.Context, fileURL string) error
	Close() error
}
