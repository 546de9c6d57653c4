package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"servicemarket/internal/domain/service"
)

// CloudinaryClient stores images on Cloudinary instead of a GCS bucket.
type CloudinaryClient struct {
	cld *cloudinary.Cloudinary
}

var _ service.FileStorage = (*CloudinaryClient)(nil)

func NewCloudinaryClient(cloudinaryURL string) (*CloudinaryClient, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryClient{cld: cld}, nil
}

func (c *CloudinaryClient) Upload(ctx context.Context, r io.Reader, contentType, folder, filename string) (*service.UploadResult, error) {
	objectName := ObjectName(folder, filename, contentType)
	publicID := strings.TrimSuffix(objectName, path.Ext(objectName))

	resp, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary rejected upload: %s", resp.Error.Message)
	}

	return &service.UploadResult{
		URL:        resp.SecureURL,
		ObjectName: resp.PublicID,
		Size:       int64(resp.Bytes),
	}, nil
}

func (c *CloudinaryClient) Delete(ctx context.Context, fileURL string) error {
	publicID, err := PublicIDFromURL(fileURL)
	if err != nil {
		return err
	}

	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete from Cloudinary: %w", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary rejected delete: %s", resp.Error.Message)
	}
	return nil
}

func (c *CloudinaryClient) Close() error {
	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+/`)

// PublicIDFromURL extracts the public id from a Cloudinary delivery URL such
// as https://res.cloudinary.com/demo/image/upload/v1712/profiles/u1/x.png.
func PublicIDFromURL(fileURL string) (string, error) {
	const marker = "/upload/"
	i := strings.Index(fileURL, marker)
	if i < 0 {
		return "", fmt.Errorf("invalid Cloudinary URL format")
	}

	rest := versionSegment.ReplaceAllString(fileURL[i+len(marker):], "")
	rest = strings.TrimSuffix(rest, path.Ext(rest))
	if rest == "" {
		return "", fmt.Errorf("invalid Cloudinary URL format")
	}
	return rest, nil
}
