package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore is the alternative blob backend, used by deployments that
// have Cloudinary credentials instead of an S3 bucket.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &CloudinaryStore{cld: cld}, nil
}

func (c *CloudinaryStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	uploadResult, err := c.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     key,
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}

	return uploadResult.SecureURL, nil
}

func (c *CloudinaryStore) Get(ctx context.Context, key string) ([]byte, error) {
	img, err := c.cld.Image(key)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Cloudinary asset %q: %w", key, err)
	}

	assetURL, err := img.String()
	if err != nil {
		return nil, fmt.Errorf("failed to build Cloudinary URL for %q: %w", key, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Cloudinary asset %q: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch Cloudinary asset %q: status %d", key, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (c *CloudinaryStore) Delete(ctx context.Context, key string) error {
	_, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: key})
	if err != nil {
		return fmt.Errorf("failed to delete Cloudinary asset %q: %w", key, err)
	}
	return nil
}
