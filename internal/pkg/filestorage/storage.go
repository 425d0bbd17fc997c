package filestorage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Profile selects the folder an upload is stored under.
type Profile string

const (
	ProfileImage    Profile = "image"
	ProfileVideo    Profile = "video"
	ProfileDocument Profile = "document"
)

// ProfileFor picks the storage profile from a MIME type.
func ProfileFor(mimeType string) Profile {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return ProfileImage
	case strings.HasPrefix(mimeType, "video/"):
		return ProfileVideo
	default:
		return ProfileDocument
	}
}

// StoredFile is the result of a successful upload. StorageID is the handle
// passed back to Delete.
type StoredFile struct {
	URL       string
	StorageID string
}

// MediaStore persists uploaded media.
type MediaStore interface {
	Store(ctx context.Context, r io.Reader, size int64, mimeType string, profile Profile, filename string) (*StoredFile, error)
	Delete(ctx context.Context, storageID string) error
}

// Config selects and configures a MediaStore backend.
type Config struct {
	Type      string // local or s3
	BasePath  string // local: directory on disk
	BaseURL   string // local: public URL prefix of BasePath
	Bucket    string
	Region    string
	Endpoint  string // s3: custom endpoint for S3 compatible stores such as R2
	AccessKey string
	SecretKey string
	PublicURL string // s3: public URL prefix of the bucket
}

// New builds the backend named by cfg.Type.
func New(cfg Config) (MediaStore, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.BasePath, cfg.BaseURL)
	case "s3":
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}
