package filestorage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
)

// S3Storage stores media in an S3 bucket. Any S3 compatible endpoint, such as
// Cloudflare R2 or MinIO, works through Config.Endpoint.
type S3Storage struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	baseURL  string
}

// NewS3Storage creates an S3 backed MediaStore.
func NewS3Storage(cfg Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required for s3 storage")
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	awsConfig := &aws.Config{Region: aws.String(region)}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 session: %w", err)
	}

	baseURL := cfg.PublicURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}

	return &S3Storage{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// Store uploads r as <profile>/<uuid><ext>.
func (s *S3Storage) Store(ctx context.Context, r io.Reader, size int64, mimeType string, profile Profile, filename string) (*StoredFile, error) {
	key := path.Join(string(profile), uuid.NewString()+strings.ToLower(filepath.Ext(filename)))

	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(mimeType),
		Metadata: map[string]*string{
			"original-filename": aws.String(filename),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to s3: %w", err)
	}

	return &StoredFile{
		URL:       s.baseURL + "/" + key,
		StorageID: key,
	}, nil
}

// Delete removes an object. S3 treats deleting a missing key as success.
func (s *S3Storage) Delete(ctx context.Context, storageID string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from s3: %w", err)
	}
	return nil
}
