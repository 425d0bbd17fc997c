package filestorage

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
)

var imageTypes = setOf(
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/svg+xml",
)

var mediaTypes = setOf(
	"video/mp4",
	"video/avi",
	"video/x-msvideo",
	"video/quicktime",
	"video/x-ms-wmv",
	"video/x-flv",
	"video/webm",
	"audio/mpeg",
	"audio/wav",
	"audio/ogg",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"text/plain",
	"text/csv",
)

func setOf(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// IsAllowedMedia reports whether mimeType may be uploaded as content or an attachment.
func IsAllowedMedia(mimeType string) bool {
	return imageTypes[mimeType] || mediaTypes[mimeType]
}

// IsAllowedImage reports whether mimeType may be uploaded as a photo.
func IsAllowedImage(mimeType string) bool {
	return imageTypes[mimeType]
}

// baseType strips parameters such as "; charset=utf-8".
func baseType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// Upload is an opened multipart file with its resolved MIME type.
type Upload struct {
	File     io.ReadCloser
	Filename string
	Size     int64
	MimeType string
}

// CheckSize rejects an upload above limit bytes. A non-positive limit
// disables the check.
func (u *Upload) CheckSize(limit int64) error {
	if limit > 0 && u.Size > limit {
		return apperrors.NewFileTooLargeError(limit)
	}
	return nil
}

// Close releases the underlying file.
func (u *Upload) Close() error {
	return u.File.Close()
}

// OpenUpload opens fh and resolves its MIME type. The declared Content-Type wins
// unless it is missing or generic, in which case the content is sniffed.
func OpenUpload(fh *multipart.FileHeader) (*Upload, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}

	declared := baseType(fh.Header.Get("Content-Type"))
	if declared == "" || declared == "application/octet-stream" {
		detected, err := mimetype.DetectReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to detect file type: %w", err)
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to rewind uploaded file: %w", err)
		}
		declared = baseType(detected.String())
	}

	return &Upload{
		File:     file,
		Filename: fh.Filename,
		Size:     fh.Size,
		MimeType: declared,
	}, nil
}
