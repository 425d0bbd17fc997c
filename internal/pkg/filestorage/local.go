package filestorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shreyescodes/erp-portal/internal/pkg/logger"
)

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
	baseURL  string // The public URL prefix the root directory is served under
}

// NewLocalStorage creates a new LocalStorage instance, creating basePath if needed.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("local storage requires a base path")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// BasePath returns the directory files are written to.
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// Store writes r under <profile>/<uuid><ext> and returns its public URL.
func (ls *LocalStorage) Store(ctx context.Context, r io.Reader, size int64, mimeType string, profile Profile, filename string) (*StoredFile, error) {
	dir := filepath.Join(ls.basePath, string(profile))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create subdirectory: %w", err)
	}

	storageID := path.Join(string(profile), uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
	dstPath := filepath.Join(ls.basePath, filepath.FromSlash(storageID))

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}

	written, err := io.Copy(dst, readerWithContext(ctx, r))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dstPath)
		return nil, fmt.Errorf("failed to save file content: %w", err)
	}

	logger.Debug().
		Str("filename", filename).
		Str("storageId", storageID).
		Str("mimeType", mimeType).
		Int64("declaredSize", size).
		Int64("written", written).
		Msg("File stored locally")

	return &StoredFile{
		URL:       ls.baseURL + "/" + storageID,
		StorageID: storageID,
	}, nil
}

// Delete removes a stored file. Missing files are not an error.
func (ls *LocalStorage) Delete(ctx context.Context, storageID string) error {
	physicalPath, err := ls.resolve(storageID)
	if err != nil {
		return err
	}

	if err := os.Remove(physicalPath); err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// resolve maps a storage id onto a path inside basePath, rejecting traversal.
func (ls *LocalStorage) resolve(storageID string) (string, error) {
	cleaned := path.Clean("/" + storageID)
	if storageID == "" || cleaned == "/" {
		return "", fmt.Errorf("invalid storage id %q", storageID)
	}
	return filepath.Join(ls.basePath, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// readerWithContext stops a copy once ctx is done.
func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
