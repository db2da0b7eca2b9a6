// Package filestore implements the storage.ImageStore interface on the local
// filesystem, the backend the upload pipeline writes to.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/waypointco/waypoint-api/internal/config"
	"github.com/waypointco/waypoint-api/internal/platform/logger"
	"github.com/waypointco/waypoint-api/internal/storage"
)

// LocalImageStore removes uploaded images from a directory tree rooted at
// the configured upload directory.
type LocalImageStore struct {
	root   string
	logger *slog.Logger
}

// Ensure LocalImageStore implements storage.ImageStore interface
var _ storage.ImageStore = (*LocalImageStore)(nil)

// NewLocalImageStore creates an image store rooted at cfg.UploadDir.
// If log is nil, a default logger will be used.
func NewLocalImageStore(cfg config.StorageConfig, log *slog.Logger) (*LocalImageStore, error) {
	if cfg.UploadDir == "" {
		return nil, fmt.Errorf("upload directory cannot be empty")
	}

	root, err := filepath.Abs(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory: %w", err)
	}

	if log == nil {
		log = slog.Default()
	}

	return &LocalImageStore{
		root:   root,
		logger: log.With(slog.String("component", "image_store")),
	}, nil
}

// Remove implements storage.ImageStore.Remove.
// Paths are interpreted relative to the store root; a path that resolves
// outside the root is rejected. A path that no longer exists is treated as
// already removed.
func (s *LocalImageStore) Remove(ctx context.Context, path string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.resolve(path)
	if err != nil {
		log.Warn("rejected image path",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return err
	}

	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("image already absent", slog.String("path", path))
			return nil
		}
		log.Error("failed to remove image",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return err
	}

	log.Debug("image removed", slog.String("path", path))
	return nil
}

// resolve joins path onto the store root and verifies the result stays
// inside it.
func (s *LocalImageStore) resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("image path cannot be empty")
	}

	full := filepath.Join(s.root, filepath.FromSlash(path))
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("image path escapes storage root")
	}
	return full, nil
}
