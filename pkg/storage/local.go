package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
}

type localStorage struct {
	baseDir string
}

// NewLocalStorage creates a disk-backed FileStorage rooted at baseDir.
// Files land under baseDir/uploads/<folder>/ and the returned reference is
// the path relative to baseDir, e.g. "uploads/user/<name>".
func NewLocalStorage(baseDir string) (FileStorage, error) {
	if baseDir == "" {
		baseDir = "./public"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload base dir: %w", err)
	}
	return &localStorage{baseDir: baseDir}, nil
}

func (s *localStorage) Save(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrDisallowedType, ext)
	}

	dir := filepath.Join(s.baseDir, "uploads", folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	// Stored name never reuses the client-supplied one.
	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	return filepath.ToSlash(filepath.Join("uploads", folder, name)), nil
}

func (s *localStorage) Delete(ctx context.Context, ref string) error {
	// Refuse anything that escapes the base dir.
	clean := filepath.Clean(ref)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid storage reference: %s", ref)
	}

	err := os.Remove(filepath.Join(s.baseDir, clean))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
