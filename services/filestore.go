package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StoredFile is what the file store hands back after persisting bytes.
type StoredFile struct {
	Ref      string
	Size     int64
	Checksum string
}

// FileStore keeps uploaded document bytes outside the proposal record.
type FileStore interface {
	Store(ctx context.Context, r io.Reader, fileName string) (StoredFile, error)
	Retrieve(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// LocalFileStore writes uploads below a base directory (UPLOAD_PATH).
type LocalFileStore struct {
	baseDir string
}

func NewLocalFileStore(baseDir string) (*LocalFileStore, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(filepath.Join(baseDir, "proposals"), os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalFileStore{baseDir: baseDir}, nil
}

func (s *LocalFileStore) Store(_ context.Context, r io.Reader, fileName string) (StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	ref := filepath.ToSlash(filepath.Join("proposals", uuid.NewString()+ext))
	target := filepath.Join(s.baseDir, filepath.FromSlash(ref))

	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return StoredFile{}, fmt.Errorf("failed to create %s: %w", ref, err)
	}
	hasher := sha256.New()
	size, copyErr := io.Copy(io.MultiWriter(f, hasher), r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(target)
		return StoredFile{}, fmt.Errorf("failed to write %s: %w", ref, errors.Join(copyErr, closeErr))
	}
	return StoredFile{Ref: ref, Size: size, Checksum: hex.EncodeToString(hasher.Sum(nil))}, nil
}

func (s *LocalFileStore) Retrieve(_ context.Context, ref string) (io.ReadCloser, error) {
	target, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", ref, err)
	}
	return f, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *LocalFileStore) Delete(_ context.Context, ref string) error {
	target, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", ref, err)
	}
	return nil
}

func (s *LocalFileStore) resolve(ref string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid file reference %q", ref)
	}
	return filepath.Join(s.baseDir, clean), nil
}
