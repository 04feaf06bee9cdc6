package proof

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DiskStore keeps proofs on the local filesystem. Used when no bucket
// is configured, and in tests.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create proof dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Put(ctx context.Context, contentType string, body io.Reader) (string, error) {
	ext, ok := extByType[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}

	data, err := io.ReadAll(io.LimitReader(body, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read proof: %w", err)
	}
	if err := Validate(contentType, int64(len(data))); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write proof: %w", err)
	}
	return "payments/" + name, nil
}

func (s *DiskStore) Get(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	name := strings.TrimPrefix(ref, "payments/")
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return nil, "", errors.New("invalid proof reference")
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, "", fmt.Errorf("open proof: %w", err)
	}

	contentType := ""
	for ct, ext := range extByType {
		if strings.HasSuffix(name, ext) {
			contentType = ct
			break
		}
	}
	return f, contentType, nil
}
