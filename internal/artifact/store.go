// Package artifact stores uploaded receipts and generated QR images and
// renders booking QR codes.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	FolderReceipts   = "facility_receipts"
	FolderQRCodes    = "facility_qrcodes"
	FolderFacilities = "facility_images"
)

var ErrNotFound = errors.New("artifact not found")

// LocalStore keeps blobs under dir and addresses them as baseURL/folder/name.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the root directory, served as static files by the HTTP transport.
func (s *LocalStore) Dir() string { return s.dir }

// Put writes data to folder/name, replacing any previous content, and
// returns its reference.
func (s *LocalStore) Put(ctx context.Context, folder, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel, err := cleanRel(path.Join(folder, name))
	if err != nil {
		return "", err
	}

	full := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create folder %s: %w", folder, err)
	}
	// пишем во временный файл и переименовываем, чтобы не отдать половину файла
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", rel, err)
	}
	return s.baseURL + "/" + rel, nil
}

// Get reads the blob a reference returned by Put points to.
func (s *LocalStore) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return data, err
}

// Delete removes the blob; a missing blob is not an error.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) resolve(ref string) (string, error) {
	rel, ok := strings.CutPrefix(ref, s.baseURL+"/")
	if !ok {
		return "", fmt.Errorf("%w: foreign reference %q", ErrNotFound, ref)
	}
	rel, err := cleanRel(rel)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(rel)), nil
}

// cleanRel rejects absolute paths and anything escaping the store root.
func cleanRel(p string) (string, error) {
	c := path.Clean("/" + p)[1:]
	if c == "" || c != strings.TrimPrefix(p, "./") || strings.HasPrefix(c, "..") {
		return "", fmt.Errorf("invalid artifact path %q", p)
	}
	return c, nil
}
