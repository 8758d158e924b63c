package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"praktika.org/internal/ids"
)

// MaxFileSize caps a single attachment at 10 MB.
const MaxFileSize = 10 << 20

var (
	ErrUnsupportedType = errors.New("upload: unsupported file type")
	ErrTooLarge        = errors.New("upload: file too large")
	ErrNotFound        = errors.New("upload: file not found")
	ErrBadIdentity     = errors.New("upload: identity is not a valid directory name")
)

// safeIdentity reports whether the identity can be used as a single path
// element under the base directory.
func safeIdentity(identity string) bool {
	return identity != "" && identity != "." && identity != ".." &&
		identity == filepath.Base(identity)
}

// allowedTypes are the declared content types accepted for attachments.
var allowedTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// FileDescriptor records where an accepted attachment lives on disk.
type FileDescriptor struct {
	OriginalName string `json:"original_name" bson:"original_name"`
	StoredName   string `json:"stored_name" bson:"stored_name"`
	Path         string `json:"path" bson:"path"`
	Size         int64  `json:"size" bson:"size"`
	ContentType  string `json:"content_type" bson:"content_type"`
}

// Validate checks the declared content type and size against the upload
// policy. The content type may carry parameters (e.g. charset).
func Validate(contentType string, size int64) error {
	mediaType := strings.TrimSpace(contentType)
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}
	if _, ok := allowedTypes[strings.ToLower(mediaType)]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
	}
	if size > MaxFileSize {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}
	return nil
}

// StoredName derives the on-disk name for an attachment:
// {identity}-{unix-millis}-{random}{original extension}. Uniqueness needs no
// lookup, and the owning identity stays traceable from the name alone.
func StoredName(identity, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s-%d-%s%s", identity, time.Now().UnixMilli(), ids.NewSuffix(), ext)
}

// DiskStore writes attachments under one subdirectory per identity. The base
// directory is created once at construction, not per request.
type DiskStore struct {
	baseDir string
}

func NewDiskStore(baseDir string) (*DiskStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("upload base directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{baseDir: baseDir}, nil
}

// BaseDir returns the configured root of the upload tree.
func (d *DiskStore) BaseDir() string { return d.baseDir }

// Save validates the attachment and writes it under the identity's
// subdirectory, returning the descriptor to merge into the submission record.
func (d *DiskStore) Save(identity, originalName, contentType string, size int64, r io.Reader) (*FileDescriptor, error) {
	if !safeIdentity(identity) {
		return nil, ErrBadIdentity
	}
	if err := Validate(contentType, size); err != nil {
		return nil, err
	}
	dir := filepath.Join(d.baseDir, identity)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create identity dir: %w", err)
	}
	stored := StoredName(identity, originalName)
	path := filepath.Join(dir, stored)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	written, err := io.Copy(f, io.LimitReader(r, MaxFileSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	if written > MaxFileSize {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, written)
	}
	return &FileDescriptor{
		OriginalName: originalName,
		StoredName:   stored,
		Path:         path,
		Size:         written,
		ContentType:  contentType,
	}, nil
}

// Path resolves a stored file for the identity. The stored name must be a
// bare filename; ownership against the submission record is the caller's
// responsibility.
func (d *DiskStore) Path(identity, storedName string) (string, error) {
	if !safeIdentity(identity) {
		return "", ErrNotFound
	}
	if storedName == "" || storedName != filepath.Base(storedName) {
		return "", ErrNotFound
	}
	path := filepath.Join(d.baseDir, identity, storedName)
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound
	}
	return path, nil
}

// RemoveAll deletes every stored file for the identity.
func (d *DiskStore) RemoveAll(identity string) error {
	if !safeIdentity(identity) {
		return ErrNotFound
	}
	return os.RemoveAll(filepath.Join(d.baseDir, identity))
}
