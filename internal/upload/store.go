// Package upload stores product photos on local disk under
// unpredictable, hash-derived names.
package upload

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

const (
	// URLPrefix is the public path under which stored files are served.
	URLPrefix = "/uploads/"

	// DefaultMaxSize is the largest accepted photo.
	DefaultMaxSize int64 = 10 << 20

	nameLength = 16
)

var (
	// ErrRejected wraps every reason a file is refused.
	ErrRejected = errors.New("upload rejected")

	ErrUnsupportedType  = fmt.Errorf("%w: unsupported file type, use JPG, PNG or GIF", ErrRejected)
	ErrExtensionInvalid = fmt.Errorf("%w: file extension does not match its type", ErrRejected)
	ErrTooLarge         = fmt.Errorf("%w: file exceeds the maximum size", ErrRejected)
)

// allowedTypes maps each accepted MIME type to the extensions it may carry.
var allowedTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
}

// Incoming is a file received from a client.
type Incoming struct {
	Filename    string
	ContentType string // as declared by the client, may be empty
	Size        int64
	Reader      io.Reader
}

// Entry is a stored file found on disk.
type Entry struct {
	Path    string // public path, e.g. /uploads/abc.png
	ModTime time.Time
}

// Store keeps uploaded photos in a single directory.
type Store struct {
	dir     string
	maxSize int64
	logger  *zap.Logger
	now     func() time.Time
	remove  func(string) error
}

// NewStore creates a Store rooted at dir. A non-positive maxSize selects
// DefaultMaxSize.
func NewStore(dir string, maxSize int64, logger *zap.Logger) *Store {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Store{
		dir:     dir,
		maxSize: maxSize,
		logger:  logger,
		now:     time.Now,
		remove:  os.Remove,
	}
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

// MaxSize returns the largest accepted file in bytes.
func (s *Store) MaxSize() int64 {
	return s.maxSize
}

// Check validates declared type, extension and size without touching disk.
// It returns the lower-cased extension to store the file under.
func (s *Store) Check(f Incoming) (string, error) {
	if f.Size > s.maxSize {
		return "", ErrTooLarge
	}

	mediaType, err := declaredType(f.ContentType)
	if err != nil {
		return "", err
	}

	exts, ok := allowedTypes[mediaType]
	if !ok {
		return "", ErrUnsupportedType
	}

	ext := strings.ToLower(filepath.Ext(f.Filename))
	for _, allowed := range exts {
		if ext == allowed {
			return ext, nil
		}
	}
	return "", ErrExtensionInvalid
}

func declaredType(contentType string) (string, error) {
	if contentType == "" {
		return "", nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", ErrUnsupportedType
	}
	return strings.ToLower(mediaType), nil
}

// Save validates f and writes it under a freshly generated name. It returns
// the public path of the stored file.
func (s *Store) Save(f Incoming) (string, error) {
	reader := f.Reader

	// Without a declared type (or with a generic one), sniff the content.
	if ct, _ := declaredType(f.ContentType); ct == "" || ct == "application/octet-stream" {
		detected, rest, err := sniff(reader)
		if err != nil {
			return "", fmt.Errorf("failed to read upload: %w", err)
		}
		f.ContentType = detected
		reader = rest
	}

	ext, err := s.Check(f)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name, err := s.newName()
	if err != nil {
		return "", err
	}
	name += ext

	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	// Read one byte past the limit to catch a lying Size.
	written, err := io.Copy(dst, io.LimitReader(reader, s.maxSize+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > s.maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		if rmErr := s.removeFile(name); rmErr != nil {
			s.logger.Warn("Failed to remove partial upload",
				zap.String("file", name),
				zap.Error(rmErr),
			)
		}
		if errors.Is(err, ErrRejected) {
			return "", err
		}
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	s.logger.Debug("Upload stored", zap.String("file", name), zap.Int64("bytes", written))
	return URLPrefix + name, nil
}

// sniff detects the content type from the head of r and returns a reader
// that still yields the full content.
func sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, 3072)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]
	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), r), nil
}

// newName hashes the current time together with a random UUID and keeps the
// first 16 hex characters.
func (s *Store) newName() (string, error) {
	random, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate upload name: %w", err)
	}

	var buf [8 + 16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(s.now().UnixNano()))
	copy(buf[8:], random[:])

	sum := blake2b.Sum256(buf[:])
	return hex.EncodeToString(sum[:])[:nameLength], nil
}

// Remove deletes a stored file given its public path. A file that is
// already gone is not an error.
func (s *Store) Remove(publicPath string) error {
	name, err := s.fileName(publicPath)
	if err != nil {
		return err
	}
	return s.removeFile(name)
}

func (s *Store) removeFile(name string) error {
	err := s.remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove upload %s: %w", name, err)
	}
	return nil
}

// fileName maps /uploads/<name> to a bare file name, refusing anything that
// would escape the upload directory.
func (s *Store) fileName(publicPath string) (string, error) {
	if !strings.HasPrefix(publicPath, URLPrefix) {
		return "", fmt.Errorf("not an upload path: %q", publicPath)
	}
	name := strings.TrimPrefix(publicPath, URLPrefix)
	if name == "" || name != path.Base(name) || name == ".." {
		return "", fmt.Errorf("not an upload path: %q", publicPath)
	}
	return name, nil
}

// List returns every regular file in the upload directory. A missing
// directory yields an empty list.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Path: URLPrefix + de.Name(), ModTime: info.ModTime()})
	}
	return entries, nil
}
