// Package storage saves portfolio images on local disk and maps them to the
// public URL they are served from.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/sebastianleon1-sys/Zerby2/internal/config"
)

var (
	ErrEmptyFile       = errors.New("archivo vacío")
	ErrExtension       = errors.New("extensión de archivo no permitida")
	ErrNotImage        = errors.New("el archivo no es una imagen")
	ErrTooLarge        = errors.New("el archivo excede el tamaño máximo")
	ErrInvalidFilename = errors.New("nombre de archivo inválido")
)

// allowedExtensions are the accepted upload extensions, lower case.
var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
}

// sniffLen is how much of the upload mimetype inspects.
const sniffLen = 3072

// Stored describes a saved upload.
type Stored struct {
	// Name is the file name on disk, relative to the upload dir.
	Name string
	// URL is the public path the file is served at.
	URL string
}

// Local stores uploads under a directory on the local filesystem.
type Local struct {
	cfg *config.StorageConfig
	now func() time.Time
}

func NewLocal(cfg *config.StorageConfig) *Local {
	return &Local{cfg: cfg, now: time.Now}
}

// EnsureDir creates the upload directory if it does not exist.
func (l *Local) EnsureDir() error {
	return os.MkdirAll(l.cfg.UploadDir, 0o755)
}

// MaxBytes is the largest accepted upload.
func (l *Local) MaxBytes() int64 {
	return l.cfg.MaxUploadBytes
}

// SaveImage validates and writes an uploaded image. The stored name is
// "<unix seconds>_<sanitized original name>", with a random segment before
// the original name when that file already exists.
func (l *Local) SaveImage(originalName string, r io.Reader) (Stored, error) {
	clean := SanitizeFilename(originalName)
	if clean == "" {
		return Stored{}, ErrInvalidFilename
	}
	if !AllowedExtension(clean) {
		return Stored{}, ErrExtension
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Stored{}, fmt.Errorf("reading upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return Stored{}, ErrEmptyFile
	}

	mt := mimetype.Detect(head)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Stored{}, ErrNotImage
	}

	if err := l.EnsureDir(); err != nil {
		return Stored{}, fmt.Errorf("creating upload dir: %w", err)
	}

	name, f, err := l.create(clean)
	if err != nil {
		return Stored{}, fmt.Errorf("creating upload file: %w", err)
	}
	dst := f.Name()

	// One byte past the limit tells an exact-size file from an oversized one.
	limit := l.cfg.MaxUploadBytes + 1
	written, err := io.Copy(f, io.LimitReader(io.MultiReader(bytes.NewReader(head), r), limit))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > l.cfg.MaxUploadBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dst)
		if errors.Is(err, ErrTooLarge) {
			return Stored{}, err
		}
		return Stored{}, fmt.Errorf("writing upload: %w", err)
	}

	return Stored{Name: name, URL: l.URL(name)}, nil
}

// createAttempts bounds the retries on a name collision.
const createAttempts = 4

// create opens a new file for clean. Uploads of the same name within the
// same second get a random segment instead of overwriting each other.
func (l *Local) create(clean string) (string, *os.File, error) {
	prefix := strconv.FormatInt(l.now().Unix(), 10) + "_"
	name := prefix + clean

	var err error
	for range createAttempts {
		var f *os.File
		f, err = os.OpenFile(filepath.Join(l.cfg.UploadDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return name, f, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", nil, err
		}
		name = prefix + uuid.NewString()[:8] + "_" + clean
	}
	return "", nil, err
}

// URL returns the public URL of a stored file name.
func (l *Local) URL(name string) string {
	return path.Join(l.cfg.PublicPath, name)
}

// Remove deletes a stored file. A missing file is not an error.
func (l *Local) Remove(name string) error {
	clean := filepath.Base(name)
	if clean != name || clean == "." || clean == string(filepath.Separator) {
		return ErrInvalidFilename
	}
	err := os.Remove(filepath.Join(l.cfg.UploadDir, clean))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing upload: %w", err)
	}
	return nil
}

// AllowedExtension reports whether name ends in an accepted image extension.
func AllowedExtension(name string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// SanitizeFilename strips directories and keeps only ASCII letters, digits,
// dots, dashes and underscores. Whitespace becomes an underscore.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	var b strings.Builder
	for _, r := range strings.Join(strings.Fields(name), "_") {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}

	return strings.Trim(b.String(), "._")
}
