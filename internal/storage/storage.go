// Package storage manages the two directories the service writes to: uploaded
// originals and annotated results.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"inspector/internal/common/fsutil"
	"inspector/pkg/types"
)

// TimestampLayout prefixes every stored file name.
const TimestampLayout = "20060102_150405"

// AllowedExtensions lists the accepted upload types, lower case, without the dot.
var AllowedExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "tiff"}

// ErrInvalidName is returned when a requested file name would escape its directory.
var ErrInvalidName = errors.New("invalid file name")

// Paths locates the uploads and results directories.
type Paths struct {
	Uploads string
	Results string
}

// New returns Paths for the given directories.
func New(uploads, results string) Paths {
	return Paths{Uploads: uploads, Results: results}
}

// Ensure creates both directories if they are missing.
func (p Paths) Ensure() error {
	return fsutil.EnsureDirs(p.Uploads, p.Results)
}

// Extension returns the lower-cased text after the last dot, or "" if there is none.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// AllowedFile reports whether name carries one of AllowedExtensions.
func AllowedFile(name string) bool {
	ext := Extension(name)
	if ext == "" {
		return false
	}
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// SanitizeFilename reduces a client-supplied name to a flat ASCII file name.
// Directory components are dropped, whitespace becomes '_', and anything outside
// [A-Za-z0-9._-] is removed. Leading and trailing dots and underscores are trimmed.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "._")
}

// StoredName builds the timestamp-prefixed name an upload is saved under.
// When sanitizing loses the extension the name falls back to upload.<ext>.
func StoredName(original string, now time.Time) string {
	ext := Extension(original)
	clean := SanitizeFilename(original)
	if clean == "" || Extension(clean) != ext {
		clean = "upload." + ext
	}
	return now.Format(TimestampLayout) + "_" + clean
}

// SaveUpload writes r to the uploads directory under StoredName(original, now).
// An existing file is never overwritten; a short random suffix is inserted instead.
func (p Paths) SaveUpload(original string, r io.Reader, now time.Time) (types.UploadedImage, error) {
	name := StoredName(original, now)
	f, err := createExclusive(filepath.Join(p.Uploads, name))
	if errors.Is(err, os.ErrExist) {
		ext := filepath.Ext(name)
		name = strings.TrimSuffix(name, ext) + "_" + shortID() + ext
		f, err = createExclusive(filepath.Join(p.Uploads, name))
	}
	if err != nil {
		return types.UploadedImage{}, fmt.Errorf("create upload: %w", err)
	}
	path := f.Name()
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return types.UploadedImage{}, fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return types.UploadedImage{}, fmt.Errorf("close upload: %w", err)
	}
	return types.UploadedImage{StoredName: name, Path: path}, nil
}

// NewResultPath returns a fresh path in the results directory for an annotated JPEG.
func (p Paths) NewResultPath(now time.Time) string {
	return filepath.Join(p.Results, "result_"+now.Format(TimestampLayout)+"_"+shortID()+".jpg")
}

// Resolve joins name onto dir, rejecting anything that is not a plain file name.
func Resolve(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return "", ErrInvalidName
	}
	full := filepath.Join(dir, name)
	rel, err := filepath.Rel(dir, full)
	if err != nil || rel != name {
		return "", ErrInvalidName
	}
	return full, nil
}

func createExclusive(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
