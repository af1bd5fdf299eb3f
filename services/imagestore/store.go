package imagestore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// MaxUploadSize caps the bytes read from a single upload.
const MaxUploadSize = 10 << 20

var (
	ErrNotAnImage = core.NewValidationError(errors.New("image must be a jpeg, png or gif"))
	ErrTooLarge   = core.NewValidationError(fmt.Errorf("image must not exceed %d MB", MaxUploadSize>>20))
	ErrNoFilename = core.NewValidationError(errors.New("image filename is required"))

	formats = map[string]imaging.Format{
		"image/jpeg": imaging.JPEG,
		"image/png":  imaging.PNG,
		"image/gif":  imaging.GIF,
	}
)

// Store keeps profile images on local disk, one directory per entity: <dir>/<entity>/<filename>.
type Store struct {
	dir     string
	maxSide int
}

func New(conf core.UploadsConfig) (*Store, error) {
	dir, err := filepath.Abs(conf.Dir)
	if err != nil {
		return nil, errors.Wrap(err, "resolving uploads dir")
	}
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating uploads dir")
	}
	return &Store{dir: dir, maxSide: conf.MaxImageSide}, nil
}

// Dir is the root directory served under /api/uploads.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(entity, filename string) string {
	return filepath.Join(s.dir, entity, filename)
}

// Upload is a staged image: it only becomes visible once committed.
type Upload struct {
	Filename string
	tmp      string
	dst      string
	done     bool
}

// Commit moves the staged file to its final place.
func (u *Upload) Commit() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := os.Rename(u.tmp, u.dst); err != nil {
		_ = os.Remove(u.tmp)
		return errors.Wrap(err, "committing image")
	}
	return nil
}

// Discard drops the staged file. It is a no-op after Commit.
func (u *Upload) Discard() {
	if u.done {
		return
	}
	u.done = true
	_ = os.Remove(u.tmp)
}

// Stage validates the image read from `r`, downsizes it when needed and writes it to a temp file
// next to its destination.
func (s *Store) Stage(entity, filename string, r io.Reader) (*Upload, error) {
	filename = core.SanitizeFilename(filename)
	if filename == "" {
		return nil, ErrNoFilename
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading image")
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}
	format, ok := formats[mimetype.Detect(data).String()]
	if !ok {
		return nil, ErrNotAnImage
	}
	if data, err = s.fit(data, format); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.dir, entity)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating image dir")
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, errors.Wrap(err, "creating temp file")
	}
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, errors.Wrap(err, "writing image")
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, errors.Wrap(err, "closing image")
	}
	return &Upload{Filename: filename, tmp: tmp.Name(), dst: s.path(entity, filename)}, nil
}

// fit shrinks images whose larger side exceeds the configured maximum; others are kept as-is.
func (s *Store) fit(data []byte, format imaging.Format) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrNotAnImage
	}
	b := img.Bounds()
	if s.maxSide <= 0 || (b.Dx() <= s.maxSide && b.Dy() <= s.maxSide) {
		return data, nil
	}
	var buf bytes.Buffer
	if err = imaging.Encode(&buf, imaging.Fit(img, s.maxSide, s.maxSide, imaging.Lanczos), format); err != nil {
		return nil, errors.Wrap(err, "encoding resized image")
	}
	return buf.Bytes(), nil
}

// Save stages and commits the image at once.
func (s *Store) Save(entity, filename string, r io.Reader) (string, error) {
	up, err := s.Stage(entity, filename, r)
	if err != nil {
		return "", err
	}
	if err = up.Commit(); err != nil {
		return "", err
	}
	return up.Filename, nil
}

// Remove deletes an image. Missing files are ignored.
func (s *Store) Remove(entity, filename string) error {
	filename = core.SanitizeFilename(filename)
	if filename == "" {
		return nil
	}
	if err := os.Remove(s.path(entity, filename)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing image")
	}
	return nil
}

// TimestampedName turns "logo.png" into "logo_<unix millis>.png".
func TimestampedName(filename string, now time.Time) string {
	filename = core.SanitizeFilename(filename)
	ext := filepath.Ext(filename)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(filename, ext), now.UnixNano()/int64(time.Millisecond), ext)
}
