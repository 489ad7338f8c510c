// Package uploads stores request-scoped screenshot files.
package uploads

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/krishkalaria12/snap-code/apperror"
	"github.com/krishkalaria12/snap-code/models"
)

// FieldName is the multipart field carrying the screenshot.
const FieldName = "image"

// MaxPixels caps the declared width*height of an upload. Compressed formats can
// declare dimensions far beyond what their byte size suggests.
const MaxPixels = 40_000_000

// Upload is a transient file owned by one pipeline run.
type Upload struct {
	Path     string
	Filename string
	MimeType string
	Size     int64
}

type Intake struct {
	dir      string
	maxBytes int64
}

// NewIntake prepares dir for transient uploads.
func NewIntake(dir string, maxBytes int64) (*Intake, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Intake{dir: dir, maxBytes: maxBytes}, nil
}

// Accept validates the request fields and writes the file to a unique path.
// The output type is checked before anything touches the disk.
func (i *Intake) Accept(file *multipart.FileHeader, rawOutputType string) (*Upload, models.OutputType, error) {
	if file == nil {
		return nil, "", apperror.Newf(apperror.NoFileProvided, "intake", "field %q missing", FieldName)
	}

	outputType, err := models.ParseOutputType(rawOutputType)
	if err != nil {
		return nil, "", apperror.New(apperror.UnsupportedOutputType, "intake", err)
	}

	if file.Size <= 0 {
		return nil, "", apperror.Newf(apperror.InvalidUpload, "intake", "empty file %q", file.Filename)
	}
	if i.maxBytes > 0 && file.Size > i.maxBytes {
		return nil, "", apperror.Newf(apperror.InvalidUpload, "intake", "file %q is %d bytes, limit %d", file.Filename, file.Size, i.maxBytes)
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", apperror.New(apperror.KindUnknown, "intake", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return nil, "", apperror.New(apperror.InvalidUpload, "intake", err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, "", apperror.Newf(apperror.InvalidUpload, "intake", "file %q is %s, not an image", file.Filename, mtype.String())
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, "", apperror.New(apperror.InvalidUpload, "intake", err)
	}

	// Formats without a registered decoder pass through; nothing decodes them later.
	if cfg, _, err := image.DecodeConfig(src); err == nil {
		if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
			return nil, "", apperror.Newf(apperror.InvalidUpload, "intake", "file %q declares %dx%d pixels", file.Filename, cfg.Width, cfg.Height)
		}
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, "", apperror.New(apperror.InvalidUpload, "intake", err)
	}

	path := filepath.Join(i.dir, uuid.NewString()+mtype.Extension())
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, "", apperror.New(apperror.KindUnknown, "intake", err)
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, "", apperror.New(apperror.KindUnknown, "intake", err)
	}

	return &Upload{
		Path:     path,
		Filename: filepath.Base(file.Filename),
		MimeType: mtype.String(),
		Size:     n,
	}, outputType, nil
}

// Release removes the transient file. A file that is already gone is not an error.
func (i *Intake) Release(u *Upload) error {
	if u == nil {
		return nil
	}
	if err := os.Remove(u.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
