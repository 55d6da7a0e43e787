// Package storage keeps complaint attachments on the local filesystem.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"complaint-service/internal/apperr"
	"complaint-service/internal/logger"
	"complaint-service/internal/model"
)

var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
}

type FileStore struct {
	dir           string
	maxFiles      int
	maxTotalBytes int64
}

func NewFileStore(dir string, maxFiles int, maxTotalBytes int64) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir, maxFiles: maxFiles, maxTotalBytes: maxTotalBytes}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

// Check enforces the per-submission count and combined size limits without touching disk.
func (s *FileStore) Check(files []*multipart.FileHeader) error {
	if len(files) > s.maxFiles {
		return apperr.Validationf("at most %d attachments are allowed", s.maxFiles)
	}
	var total int64
	for _, fh := range files {
		total += fh.Size
	}
	if total > s.maxTotalBytes {
		return apperr.Validationf("attachments exceed the %dMB limit", s.maxTotalBytes>>20)
	}
	return nil
}

// Save validates and writes every file. The content type is sniffed from the bytes, not taken
// from the client. On any failure the files already written are removed.
func (s *FileStore) Save(files []*multipart.FileHeader) (model.Attachments, error) {
	if err := s.Check(files); err != nil {
		return nil, err
	}

	saved := model.Attachments{}
	for _, fh := range files {
		a, err := s.saveOne(fh)
		if err != nil {
			s.Remove(saved)
			return nil, err
		}
		saved = append(saved, a)
	}
	return saved, nil
}

func (s *FileStore) saveOne(fh *multipart.FileHeader) (model.Attachment, error) {
	src, err := fh.Open()
	if err != nil {
		return model.Attachment{}, apperr.Unexpected("failed to read upload", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return model.Attachment{}, apperr.Unexpected("failed to read upload", err)
	}

	ext, ok := allowedTypes[baseType(mtype.String())]
	if !ok {
		return model.Attachment{}, apperr.Validationf("%s: only jpeg, png, gif and pdf files are allowed", fh.Filename)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return model.Attachment{}, apperr.Unexpected("failed to read upload", err)
	}

	path := filepath.Join(s.dir, uuid.NewString()+ext)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return model.Attachment{}, apperr.Unexpected("failed to store upload", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return model.Attachment{}, apperr.Unexpected("failed to store upload", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return model.Attachment{}, apperr.Unexpected("failed to store upload", err)
	}

	return model.Attachment{
		Filename: filepath.Base(fh.Filename),
		Filepath: filepath.ToSlash(path),
		Mimetype: baseType(mtype.String()),
	}, nil
}

// Remove deletes the backing files. Failures are logged only.
func (s *FileStore) Remove(attachments model.Attachments) {
	for _, a := range attachments {
		if err := os.Remove(filepath.FromSlash(a.Filepath)); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to delete attachment",
				zap.String("path", a.Filepath),
				zap.Error(err),
			)
		}
	}
}

func baseType(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		return m[:i]
	}
	return m
}
