package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"pdfqa/internal/vectorstore"
	"pdfqa/utils"
)

// UploadStorage writes uploaded files under dir as <owner>_<filename>.
type UploadStorage struct {
	dir       string
	chunkSize int
}

func NewUploadStorage(dir string, chunkSize int) (*UploadStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if chunkSize <= 0 {
		chunkSize = 1 << 20
	}
	return &UploadStorage{dir: dir, chunkSize: chunkSize}, nil
}

// Path is where Save stores filename for owner. Directory components of
// filename are dropped; owner must pass vectorstore.ValidateOwner.
func (s *UploadStorage) Path(owner, filename string) (string, error) {
	if err := vectorstore.ValidateOwner(owner); err != nil {
		return "", utils.NewError(utils.KindValidation, "upload path", err)
	}
	return filepath.Join(s.dir, owner+"_"+filepath.Base(filename)), nil
}

// Save copies r to disk in chunkSize pieces and returns the path and the
// number of bytes written. An existing file of the same name is replaced.
func (s *UploadStorage) Save(owner, filename string, r io.Reader) (string, int64, error) {
	path, err := s.Path(owner, filename)
	if err != nil {
		return "", 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}

	// wrappers hide ReadFrom/WriteTo so the buffer bounds each read
	buf := make([]byte, s.chunkSize)
	n, err := io.CopyBuffer(struct{ io.Writer }{f}, struct{ io.Reader }{r}, buf)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", n, fmt.Errorf("write upload file: %w", err)
	}
	return path, n, nil
}
