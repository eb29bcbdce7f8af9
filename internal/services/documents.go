package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrFileTooLarge is returned when an upload exceeds the configured limit.
var ErrFileTooLarge = errors.New("file exceeds upload limit")

// essayExtensions lists the upload types an essay can be read from.
var essayExtensions = map[string]bool{".pdf": true, ".txt": true, ".md": true}

// StoredFile is an uploaded essay saved under the upload directory.
type StoredFile struct {
	OriginalName string
	StoredPath   string
	Size         int64
}

// DocumentService stores uploaded essay files on disk and reads their text.
type DocumentService struct {
	uploadDir string
	maxBytes  int64
	pdf       *PDFService
}

func NewDocumentService(uploadDir string, maxBytes int64, pdf *PDFService) *DocumentService {
	if pdf == nil {
		pdf = NewPDFService()
	}
	return &DocumentService{uploadDir: uploadDir, maxBytes: maxBytes, pdf: pdf}
}

// Save copies src into the upload directory under a fresh name.
func (s *DocumentService) Save(original string, src io.Reader) (*StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(original))
	if !essayExtensions[ext] {
		return nil, invalid("file", fmt.Sprintf("unsupported file type %q", ext))
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure upload dir: %w", err)
	}

	storedPath := filepath.Join(s.uploadDir, uuid.NewString()+ext)
	out, err := os.Create(storedPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	reader := src
	if s.maxBytes > 0 {
		reader = io.LimitReader(src, s.maxBytes+1)
	}
	n, err := io.Copy(out, reader)
	if err != nil {
		os.Remove(storedPath)
		return nil, fmt.Errorf("write file: %w", err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		os.Remove(storedPath)
		return nil, ErrFileTooLarge
	}

	return &StoredFile{OriginalName: original, StoredPath: storedPath, Size: n}, nil
}

// ReadText returns the plain text of a stored essay.
func (s *DocumentService) ReadText(file *StoredFile) (string, error) {
	var (
		text string
		err  error
	)
	if strings.EqualFold(filepath.Ext(file.StoredPath), ".pdf") {
		text, err = s.pdf.ExtractText(file.StoredPath)
	} else {
		var raw []byte
		raw, err = os.ReadFile(file.StoredPath)
		text = string(raw)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", invalid("file", "no readable text in "+file.OriginalName)
	}
	return text, nil
}
