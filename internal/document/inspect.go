// Package document checks uploaded files before they are sent to a model.
package document

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"excellerator/internal/config"
	"excellerator/internal/domain"
)

// Info describes an accepted document.
type Info struct {
	FileName    string
	FileType    domain.FileType
	ContentType string
	Size        int64
	PageCount   int
}

// Inspector validates type, size and page count of uploads.
type Inspector struct {
	maxBytes    int64
	maxPDFPages int
}

// NewInspector creates an Inspector from upload limits. Zero limits disable the check.
func NewInspector(cfg *config.UploadConfig) *Inspector {
	return &Inspector{
		maxBytes:    cfg.MaxFileSizeBytes(),
		maxPDFPages: cfg.MaxPDFPages,
	}
}

// Inspect validates data and reports what it is. The extension must be one
// of the accepted types and the sniffed content must agree that it is a
// supported document; the sniffed type wins when they differ.
func (i *Inspector) Inspect(fileName string, data []byte) (*Info, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyFile
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	if i.maxBytes > 0 && int64(len(data)) > i.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	detected := http.DetectContentType(head)
	fileType, ok := domain.AllowedContentTypes[detected]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	info := &Info{
		FileName:    filepath.Base(fileName),
		FileType:    fileType,
		ContentType: detected,
		Size:        int64(len(data)),
		PageCount:   1,
	}

	if fileType == domain.FileTypePDF {
		pages, err := api.PageCount(bytes.NewReader(data), nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
		}
		if pages == 0 {
			return nil, fmt.Errorf("%w: pdf has no pages", domain.ErrUnreadableDocument)
		}
		if i.maxPDFPages > 0 && pages > i.maxPDFPages {
			return nil, fmt.Errorf("%d pages: %w", pages, domain.ErrTooManyPages)
		}
		info.PageCount = pages
	}

	return info, nil
}
