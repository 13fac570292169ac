package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"excellerator/internal/domain"
)

// multipartOverhead leaves room for form fields and boundaries on top of the
// file size limit.
const multipartOverhead = 1 << 20

// readUpload reads one multipart file field, bounded by maxBytes (0 = no limit).
func readUpload(c *gin.Context, field string, maxBytes int64) (string, []byte, error) {
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)
	}

	fh, err := c.FormFile(field)
	if err != nil {
		if isBodyTooLarge(err) {
			return "", nil, domain.ErrFileTooLarge
		}
		return "", nil, domain.ErrEmptyFile
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return "", nil, domain.ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return "", nil, fmt.Errorf("opening upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return "", nil, domain.ErrEmptyFile
	}
	return fh.Filename, data, nil
}

func isBodyTooLarge(err error) bool {
	var mbErr *http.MaxBytesError
	return errors.As(err, &mbErr) || strings.Contains(err.Error(), "request body too large")
}

// formHeaders collects the optional "headers" form field. Values may be
// repeated or comma-separated.
func formHeaders(c *gin.Context) []string {
	var headers []string
	for _, v := range c.PostFormArray("headers") {
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				headers = append(headers, h)
			}
		}
	}
	return headers
}
