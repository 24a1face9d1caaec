// Package extract pulls plain text out of uploaded resume files.
package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// Extractor extracts plain text from a file. May fail or return empty text
// for unreadable files.
type Extractor interface {
	Extract(name string, data []byte) (string, error)
}

type pdfExtractor struct{}

// NewPDF returns an Extractor for PDF files.
func NewPDF() Extractor {
	return pdfExtractor{}
}

func (pdfExtractor) Extract(name string, data []byte) (text string, err error) {
	// The pdf library panics on some malformed documents. A broken upload
	// must surface as a per-file error, not take the batch down.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf %q: %v", name, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf %q: %w", name, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text from pdf %q: %w", name, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read text from pdf %q: %w", name, err)
	}

	return buf.String(), nil
}
