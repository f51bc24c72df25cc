// Package document extracts quiz source text from uploaded files. The
// extracted text is opaque to the rest of the system; only the generator
// prompts consume it.
package document

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/quizgenius/backend/internal/models"
)

// ErrUnsupportedDocument is returned for file types the parser cannot read.
var ErrUnsupportedDocument = errors.New("unsupported document type")

const (
	// maxDocumentBytes bounds uploads; larger files are rejected before
	// extraction.
	maxDocumentBytes = 4 << 20

	// charsPerPage approximates a printed page for the page-count
	// estimate reported back to the caller.
	charsPerPage = 3000
)

var supportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// Parse extracts the text content of an uploaded file. It returns
// ErrUnsupportedDocument for unknown extensions and for content that is not
// valid UTF-8 text.
func Parse(r io.Reader, filename string) (*models.DocumentContent, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDocument, ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	if len(data) > maxDocumentBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrUnsupportedDocument, maxDocumentBytes)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: not valid UTF-8 text", ErrUnsupportedDocument)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("%w: document is empty", ErrUnsupportedDocument)
	}

	pages := (utf8.RuneCountInString(text) + charsPerPage - 1) / charsPerPage

	return &models.DocumentContent{
		Filename:  filepath.Base(filename),
		Text:      text,
		PageCount: pages,
	}, nil
}
