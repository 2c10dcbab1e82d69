package indexer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

var (
	// ErrUnsupportedFormat is returned for files whose format cannot be extracted.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrParse is returned when a supported file cannot be decoded.
	ErrParse = errors.New("parse error")
)

// Extensions accepted for ingestion, compared case-sensitively. Anything else
// (including ".PDF") is skipped without being reported.
var supportedExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
}

// SupportedExtension reports whether the file name has an ingestible extension.
func SupportedExtension(name string) bool {
	return supportedExtensions[filepath.Ext(name)]
}

// TextExtractor turns file bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, name string, data []byte) (string, error)
}

// Extractor extracts text from .txt and .pdf files.
type Extractor struct {
	licenseKey  string
	licenseOnce sync.Once
	licenseErr  error
}

// NewExtractor creates an extractor. licenseKey is the metered key for the PDF library;
// it may be empty when only text files are ingested.
func NewExtractor(licenseKey string) *Extractor {
	return &Extractor{licenseKey: licenseKey}
}

// Extract returns the text of the file named name.
func (e *Extractor) Extract(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch ext := filepath.Ext(name); ext {
	case ".txt":
		return extractPlainText(data)
	case ".pdf":
		return e.extractPDF(ctx, data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func extractPlainText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", ErrParse)
	}
	return string(data), nil
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	e.licenseOnce.Do(func() {
		if e.licenseKey != "" {
			e.licenseErr = license.SetMeteredKey(e.licenseKey)
		}
	})
	if e.licenseErr != nil {
		return "", fmt.Errorf("%w: pdf library license: %v", ErrUnsupportedFormat, e.licenseErr)
	}

	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", ErrParse, err)
	}

	encrypted, err := reader.IsEncrypted()
	if err != nil {
		return "", fmt.Errorf("%w: check encryption: %v", ErrParse, err)
	}
	if encrypted {
		ok, err := reader.Decrypt([]byte(""))
		if err != nil || !ok {
			return "", fmt.Errorf("%w: pdf is password protected", ErrParse)
		}
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("%w: count pages: %v", ErrParse, err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page, err := reader.GetPage(i)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrParse, i, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrParse, i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrParse, i, err)
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	return sb.String(), nil
}
