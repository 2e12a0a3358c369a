// Package local extracts CV text in-process. PDF goes through
// ledongthuc/pdf, DOCX and ODT through docconv, plain text is read
// directly. Everything else is delegated to a fallback extractor (Tika).
package local

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	pdf "github.com/ledongthuc/pdf"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
	"github.com/fairyhunter13/cv-matcher/pkg/textx"
)

// Extractor implements domain.TextExtractor.
type Extractor struct {
	// Fallback handles formats without a local parser and local parse failures.
	Fallback domain.TextExtractor
}

// New returns an Extractor delegating to fallback when set.
func New(fallback domain.TextExtractor) *Extractor { return &Extractor{Fallback: fallback} }

// SupportedExtensions lists the upload extensions accepted by the matcher.
var SupportedExtensions = []string{".pdf", ".docx", ".odt", ".txt", ".md", ".doc", ".rtf"}

// ExtractPath returns the sanitized text of the document at path. fileName
// is the original upload name and decides the parser.
func (e *Extractor) ExtractPath(ctx context.Context, fileName, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = readPDF(path)
	case ".docx":
		text, err = convert(path, docconv.ConvertDocx)
	case ".odt":
		text, err = convert(path, docconv.ConvertODT)
	case ".txt", ".md":
		var b []byte
		b, err = os.ReadFile(path)
		text = string(b)
	default:
		return e.fallback(ctx, fileName, path, fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidArgument, ext))
	}
	if err != nil {
		slog.Warn("local text extraction failed", slog.String("file", fileName), slog.Any("error", err))
		return e.fallback(ctx, fileName, path, fmt.Errorf("op=extract.%s: %w: %v", strings.TrimPrefix(ext, "."), domain.ErrInvalidArgument, err))
	}
	text = textx.Sanitize(text)
	if text == "" {
		return e.fallback(ctx, fileName, path, fmt.Errorf("%w: no text found in %s", domain.ErrInvalidArgument, fileName))
	}
	return text, nil
}

func (e *Extractor) fallback(ctx context.Context, fileName, path string, cause error) (string, error) {
	if e.Fallback == nil {
		return "", cause
	}
	text, err := e.Fallback.ExtractPath(ctx, fileName, path)
	if err != nil {
		return "", fmt.Errorf("%w (fallback: %v)", cause, err)
	}
	return textx.Sanitize(text), nil
}

func readPDF(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	rs, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rs); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func convert(path string, fn func(io.Reader) (string, map[string]string, error)) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	text, _, err := fn(f)
	return text, err
}
