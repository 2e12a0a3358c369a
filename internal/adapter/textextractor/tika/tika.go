// Package tika provides Apache Tika integration for text extraction.
//
// It sends documents to a Tika server and returns sanitized plain text.
package tika

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/cv-matcher/pkg/textx"
)

const defaultBaseURL = "http://localhost:9998"

// Client is a minimal Apache Tika HTTP client implementing domain.TextExtractor.
// It performs PUT /tika with Accept: text/plain to retrieve extracted text.
type Client struct {
	baseURL    string
	httpClient *http.Client
	// AllowedRoots limits which directories ExtractPath may read from.
	// Empty means the system temp dir and the working directory.
	AllowedRoots []string
}

// New constructs a Tika client with a default timeout.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// ExtractPath uploads the file at path to the Tika server and returns plain text.
func (c *Client) ExtractPath(ctx context.Context, fileName, path string) (string, error) {
	openPath, err := c.resolve(path)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(openPath)
	if err != nil {
		return "", err
	}
	return c.Extract(ctx, fileName, b)
}

// Extract sends raw document bytes to Tika.
func (c *Client) Extract(ctx context.Context, fileName string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/tika", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain")
	if ct := contentTypeFromExt(filepath.Ext(fileName)); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("op=tika.extract: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("op=tika.extract: tika status %d", resp.StatusCode)
	}
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("op=tika.extract: %w", err)
	}
	return textx.Sanitize(string(out)), nil
}

// Ping checks that the Tika server answers GET /version.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/version", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("tika status %d", resp.StatusCode)
	}
	return nil
}

// resolve constrains path to one of the allowed roots.
func (c *Client) resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)
	roots := c.AllowedRoots
	if len(roots) == 0 {
		wd, _ := os.Getwd()
		roots = []string{os.TempDir(), wd}
	}
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		if abs == root || strings.HasPrefix(abs, root+string(os.PathSeparator)) {
			return abs, nil
		}
	}
	return "", fmt.Errorf("disallowed path: %s", abs)
}

func contentTypeFromExt(ext string) string {
	ext = strings.ToLower(ext)
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	default:
		if ext != "" {
			return mime.TypeByExtension(ext)
		}
	}
	return ""
}
