// Package filesystem turns local files into corpus uploads and watches a
// folder for new ones.
package filesystem

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/normalisers/docx"
)

// MaxFileSize is the largest file accepted as an upload.
const MaxFileSize = 64 << 20

// fallbackMIMETypes covers extensions the platform mime table may not know.
var fallbackMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".text":     "text/plain",
	".csv":      "text/csv",
	".tsv":      "text/tab-separated-values",
	".pdf":      "application/pdf",
	".docx":     docx.MIMEType,
	".html":     "text/html",
	".htm":      "text/html",
	".json":     "application/json",
	".xml":      "application/xml",
}

// Load reads path into an upload named after its base name.
func Load(path string) (domain.Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return domain.Upload{}, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if info.Size() > MaxFileSize {
		return domain.Upload{}, fmt.Errorf("%w: %s is larger than %d MiB",
			domain.ErrInvalidInput, path, MaxFileSize>>20)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("read %s: %w", path, err)
	}
	return NewUpload(filepath.Base(path), content), nil
}

// NewUpload builds an upload, declaring the type detected for name and content.
func NewUpload(name string, content []byte) domain.Upload {
	return domain.Upload{
		Filename:     name,
		Content:      content,
		DeclaredType: DetectMIMEType(name, content),
	}
}

// DetectMIMEType returns the type for name's extension, falling back to
// sniffing content. Parameters such as charset are stripped.
func DetectMIMEType(name string, content []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" {
		if mimeType, ok := fallbackMIMETypes[ext]; ok {
			return mimeType
		}
		if mimeType := mime.TypeByExtension(ext); mimeType != "" {
			return stripParams(mimeType)
		}
	}
	if len(content) == 0 {
		return "text/plain"
	}
	return stripParams(http.DetectContentType(content))
}

func stripParams(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}

// Scan returns the visible regular files directly inside dir, sorted.
func Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || ignored(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// partialSuffixes mark files that are still being written by another program.
var partialSuffixes = []string{".tmp", ".part", ".crdownload", ".swp"}

// ignored reports whether a file should never be uploaded: hidden files,
// office lock files and partial downloads. Only the base name is checked so
// a watched folder may itself live under a hidden directory.
func ignored(path string) bool {
	base := filepath.Base(path)
	if isHidden(base) || strings.HasPrefix(base, "~$") {
		return true
	}
	lower := strings.ToLower(base)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
