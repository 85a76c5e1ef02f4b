package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/normalisers/textutil"
)

var _ driven.Normaliser = (*Normaliser)(nil)

const (
	toolName    = "pdftotext"
	maxTitleLen = 200
)

var pdfMagic = []byte("%PDF")

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, ErrPDFToolNotFound
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Normaliser extracts text from PDFs with poppler's pdftotext.
type Normaliser struct {
	runner CommandRunner
}

// New creates a PDF normaliser that shells out to pdftotext.
func New() *Normaliser {
	return &Normaliser{runner: execRunner{}}
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{runner: runner}
}

// CheckAvailable reports whether pdftotext can be found.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions describes how to install pdftotext.
func InstallInstructions() string {
	return `PDF support requires pdftotext (part of poppler).

  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts a PDF to text with one section per page. Pages keep
// their number even when blank pages around them are dropped.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !bytes.HasPrefix(raw.Content, pdfMagic) {
		return nil, fmt.Errorf("%w: %s has no PDF header", domain.ErrUnsupportedType, filepath.Base(raw.URI))
	}

	path, err := spool(raw.Content)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	out, err := n.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return nil, fmt.Errorf("%w\n%s", err, InstallInstructions())
		}
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	text := string(out)
	var sections textutil.Sections
	for i, page := range strings.Split(text, "\f") {
		sections.Add(domain.Locator{Page: i + 1}, page)
	}

	result := textutil.Result(raw, "pdf", leadingLine(text), sections)
	result.Document.Metadata["pages"] = len(sections)
	return result, nil
}

// spool writes content to a temp file for pdftotext to read.
func spool(content []byte) (string, error) {
	tmp, err := os.CreateTemp("", "diligence-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	_, err = tmp.Write(content)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	return tmp.Name(), nil
}

// leadingLine returns the first non-blank line short enough to be a title.
func leadingLine(text string) string {
	for line := range strings.Lines(text) {
		line = strings.TrimFunc(line, func(r rune) bool {
			return r == 0 || unicode.IsSpace(r)
		})
		if line != "" && len(line) < maxTitleLen {
			return line
		}
	}
	return ""
}
