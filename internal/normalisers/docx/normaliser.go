package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/normalisers/textutil"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the content type of Word documents.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	bodyPart = "word/document.xml"
	corePart = "docProps/core.xml"
)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts paragraph text. Paragraphs styled as a heading or
// title start a new section.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive", domain.ErrUnsupportedType)
	}

	var sections textutil.Sections
	body, err := archive.Open(bodyPart)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrInvalidInput, bodyPart, err)
	default:
		sections, err = readBody(body)
		body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, bodyPart, err)
		}
	}

	return textutil.Result(raw, "docx", coreTitle(archive), sections), nil
}

// readBody streams the document XML, collecting run text per paragraph.
func readBody(r io.Reader) (textutil.Sections, error) {
	var (
		sections textutil.Sections
		heading  string
		para     strings.Builder
		style    string
		inText   bool
		lines    []string
	)
	flush := func() {
		sections.Add(domain.Locator{Section: heading}, strings.Join(lines, "\n"))
		lines = nil
	}

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				para.Reset()
				style = ""
			case "pStyle":
				style = attr(t, "val")
			case "t":
				inText = true
			case "tab":
				para.WriteByte(' ')
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				text := strings.TrimSpace(para.String())
				if text == "" {
					continue
				}
				if isHeading(style) {
					flush()
					heading = text
					continue
				}
				lines = append(lines, text)
			}
		}
	}
	flush()
	return sections, nil
}

func isHeading(style string) bool {
	style = strings.ToLower(style)
	return strings.HasPrefix(style, "heading") || style == "title"
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// coreTitle reads dc:title from the package properties, if any.
func coreTitle(archive *zip.Reader) string {
	f, err := archive.Open(corePart)
	if err != nil {
		return ""
	}
	defer f.Close()

	var core struct {
		Title string `xml:"title"`
	}
	if err := xml.NewDecoder(f).Decode(&core); err != nil {
		return ""
	}
	return core.Title
}
