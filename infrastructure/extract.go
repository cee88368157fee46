package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/nguyenthenguyen/docx"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// PDFFallback reads PDFs that have no extractable text layer.
type PDFFallback interface {
	ExtractPDFText(ctx context.Context, data []byte) (string, error)
}

var ErrUnsupportedFileType = errors.New("unsupported resume file type")

// ResumeExtractor turns uploaded resume files into plain text.
type ResumeExtractor struct {
	fallback PDFFallback
}

// NewResumeExtractor builds an extractor. fallback may be nil.
func NewResumeExtractor(fallback PDFFallback) *ResumeExtractor {
	return &ResumeExtractor{fallback: fallback}
}

func (e *ResumeExtractor) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		return strings.TrimSpace(string(data)), nil
	case ".pdf":
		text, err := extractPDF(data)
		if err == nil && text != "" {
			return text, nil
		}
		if e.fallback == nil {
			return "", errors.Wrap(err, "no text could be extracted from the PDF")
		}
		return e.fallback.ExtractPDFText(ctx, data)
	case ".docx":
		return extractDOCX(data)
	default:
		return "", errors.Wrapf(ErrUnsupportedFileType, "%q", filename)
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "failed to read PDF")
	}
	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", errors.Wrap(err, "failed to get page count")
	}
	if numPages == 0 {
		return "", errors.New("PDF has no pages")
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		text, err := ex.ExtractText()
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&sb, "--- Page %d ---\n%s\n\n", i, text)
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", errors.New("no text could be extracted from any page of the PDF")
	}
	return out, nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxTag          = regexp.MustCompile(`<[^>]+>`)
	blankLines       = regexp.MustCompile(`\n{3,}`)
)

func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Wrap(err, "failed to read DOCX")
	}
	defer r.Close()

	return docxXMLToText(r.Editable().GetContent()), nil
}

func docxXMLToText(xml string) string {
	text := docxParagraphEnd.ReplaceAllString(xml, "\n")
	text = docxTag.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
