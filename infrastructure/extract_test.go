package infrastructure

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPDFFallback struct {
	text  string
	calls int
}

func (s *stubPDFFallback) ExtractPDFText(context.Context, []byte) (string, error) {
	s.calls++
	return s.text, nil
}

func TestResumeExtractorPlainText(t *testing.T) {
	e := NewResumeExtractor(nil)
	text, err := e.Extract(context.Background(), []byte("  Go engineer\n"), "CV.TXT")
	require.NoError(t, err)
	assert.Equal(t, "Go engineer", text)
}

func TestResumeExtractorUnsupported(t *testing.T) {
	e := NewResumeExtractor(nil)
	_, err := e.Extract(context.Background(), []byte("x"), "cv.odt")
	assert.True(t, errors.Is(err, ErrUnsupportedFileType))
}

func TestResumeExtractorPDFFallback(t *testing.T) {
	fallback := &stubPDFFallback{text: "scanned resume"}
	e := NewResumeExtractor(fallback)

	text, err := e.Extract(context.Background(), []byte("not really a pdf"), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "scanned resume", text)
	assert.Equal(t, 1, fallback.calls)

	_, err = NewResumeExtractor(nil).Extract(context.Background(), []byte("not really a pdf"), "scan.pdf")
	assert.Error(t, err)
}

func TestDocxXMLToText(t *testing.T) {
	xml := `<w:body><w:p><w:r><w:t>Ada Lovelace</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>R&amp;D Engineer</w:t></w:r></w:p></w:body>`
	assert.Equal(t, "Ada Lovelace\nR&D Engineer", docxXMLToText(xml))
}
