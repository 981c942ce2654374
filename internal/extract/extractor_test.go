package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOCR struct {
	lines []Line
	err   error
}

func (f *fakeOCR) DetectLines(ctx context.Context, data []byte, filename string) ([]Line, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.lines, nil
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)

	// Real docx containers carry more parts; the extractor only reads
	// word/document.xml.
	ct, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = ct.Write([]byte(`<Types/>`))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	return buf.Bytes()
}

const sampleDocumentXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:t>Third.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtractDocx(t *testing.T) {
	extractor := NewExtractor(&fakeOCR{})

	result, err := extractor.Extract(context.Background(), buildDocx(t, sampleDocumentXML), "notes.docx")
	require.NoError(t, err)

	assert.Equal(t, MethodDocx, result.Method)
	assert.Equal(t, "First paragraph.\nSecond paragraph.\nThird.", result.Text)
}

func TestExtractDocxCorruptContainer(t *testing.T) {
	extractor := NewExtractor(&fakeOCR{})

	_, err := extractor.Extract(context.Background(), []byte("not a zip"), "broken.docx")
	require.Error(t, err)
}

func TestExtractOCRPath(t *testing.T) {
	ocr := &fakeOCR{lines: []Line{
		{Text: "Annual Report", Confidence: 0.95, Page: 1},
		{Text: "Revenue grew 12%", Confidence: 0.85, Page: 1},
		{Text: "Outlook", Confidence: 0.90, Page: 2},
	}}
	extractor := NewExtractor(ocr)

	result, err := extractor.Extract(context.Background(), []byte("%PDF-1.4"), "report.pdf")
	require.NoError(t, err)

	assert.Equal(t, MethodOCR, result.Method)
	assert.Equal(t, "Annual Report\nRevenue grew 12%\nOutlook", result.Text)
	assert.Equal(t, 3, result.LineCount)
	assert.Equal(t, 2, result.PageCount)
	assert.InDelta(t, 0.9, result.Confidence, 0.001)
}

func TestExtractOCRFailure(t *testing.T) {
	extractor := NewExtractor(&fakeOCR{err: errors.New("unreadable scan")})

	_, err := extractor.Extract(context.Background(), []byte("data"), "scan.png")
	require.Error(t, err)
}

func TestExtractUnsupportedIsReportedNotFailed(t *testing.T) {
	extractor := NewExtractor(&fakeOCR{})

	result, err := extractor.Extract(context.Background(), []byte("plain"), "notes.txt")
	require.NoError(t, err)

	assert.Equal(t, MethodUnsupported, result.Method)
	assert.Empty(t, result.Text)
	assert.Contains(t, result.Note, ".txt")
}

func TestExtractExtensionCaseInsensitive(t *testing.T) {
	extractor := NewExtractor(&fakeOCR{lines: []Line{{Text: "x", Confidence: 1}}})

	result, err := extractor.Extract(context.Background(), []byte("data"), "SCAN.PDF")
	require.NoError(t, err)
	assert.Equal(t, MethodOCR, result.Method)
}

func TestAggregateLinesEmpty(t *testing.T) {
	result := aggregateLines(nil)

	assert.Empty(t, result.Text)
	assert.Zero(t, result.Confidence)
	assert.Zero(t, result.PageCount)
}

func TestAggregateLinesDefaultsPageToOne(t *testing.T) {
	result := aggregateLines([]Line{{Text: "a", Confidence: 1}, {Text: "b", Confidence: 1}})
	assert.Equal(t, 1, result.PageCount)
}
