package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/interview-iq/backend/pkg/logger"
)

// Extraction methods reported in the session record.
const (
	MethodDocx        = "docx"
	MethodOCR         = "ocr"
	MethodUnsupported = "unsupported"
)

// Line is one line of OCR output, in reading order.
type Line struct {
	Text       string
	Confidence float64
	Page       int
}

// OCR detects line-level text blocks in a PDF or image. Implementations
// must respect ctx deadlines; a nil error with zero lines means a blank
// document, not a failure.
type OCR interface {
	DetectLines(ctx context.Context, data []byte, filename string) ([]Line, error)
}

// Result is the outcome of one extraction attempt. An unsupported file
// kind is a reported condition, not an error: Method is set to
// "unsupported" and Note explains why.
type Result struct {
	Text       string
	Method     string
	Confidence float64
	PageCount  int
	LineCount  int
	Note       string
}

// Extractor dispatches documents to the extraction strategy matching
// their declared filename extension.
type Extractor struct {
	ocr OCR
}

func NewExtractor(ocr OCR) *Extractor {
	return &Extractor{ocr: ocr}
}

var ocrExtensions = map[string]bool{
	"pdf":  true,
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"tiff": true,
}

// Extract routes by extension: .docx goes through the format-native
// container path, PDF/image formats through the OCR backend. The caller
// is responsible for persisting the raw bytes before calling Extract so
// a failed extraction never loses the source file.
func (e *Extractor) Extract(ctx context.Context, data []byte, filename string) (*Result, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))

	switch {
	case ext == "docx":
		text, err := extractDocx(data)
		if err != nil {
			return nil, fmt.Errorf("docx extraction failed: %w", err)
		}
		logger.Info("Document extracted",
			zap.String("filename", filename),
			zap.String("method", MethodDocx),
			zap.Int("chars", len(text)),
		)
		return &Result{Text: text, Method: MethodDocx}, nil

	case ocrExtensions[ext]:
		lines, err := e.ocr.DetectLines(ctx, data, filename)
		if err != nil {
			return nil, fmt.Errorf("ocr extraction failed: %w", err)
		}
		res := aggregateLines(lines)
		logger.Info("Document extracted",
			zap.String("filename", filename),
			zap.String("method", MethodOCR),
			zap.Int("lines", res.LineCount),
			zap.Float64("confidence", res.Confidence),
		)
		return res, nil

	default:
		logger.Warn("Unsupported file type", zap.String("filename", filename))
		return &Result{
			Method: MethodUnsupported,
			Note:   fmt.Sprintf("Unsupported file type: .%s", ext),
		}, nil
	}
}

// aggregateLines joins OCR lines in reading order and reports the mean
// confidence and distinct-page count.
func aggregateLines(lines []Line) *Result {
	var sb strings.Builder
	var confidenceSum float64
	pages := map[int]bool{}

	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line.Text)
		confidenceSum += line.Confidence
		page := line.Page
		if page == 0 {
			page = 1
		}
		pages[page] = true
	}

	res := &Result{
		Text:      sb.String(),
		Method:    MethodOCR,
		LineCount: len(lines),
		PageCount: len(pages),
	}
	if len(lines) > 0 {
		res.Confidence = confidenceSum / float64(len(lines))
	}
	return res
}
