package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFTextOCR is a local OCR backend that extracts embedded text from PDF
// content streams via pdfcpu. It reports a per-line confidence derived
// from character-quality heuristics rather than a recognition model, and
// only handles PDFs with embedded text; scanned-image formats need a
// real OCR service.
type PDFTextOCR struct{}

func NewPDFTextOCR() *PDFTextOCR {
	return &PDFTextOCR{}
}

func (o *PDFTextOCR) DetectLines(ctx context.Context, data []byte, filename string) ([]Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext != "pdf" {
		return nil, fmt.Errorf("pdf text extractor cannot process .%s files", ext)
	}

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	var lines []Line
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, text := range extractPageLines(pdfCtx, pageNr) {
			lines = append(lines, Line{
				Text:       text,
				Confidence: lineConfidence(text),
				Page:       pageNr,
			})
		}
	}

	return lines, nil
}

func extractPageLines(ctx *model.Context, pageNr int) []string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return nil
	}

	var out []string
	for _, raw := range strings.Split(textFromContentStream(data), "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// textFromContentStream parses the text-showing operators (Tj, TJ, ')
// out of a PDF content stream, inserting line breaks on T* and '.
func textFromContentStream(data []byte) string {
	var sb strings.Builder

	for _, rawLine := range bytes.Split(data, []byte{'\n'}) {
		line := bytes.TrimSpace(rawLine)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")) || bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}

		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}

		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')

		case bytes.HasSuffix(line, []byte("Td")) || bytes.HasSuffix(line, []byte("TD")):
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

// decodePDFString handles the basic PDF escape sequences, including
// octal escapes like \040.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for j := 0; j < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; j++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// lineConfidence scores a line in [0,1] from the fraction of printable
// characters and word-like tokens. Garbage glyph runs from broken font
// encodings drag the score down.
func lineConfidence(text string) float64 {
	if text == "" {
		return 0
	}

	printable := 0
	total := 0
	for _, r := range text {
		total++
		if r >= 0xE000 && r <= 0xF8FF || r == 0xFFFD {
			continue
		}
		if unicode.IsPrint(r) {
			printable++
		}
	}
	printableRatio := float64(printable) / float64(total)

	fields := strings.Fields(text)
	wordlike := 0
	for _, f := range fields {
		if n := len([]rune(f)); n >= 2 && n <= 15 {
			wordlike++
		}
	}
	wordlikeRatio := 0.0
	if len(fields) > 0 {
		wordlikeRatio = float64(wordlike) / float64(len(fields))
	}

	return (printableRatio + wordlikeRatio) / 2
}
