package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Format is the detected container format of a document buffer.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatUnknown Format = "unknown"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrDocumentTooLarge is returned when a buffer exceeds the configured size or page bound.
var ErrDocumentTooLarge = errors.New("document too large")

var errUnsupportedFormat = errors.New("unsupported document format")

// Limits bounds the work a single extraction may do. Zero values disable a bound.
type Limits struct {
	MaxBytes int64
	MaxPages int
}

// DefaultLimits returns the bounds used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxBytes: 10 << 20, // 10MB
		MaxPages: 50,
	}
}

// Extraction reports what was pulled out of a buffer.
type Extraction struct {
	Text        string
	Format      Format
	Pages       int
	FailedPages []int
	// Cause is set when the buffer could not be parsed at all. Text is empty then.
	Cause error
}

// Extractor converts document buffers to plain text.
// Libraries used: github.com/ledongthuc/pdf (PDF); DOCX is read from its OOXML zip directly.
type Extractor struct {
	limits Limits
}

// New constructs an Extractor with the given limits.
func New(limits Limits) *Extractor {
	return &Extractor{limits: limits}
}

// Limits returns the configured bounds.
func (e *Extractor) Limits() Limits {
	return e.limits
}

// Extract pulls text out of data. Parse failures never produce an error: an
// unreadable buffer yields empty Text with Cause set, and unreadable pages
// contribute nothing while the remaining pages are still read. The only error
// returned is ErrDocumentTooLarge.
func (e *Extractor) Extract(data []byte) (Extraction, error) {
	if e.limits.MaxBytes > 0 && int64(len(data)) > e.limits.MaxBytes {
		return Extraction{Format: FormatUnknown}, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrDocumentTooLarge, len(data), e.limits.MaxBytes)
	}

	switch DetectFormat(data) {
	case FormatPDF:
		return extractPDF(data, e.limits.MaxPages)
	case FormatDOCX:
		return extractDOCX(data), nil
	default:
		return Extraction{Format: FormatUnknown, Cause: errUnsupportedFormat}, nil
	}
}

// DetectFormat sniffs the container format from the buffer contents.
func DetectFormat(data []byte) Format {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return FormatPDF
	}
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) && mapOOXMLFromZip(data) == MimeDOCX {
		return FormatDOCX
	}
	return FormatUnknown
}

// MimeType returns the canonical MIME type for a detected format.
func MimeType(f Format) string {
	switch f {
	case FormatPDF:
		return MimePDF
	case FormatDOCX:
		return MimeDOCX
	default:
		return "application/octet-stream"
	}
}

func extractPDF(data []byte, maxPages int) (Extraction, error) {
	out := Extraction{Format: FormatPDF}

	reader, pages, err := openPDF(data)
	if err != nil {
		out.Cause = err
		return out, nil
	}
	out.Pages = pages
	if maxPages > 0 && pages > maxPages {
		return out, fmt.Errorf("%w: %d pages exceeds limit of %d", ErrDocumentTooLarge, pages, maxPages)
	}

	var buf strings.Builder
	for i := 1; i <= pages; i++ {
		text, err := pageText(reader, i)
		if err != nil {
			out.FailedPages = append(out.FailedPages, i)
			continue
		}
		buf.WriteString(text)
	}
	out.Text = buf.String()
	if pages == 0 {
		out.Cause = errors.New("pdf has no pages")
	}
	return out, nil
}

// openPDF guards the parser; malformed cross-reference data can panic inside it.
func openPDF(data []byte) (reader *pdf.Reader, pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reader, pages, err = nil, 0, fmt.Errorf("parse pdf: %v", rec)
		}
	}()
	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("parse pdf: %w", err)
	}
	return reader, reader.NumPage(), nil
}

func pageText(reader *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("page %d: %v", n, rec)
		}
	}()
	page := reader.Page(n)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: missing page object", n)
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", n, err)
	}
	return text, nil
}

func extractDOCX(data []byte) Extraction {
	out := Extraction{Format: FormatDOCX}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		out.Cause = fmt.Errorf("open docx: %w", err)
		return out
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		out.Cause = errors.New("document.xml file not found")
		return out
	}

	rc, err := docFile.Open()
	if err != nil {
		out.Cause = fmt.Errorf("open document.xml: %w", err)
		return out
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		out.Cause = fmt.Errorf("read document.xml: %w", err)
		return out
	}

	text, err := stripDocxXML(raw)
	if err != nil {
		out.Cause = fmt.Errorf("decode document.xml: %w", err)
		return out
	}
	out.Pages = 1
	out.Text = text
	return out
}

func stripDocxXML(raw []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		switch strings.ReplaceAll(f.Name, "\\", "/") {
		case "word/document.xml":
			return MimeDOCX
		case "xl/workbook.xml":
			return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		case "ppt/presentation.xml":
			return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
		}
	}
	return ""
}
