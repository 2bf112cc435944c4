package preview

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"regexp"
	"strings"

	"foldersort/internal/errkind"
)

// errUnsupported signals an extractor declined a file it nominally
// Accepts (e.g. a corrupt archive); Registry.Extract treats it the same
// as any other failure and falls through to the next candidate.
var errUnsupported = errors.New("preview: extractor does not support this file")

// OfficeExtractor pulls the visible text runs out of an Office Open XML
// document (.docx/.xlsx/.pptx), which are zip archives containing XML
// parts. Built directly on archive/zip plus a regular expression over
// the XML text runs; see DESIGN.md for why no third-party library
// covers this.
type OfficeExtractor struct{}

var officeXMLParts = []string{
	"word/document.xml",
	"xl/sharedStrings.xml",
	"ppt/slides/slide1.xml",
}

func (OfficeExtractor) Accepts(mime string) bool {
	mime = strings.ToLower(mime)
	return strings.Contains(mime, "officedocument") || strings.Contains(mime, "ms-word") ||
		strings.Contains(mime, "ms-excel") || strings.Contains(mime, "ms-powerpoint")
}

func (OfficeExtractor) Extract(path string, maxBytes int) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("opening %s as office archive: %w: %w", path, errkind.IO, err)
	}
	defer zr.Close()

	var text strings.Builder
	for _, name := range officeXMLParts {
		f, ok := findZipFile(zr, name)
		if !ok {
			continue
		}
		if err := extractXMLText(f, &text, maxBytes); err != nil {
			continue
		}
		if text.Len() >= maxBytes {
			break
		}
	}
	if text.Len() == 0 {
		return "", errUnsupported
	}
	out := text.String()
	if len(out) > maxBytes {
		out = out[:maxBytes]
	}
	return strings.TrimSpace(out), nil
}

func findZipFile(zr *zip.ReadCloser, name string) (*zip.File, bool) {
	for _, f := range zr.File {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// officeTextRun matches the text content of a <w:t> or <t> run element,
// which is where OOXML stores literal document text.
var officeTextRun = regexp.MustCompile(`<(?:\w+:)?t[^>]*>([^<]*)</(?:\w+:)?t>`)

func extractXMLText(f *zip.File, out *strings.Builder, maxBytes int) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, int64(maxBytes)*4))
	if err != nil {
		return err
	}
	for _, m := range officeTextRun.FindAllSubmatch(data, -1) {
		out.WriteString(decodeXMLEntities(string(m[1])))
		out.WriteByte(' ')
		if out.Len() >= maxBytes {
			return nil
		}
	}
	return nil
}

var xmlEntityReplacer = strings.NewReplacer(
	"&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'",
)

func decodeXMLEntities(s string) string {
	return xmlEntityReplacer.Replace(s)
}

// EmailExtractor previews an RFC 5322 message's subject, from, and
// leading body text.
type EmailExtractor struct{}

func (EmailExtractor) Accepts(mime string) bool {
	mime = strings.ToLower(mime)
	return mime == "message/rfc822" || strings.HasSuffix(mime, "/eml")
}

func (EmailExtractor) Extract(path string, maxBytes int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s as email: %w: %w", path, errkind.IO, err)
	}
	defer f.Close()

	msg, err := mail.ReadMessage(f)
	if err != nil {
		return "", fmt.Errorf("parsing %s as email: %w: %w", path, errkind.Parse, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Subject: %s\nFrom: %s\n\n", msg.Header.Get("Subject"), msg.Header.Get("From"))
	body, _ := io.ReadAll(io.LimitReader(msg.Body, int64(maxBytes)))
	sb.Write(body)

	out := sb.String()
	if len(out) > maxBytes {
		out = out[:maxBytes]
	}
	return strings.TrimSpace(out), nil
}

// PDFExtractor performs a best-effort scan for literal text-showing
// operators in uncompressed PDF content streams. It does not decode
// Flate-compressed streams or fonts with custom encodings; when it finds
// nothing it returns errUnsupported so the registry falls through to the
// binary-preview fallback rather than emitting an empty prompt.
type PDFExtractor struct{}

func (PDFExtractor) Accepts(mime string) bool {
	return strings.EqualFold(mime, "application/pdf")
}

var pdfShowTextOp = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj`)

func (PDFExtractor) Extract(path string, maxBytes int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("opening %s as pdf: %w: %w", path, errkind.IO, err)
	}
	if len(data) > maxBytes*8 {
		data = data[:maxBytes*8]
	}

	var sb strings.Builder
	for _, m := range pdfShowTextOp.FindAllSubmatch(data, -1) {
		sb.Write(m[1])
		sb.WriteByte(' ')
		if sb.Len() >= maxBytes {
			break
		}
	}
	if sb.Len() == 0 {
		return "", errUnsupported
	}
	out := sb.String()
	if len(out) > maxBytes {
		out = out[:maxBytes]
	}
	return strings.TrimSpace(out), nil
}

// OCRExtractor and EbookExtractor are declared, unimplemented pluggable
// slots behind the same Extractor interface as the rest. Both decline
// every file so the registry falls back to the binary/text extractor;
// wiring a real backend (e.g. tesseract via cgo, or an epub/mobi
// parser) is future work, not a silent feature gap.
type OCRExtractor struct{}

func (OCRExtractor) Accepts(mime string) bool { return false }
func (OCRExtractor) Extract(path string, maxBytes int) (string, error) {
	return "", errUnsupported
}

type EbookExtractor struct{}

func (EbookExtractor) Accepts(mime string) bool { return false }
func (EbookExtractor) Extract(path string, maxBytes int) (string, error) {
	return "", errUnsupported
}
