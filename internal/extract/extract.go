// Package extract produces a best-effort plain-text representation of
// uploaded study materials for consumption by the chat assistant.
package extract

import (
	"fmt"
	"strings"
)

// Format identifies a supported extraction route.
type Format int

const (
	FormatUnsupported Format = iota
	FormatPDF
	FormatDOCX
	FormatDOC
	FormatPPTX
	FormatXLSX
	FormatText
	FormatCSV
	FormatImage
)

const (
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeDOC  = "application/msword"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF  = "application/pdf"
)

// maxTextBytes caps extracted output before the truncation notice is appended.
const maxTextBytes = 500000

const truncationNotice = "\n\n[Content truncated due to length - this is the first 500KB of text]"

// DetectFormat maps a declared MIME type (with filename fallback for text
// formats) onto an extraction route.
func DetectFormat(mimeType, filename string) Format {
	name := strings.ToLower(filename)
	switch mimeType {
	case mimePDF:
		return FormatPDF
	case mimeDOCX:
		return FormatDOCX
	case mimeDOC:
		return FormatDOC
	case mimePPTX:
		return FormatPPTX
	case mimeXLSX:
		return FormatXLSX
	case "text/plain", "text/markdown":
		return FormatText
	case "text/csv":
		return FormatCSV
	}
	if strings.HasPrefix(mimeType, "image/") {
		return FormatImage
	}
	switch {
	case strings.HasSuffix(name, ".txt"), strings.HasSuffix(name, ".md"):
		return FormatText
	case strings.HasSuffix(name, ".csv"):
		return FormatCSV
	}
	return FormatUnsupported
}

// Extractor dispatches uploads to format-specific handlers.
type Extractor struct {
	ocr OCRRunner
}

// New builds an extractor. A nil OCR runner falls back to the system
// tesseract binary.
func New(ocr OCRRunner) *Extractor {
	if ocr == nil {
		ocr = &TesseractRunner{}
	}
	return &Extractor{ocr: ocr}
}

// Extract returns a plain-text rendering of the file content. Errors are
// expected for malformed or empty inputs; callers convert them into a
// user-facing fallback message rather than failing the request.
func (e *Extractor) Extract(filename, mimeType string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch DetectFormat(mimeType, filename) {
	case FormatPDF:
		text = pdfUnsupportedMessage(filename)
	case FormatDOCX:
		text, err = extractDOCX(filename, data)
	case FormatDOC:
		text = docLegacyMessage(filename)
	case FormatPPTX:
		text, err = extractPPTX(filename, data)
	case FormatXLSX:
		text, err = extractXLSX(filename, data)
	case FormatText:
		text, err = extractPlainText(filename, data)
	case FormatCSV:
		text, err = extractCSV(filename, data)
	case FormatImage:
		text = e.extractImage(filename, data)
	default:
		return "", fmt.Errorf("unsupported file type: %s", mimeType)
	}
	if err != nil {
		return "", err
	}
	return truncate(text), nil
}

// FallbackMessage renders the explanatory block shown when extraction fails.
func FallbackMessage(filename, mimeType string, err error) string {
	reason := "Unknown error"
	if err != nil {
		reason = err.Error()
	}
	return fmt.Sprintf("❌ Could not extract content from %q\n\n"+
		"File type: %s\nError: %s\n\n"+
		"Please try:\n"+
		"1. Converting to a supported format (.docx, .pptx, .xlsx, .txt)\n"+
		"2. Copy-pasting the content you want to discuss\n"+
		"3. Describing the key points from the document", filename, mimeType, reason)
}

func pdfUnsupportedMessage(filename string) string {
	return fmt.Sprintf("📄 PDF File: %q\n\n"+
		"PDF processing has been disabled due to technical limitations. Please:\n\n"+
		"1. Convert your PDF to a Word document (.docx) for full text extraction\n"+
		"2. Copy and paste the text content you want to discuss\n"+
		"3. Upload individual pages as images if you need specific sections analyzed\n"+
		"4. Describe the key points from the PDF you'd like help with\n\n"+
		"Sorry for the inconvenience!", filename)
}

func docLegacyMessage(filename string) string {
	return fmt.Sprintf("📝 Word Document: %q\n\n"+
		"Legacy .doc format detected. Please save as .docx for full text extraction, "+
		"or copy and paste the content you want to discuss.", filename)
}

func extractPlainText(filename string, data []byte) (string, error) {
	content := normalizeUTF8(data)
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("text file is empty")
	}
	return fmt.Sprintf("📄 Text Content from %q:\n\n%s", filename, content), nil
}

func extractCSV(filename string, data []byte) (string, error) {
	content := normalizeUTF8(data)
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("csv file is empty")
	}
	return fmt.Sprintf("📊 CSV Data from %q:\n\n%s", filename, content), nil
}

func normalizeUTF8(data []byte) string {
	text := strings.ReplaceAll(string(data), "\x00", " ")
	return strings.ToValidUTF8(text, "")
}

func truncate(text string) string {
	if len(text) <= maxTextBytes {
		return text
	}
	cut := text[:maxTextBytes]
	// Do not split a multi-byte rune at the boundary.
	cut = strings.ToValidUTF8(cut, "")
	return cut + truncationNotice
}
