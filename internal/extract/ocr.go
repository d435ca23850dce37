package extract

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// minOCRTextLen is the shortest OCR output treated as a real hit.
const minOCRTextLen = 10

// OCRRunner recognizes text in an image. Language is fixed to English.
type OCRRunner interface {
	Recognize(image []byte) (string, error)
}

// TesseractRunner shells out to the system tesseract binary.
type TesseractRunner struct{}

// Recognize runs tesseract with the image on stdin.
func (t *TesseractRunner) Recognize(image []byte) (string, error) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return "", fmt.Errorf("tesseract not found: %w", err)
	}
	cmd := exec.Command("tesseract", "stdin", "stdout", "-l", "eng")
	cmd.Stdin = bytes.NewReader(image)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return string(output), nil
}

// extractImage never fails: OCR problems degrade to an explanatory block.
func (e *Extractor) extractImage(filename string, data []byte) string {
	text, err := e.ocr.Recognize(data)
	if err != nil {
		return fmt.Sprintf("🖼️ Image %q uploaded.\n\n"+
			"OCR processing failed. Please describe what you see in the image "+
			"or what questions you have about it.", filename)
	}
	text = strings.TrimSpace(text)
	if len(text) <= minOCRTextLen {
		return fmt.Sprintf("🖼️ Image %q uploaded.\n\n"+
			"No readable text detected in this image. Please describe what you "+
			"see in the image or what questions you have about it.", filename)
	}
	return fmt.Sprintf("🖼️ Text extracted from image %q:\n\n%s", filename, text)
}
