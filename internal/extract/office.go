package extract

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxSlides bounds the slide scan for PPTX decks.
const maxSlides = 50

var (
	wordRunPattern  = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	slideRunPattern = regexp.MustCompile(`<a:t[^>]*>([^<]+)<`)
)

func extractDOCX(filename string, data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}
	raw, err := readArchiveFile(reader, "word/document.xml")
	if err != nil {
		return "", fmt.Errorf("read docx body: %w", err)
	}
	var runs []string
	for _, match := range wordRunPattern.FindAllStringSubmatch(string(raw), -1) {
		if text := html.UnescapeString(match[1]); text != "" {
			runs = append(runs, text)
		}
	}
	body := strings.TrimSpace(strings.Join(runs, " "))
	if body == "" {
		return "", fmt.Errorf("no text content found in Word document")
	}
	return fmt.Sprintf("📝 Word Document Content from %q:\n\n%s", filename, body), nil
}

func extractPPTX(filename string, data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pptx archive: %w", err)
	}
	var sections []string
	for i := 1; i <= maxSlides; i++ {
		raw, err := readArchiveFile(reader, fmt.Sprintf("ppt/slides/slide%d.xml", i))
		if err != nil {
			continue
		}
		var runs []string
		for _, match := range slideRunPattern.FindAllStringSubmatch(string(raw), -1) {
			runs = append(runs, html.UnescapeString(match[1]))
		}
		slideText := strings.TrimSpace(strings.Join(runs, " "))
		if slideText != "" {
			sections = append(sections, fmt.Sprintf("Slide %d: %s", i, slideText))
		}
	}
	if len(sections) == 0 {
		return "", fmt.Errorf("no text content found in PowerPoint")
	}
	return fmt.Sprintf("📊 PowerPoint Content from %q:\n\n%s", filename, strings.Join(sections, "\n\n")), nil
}

func extractXLSX(filename string, data []byte) (string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx workbook: %w", err)
	}
	defer workbook.Close()

	var sb strings.Builder
	for _, sheetName := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheetName)
		if err != nil {
			continue
		}
		sheetCSV, err := rowsToCSV(rows)
		if err != nil || strings.TrimSpace(sheetCSV) == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n\nSheet %q:\n%s", sheetName, sheetCSV))
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("no data found in Excel file")
	}
	return fmt.Sprintf("📊 Excel Content from %q:%s", filename, sb.String()), nil
}

func rowsToCSV(rows [][]string) (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func readArchiveFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not present in archive", name)
}
