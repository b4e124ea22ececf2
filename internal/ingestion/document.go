package ingestion

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for uploads that are not PDF, DOCX or plain text.
var ErrUnsupportedFormat = errors.New("unsupported file format: only pdf, docx and txt are allowed")

// ErrEmptyDocument is returned when a document yields no text.
var ErrEmptyDocument = errors.New("document contains no extractable text")

var xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// ExtractDocumentText returns cleaned plain text from an uploaded resume file.
// The format is chosen from the file extension.
func ExtractDocumentText(filename string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err = ExtractPDFText(data)
	case ".docx":
		text, err = extractDocxText(data)
	case ".txt", ".md":
		text = string(data)
	default:
		return "", ErrUnsupportedFormat
	}
	if err != nil {
		return "", err
	}

	text = CleanText(text)
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// ExtractPDFText reads the plain text layer of a PDF.
func ExtractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	rs, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rs); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return buf.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open DOCX body: %w", err)
		}
		defer rc.Close()

		body, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("failed to read DOCX body: %w", err)
		}
		xml := strings.ReplaceAll(string(body), "</w:p>", "\n")
		xml = strings.ReplaceAll(xml, "<w:tab/>", "\t")
		return xmlTagPattern.ReplaceAllString(xml, ""), nil
	}
	return "", errors.New("no document.xml found in DOCX")
}
