package store

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nguyenthenguyen/docx"
)

// Supported resume document types
const (
	MimeText     = "text/plain"
	MimeMarkdown = "text/markdown"
	MimePDF      = "application/pdf"
	MimeDocx     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// MimeFromName guesses a document type from its file extension. Unknown
// extensions return "".
func MimeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text":
		return MimeText
	case ".md", ".markdown":
		return MimeMarkdown
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDocx
	}
	return ""
}

// ExtractText returns the plain text of a resume document.
func ExtractText(mime string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch mime {
	case MimeText, MimeMarkdown:
		text = string(data)
	case MimePDF:
		text, err = extractPDFText(data)
	case MimeDocx:
		text, err = extractDocxText(data)
	default:
		return "", fmt.Errorf("unsupported file type: %s", mime)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

var (
	xmlPolicyOnce sync.Once
	xmlPolicy     *bluemonday.Policy
)

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	// GetContent is the document.xml body; keep paragraph breaks and drop
	// the markup.
	content := doc.Editable().GetContent()
	content = strings.ReplaceAll(content, "</w:p>", "</w:p>\n")
	xmlPolicyOnce.Do(func() { xmlPolicy = bluemonday.StrictPolicy() })
	return html.UnescapeString(xmlPolicy.Sanitize(content)), nil
}
