package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultMaxPDFChars caps the text extracted from a PDF.
const DefaultMaxPDFChars = 100000

// ReadText loads distillation input from path. Files ending in .pdf are
// converted to plain text and capped at maxChars characters (DefaultMaxPDFChars
// when maxChars <= 0); anything else is read as UTF-8 text.
func ReadText(path string, maxChars int) (string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(data), nil
	}

	if maxChars <= 0 {
		maxChars = DefaultMaxPDFChars
	}
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("extract pdf %s: %w", path, err)
	}
	return truncate(buf.String(), maxChars), nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
