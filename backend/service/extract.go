package service

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/AnTengye/contractreview/backend/config"
)

// PreviewChars is the length of the text preview returned with an analysis.
const PreviewChars = 1000

// ExtractorService converts uploaded documents into plain text.
type ExtractorService struct {
	config *config.UploadConfig
}

func NewExtractorService(cfg *config.UploadConfig) *ExtractorService {
	return &ExtractorService{config: cfg}
}

// ValidateUpload checks the file extension and size against the upload limits.
func (s *ExtractorService) ValidateUpload(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.config.IsAllowedExtension(ext) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}
	if size > s.config.MaxFileSize() {
		return fmt.Errorf("%w: %d bytes > %d MB", ErrFileTooLarge, size, s.config.MaxFileSizeMB)
	}
	return nil
}

// ExtractText returns the plain text of a document whose type is given by ext
// (".pdf", ".docx", ".doc" or ".txt"). Failures wrap ErrExtraction;
// a readable document without text returns ErrEmptyDocument.
func (s *ExtractorService) ExtractText(data []byte, ext string) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(ext) {
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx", ".doc":
		text, err = extractDOCX(data)
		if err != nil && strings.EqualFold(ext, ".doc") {
			err = fmt.Errorf("legacy .doc files must be saved as .docx: %w", err)
		}
	case ".txt":
		text, err = decodeText(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	text = sanitizeText(text)
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// CleanText applies the size limit and sanitisation of uploads to pasted text.
func (s *ExtractorService) CleanText(text string) (string, error) {
	if int64(len(text)) > s.config.MaxFileSize() {
		return "", fmt.Errorf("%w: %d bytes > %d MB", ErrFileTooLarge, len(text), s.config.MaxFileSizeMB)
	}
	text = sanitizeText(text)
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// Preview returns the first PreviewChars characters of text, with "..." when cut.
func Preview(text string) string {
	cut, truncated := truncateText(text, PreviewChars)
	if truncated {
		return cut + "..."
	}
	return cut
}

func extractPDF(data []byte) (text string, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	return buf.String(), nil
}

// extractDOCX reads the paragraphs of word/document.xml.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("word/document.xml not found")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	var b strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

// decodeText reads UTF-8, falling back to GB18030 (a superset of GB2312/GBK).
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := simplifiedchinese.GB18030.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(decoded), nil
}

// sanitizeText drops NUL and other control characters except common whitespace.
func sanitizeText(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r < 0x20 || r == utf8.RuneError {
			return -1
		}
		return r
	}, s))
}
