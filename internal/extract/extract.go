package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"resume-feedback/internal/shared/storage/object"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrInputEmpty is returned when a document yields no readable text.
var ErrInputEmpty = errors.New("document contains no extractable text")

// Document is an uploaded resume file.
type Document struct {
	// Key locates the stored original; when set the extracted text is saved next to it.
	Key      string
	Data     []byte
	MimeType string
	FileName string
}

// Extractor pulls plain text out of uploaded resumes.
type Extractor struct {
	Store object.ObjectStore
}

// Extract returns the document text. Data is read from the store when not supplied inline.
func (e Extractor) Extract(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data := doc.Data
	if len(data) == 0 && doc.Key != "" && e.Store != nil {
		body, err := e.Store.Open(ctx, doc.Key)
		if err != nil {
			return "", fmt.Errorf("extract text key=%s: %w", doc.Key, err)
		}
		defer body.Close()
		if data, err = io.ReadAll(body); err != nil {
			return "", fmt.Errorf("extract text key=%s: read: %w", doc.Key, err)
		}
	}

	text, err := ExtractTextFromBytes(ctx, data, doc.MimeType, doc.FileName)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s mime=%s: %w", doc.Key, doc.MimeType, err)
	}

	if doc.Key != "" && e.Store != nil {
		if err := saveExtracted(ctx, e.Store, doc.Key+".extracted.txt", text); err != nil {
			return "", fmt.Errorf("extract text key=%s: %w", doc.Key, err)
		}
	}
	return text, nil
}

// ExtractTextFromBytes extracts text from an in-memory payload.
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrInputEmpty
	}
	var (
		text string
		err  error
	)
	normalized := normalizeMimeType(mimeType, fileName, data)
	switch normalized {
	case mimePDF:
		text, err = extractPDF(data)
	case mimeDOCX:
		text, err = extractDOCX(data)
	default:
		return "", fmt.Errorf("unsupported mime type: %s", normalized)
	}
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrInputEmpty
	}
	return text, nil
}

func saveExtracted(ctx context.Context, store object.ObjectStore, key string, text string) error {
	_, err := store.SaveWithKey(ctx, key, "text/plain; charset=utf-8", strings.NewReader(text))
	return err
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	return stripDocxXML(string(raw)), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if last := buf.Len(); last > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean == "" || clean == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(fileName)) {
		case ".pdf":
			return mimePDF
		case ".docx":
			return mimeDOCX
		}
	}
	if clean != "application/zip" {
		return clean
	}

	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == ".docx" {
		return mimeDOCX
	}
	return clean
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == "word/document.xml" {
			return mimeDOCX
		}
	}
	return ""
}
