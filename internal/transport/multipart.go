package transport

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Multipart accumulates the parts of a multipart/form-data body. Parts are
// written in the order they were added.
type Multipart struct {
	parts []formPart
}

type formPart struct {
	name        string
	value       string
	fileName    string
	contentType string
	file        io.Reader
}

// AddField appends a plain text field.
func (m *Multipart) AddField(name, value string) {
	m.parts = append(m.parts, formPart{name: name, value: value})
}

// AddFile appends a file field with an explicit content type.
func (m *Multipart) AddFile(name, fileName, contentType string, r io.Reader) {
	m.parts = append(m.parts, formPart{name: name, fileName: fileName, contentType: contentType, file: r})
}

// Encode renders the form and returns the body with its Content-Type header
// value (including the boundary).
func (m *Multipart) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range m.parts {
		if p.file == nil {
			if err := w.WriteField(p.name, p.value); err != nil {
				return nil, "", fmt.Errorf("write field %s: %w", p.name, err)
			}
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(p.name), escapeQuotes(p.fileName)))
		h.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", p.name, err)
		}
		if _, err := io.Copy(pw, p.file); err != nil {
			return nil, "", fmt.Errorf("copy file %s: %w", p.fileName, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }
