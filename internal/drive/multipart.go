package drive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
)

const (
	// Boundary separates the metadata and content parts of an upload.
	Boundary = "-------314159265358979323846"

	// DocumentMimeType asks Drive to convert the upload into a Google Doc.
	DocumentMimeType = "application/vnd.google-apps.document"
)

type fileMetadata struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

// buildMultipartBody encodes metadata and plain-text content as multipart/related.
// It returns the body and the Content-Type header to send with it.
func buildMultipartBody(title, content string) (*bytes.Buffer, string, error) {
	meta, err := json.Marshal(fileMetadata{Name: title, MimeType: DocumentMimeType})
	if err != nil {
		return nil, "", fmt.Errorf("encode metadata: %w", err)
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if err := w.SetBoundary(Boundary); err != nil {
		return nil, "", fmt.Errorf("set boundary: %w", err)
	}

	parts := []struct {
		contentType string
		data        []byte
	}{
		{"application/json; charset=UTF-8", meta},
		{"text/plain; charset=UTF-8", []byte(content)},
	}

	for _, p := range parts {
		pw, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, "", fmt.Errorf("create part: %w", err)
		}
		if _, err := pw.Write(p.data); err != nil {
			return nil, "", fmt.Errorf("write part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}

	return body, fmt.Sprintf(`multipart/related; boundary="%s"`, Boundary), nil
}
