// remote.go — Client for a conversion service (see cmd/convertd).
package surface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// RemoteConfig configures RemoteConverter.
type RemoteConfig struct {
	BaseURL string // e.g. http://localhost:8000
	Timeout time.Duration
	Client  *http.Client
}

// RemoteConverter posts the upload as multipart field "file" to
// {BaseURL}/convert-docx (PDF back) or {BaseURL}/upload-docx (HTML back).
// Failed responses carry {"error": "..."}.
type RemoteConverter struct {
	base     string
	client   *http.Client
	sanitize *Sanitizer
}

// NewRemoteConverter creates a client. HTML replies are sanitized before use.
func NewRemoteConverter(cfg RemoteConfig) *RemoteConverter {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 2 * time.Minute
		}
		client = &http.Client{Timeout: timeout}
	}
	return &RemoteConverter{
		base:     strings.TrimRight(cfg.BaseURL, "/"),
		client:   client,
		sanitize: NewSanitizer(),
	}
}

// ToPDF calls /convert-docx.
func (c *RemoteConverter) ToPDF(ctx context.Context, name string, docx []byte) ([]byte, error) {
	body, err := c.post(ctx, "/convert-docx", name, docx)
	if err != nil {
		return nil, &ConvertError{Backend: "remote", Name: name, Err: err}
	}
	return body, nil
}

// ToHTML calls /upload-docx.
func (c *RemoteConverter) ToHTML(ctx context.Context, name string, docx []byte) (string, error) {
	body, err := c.post(ctx, "/upload-docx", name, docx)
	if err != nil {
		return "", &ConvertError{Backend: "remote", Name: name, Err: err}
	}
	return c.sanitize.HTML(string(body)), nil
}

func (c *RemoteConverter) post(ctx context.Context, path, name string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%s: %s (HTTP %d)", path, e.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("%s: HTTP %d", path, resp.StatusCode)
	}
	return body, nil
}
