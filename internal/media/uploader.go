package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	dErrors "campusvoice/pkg/domain-errors"
)

// HTTPUploader posts attachments to an external storage endpoint as multipart
// form data and expects `{"url": "..."}` back.
type HTTPUploader struct {
	endpoint string
	maxBytes int64
	client   *http.Client
}

func NewHTTPUploader(endpoint string, maxBytes int64) *HTTPUploader {
	return &HTTPUploader{
		endpoint: endpoint,
		maxBytes: maxBytes,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, filename string, content []byte) (Upload, error) {
	kind, err := Validate(filename, int64(len(content)), u.maxBytes)
	if err != nil {
		return Upload{}, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return Upload{}, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return Upload{}, fmt.Errorf("build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Upload{}, fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return Upload{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return Upload{}, fmt.Errorf("upload attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Upload{}, dErrors.New(dErrors.CodeInternal,
			fmt.Sprintf("storage endpoint returned %d: %s", resp.StatusCode, payload))
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Upload{}, fmt.Errorf("decode upload response: %w", err)
	}
	if result.URL == "" {
		return Upload{}, dErrors.New(dErrors.CodeInternal, "storage endpoint returned no URL")
	}
	return Upload{URL: result.URL, Kind: kind}, nil
}
