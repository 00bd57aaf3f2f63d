package textextract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/mu-semtech/delta-indexer/internal/errs"
)

// HTTPExtractor implements Extractor against the external Text Extractor
// service (spec §6 "extract(path, bytes) -> string|null"), a multipart
// file upload returning extracted text as JSON — the shape the
// mu-semtech file-text-extraction ecosystem convention uses, with the
// same explicit http.Client/status-check idiom as db/rdf4j.go and
// internal/searchengine/client.go in this codebase.
type HTTPExtractor struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPExtractor builds an HTTPExtractor against baseURL.
func NewHTTPExtractor(baseURL string) *HTTPExtractor {
	return &HTTPExtractor{BaseURL: baseURL, Client: &http.Client{}}
}

type extractResponse struct {
	Text *string `json:"text"`
}

// Extract uploads data as a single-part multipart form and decodes the
// {text: string|null} response. A nil result (no error) means the
// extractor found no text to extract.
func (e *HTTPExtractor) Extract(ctx context.Context, path string, data []byte) (*string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", path)
	if err != nil {
		return nil, errs.NewExtractorError(path, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, errs.NewExtractorError(path, err)
	}
	if err := writer.Close(); err != nil {
		return nil, errs.NewExtractorError(path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/extract", &body)
	if err != nil {
		return nil, errs.NewExtractorError(path, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, errs.NewExtractorError(path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, errs.NewExtractorError(path, fmt.Errorf("extractor returned %s", resp.Status))
	}

	var decoded extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errs.NewExtractorError(path, err)
	}
	return decoded.Text, nil
}
