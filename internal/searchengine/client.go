// Package searchengine implements the §6 Search Engine contract: an
// inverted-index backend with index lifecycle operations and per-document
// upsert/delete.
//
// No dedicated Elasticsearch/OpenSearch Go client appears anywhere in the
// example corpus's go.mod files, so this client is hand-rolled on raw
// net/http in the same idiom db/rdf4j.go uses for its RDF4J repository
// surface (explicit http.Client, fmt.Sprintf-built URLs, explicit
// status-code checks) rather than introducing an unseen driver.
package searchengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mu-semtech/delta-indexer/internal/errs"
)

// Client is the Search Engine contract spec §6 requires of the core.
type Client interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, name string, mappings, settings map[string]interface{}) error
	DeleteIndex(ctx context.Context, name string) error
	ClearIndex(ctx context.Context, name string) error
	RefreshIndex(ctx context.Context, name string) error
	UpsertDocument(ctx context.Context, name, id string, body map[string]interface{}) error
	DeleteDocument(ctx context.Context, name, id string) error
}

// HTTPClient is the net/http implementation of Client.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewHTTPClient builds a Client against baseURL (e.g.
// "http://elasticsearch:9200" or a compatible inverted-index service).
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{BaseURL: baseURL, HTTP: &http.Client{}}
}

func (c *HTTPClient) IndexExists(ctx context.Context, name string) (bool, error) {
	resp, err := c.do(ctx, http.MethodHead, c.indexURL(name), nil)
	if err != nil {
		if errs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	defer resp.Body.Close()
	return true, nil
}

func (c *HTTPClient) CreateIndex(ctx context.Context, name string, mappings, settings map[string]interface{}) error {
	body := map[string]interface{}{}
	if mappings != nil {
		body["mappings"] = mappings
	}
	if settings != nil {
		body["settings"] = settings
	}
	resp, err := c.do(ctx, http.MethodPut, c.indexURL(name), body)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *HTTPClient) DeleteIndex(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.indexURL(name), nil)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil
		}
		return err
	}
	return resp.Body.Close()
}

func (c *HTTPClient) ClearIndex(ctx context.Context, name string) error {
	body := map[string]interface{}{"query": map[string]interface{}{"match_all": map[string]interface{}{}}}
	resp, err := c.do(ctx, http.MethodPost, c.indexURL(name)+"/_delete_by_query", body)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *HTTPClient) RefreshIndex(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodPost, c.indexURL(name)+"/_refresh", nil)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *HTTPClient) UpsertDocument(ctx context.Context, name, id string, body map[string]interface{}) error {
	url := fmt.Sprintf("%s/_doc/%s", c.indexURL(name), id)
	resp, err := c.do(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *HTTPClient) DeleteDocument(ctx context.Context, name, id string) error {
	url := fmt.Sprintf("%s/_doc/%s", c.indexURL(name), id)
	resp, err := c.do(ctx, http.MethodDelete, url, nil)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil
		}
		return err
	}
	return resp.Body.Close()
}

func (c *HTTPClient) indexURL(name string) string {
	return fmt.Sprintf("%s/%s", c.BaseURL, name)
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body map[string]interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errs.NewTransportError("encoding request body", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errs.NewTransportError("building request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errs.NewTransportError("sending request to search engine", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, errs.NewNotFound(url)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, errs.NewQueryError(method+" "+url, fmt.Errorf("%s: %s", resp.Status, string(respBody)))
	}

	return resp, nil
}
