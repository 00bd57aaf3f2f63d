package searchengine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mu-semtech/delta-indexer/internal/errs"
)

func TestIndexExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	ok, err := c.IndexExists(context.Background(), "documents-abc123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIndexExistsFalseOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	ok, err := c.IndexExists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteDocumentIgnoresNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	err := c.DeleteDocument(context.Background(), "documents-abc123", "http://example.org/s1")
	assert.NoError(t, err)
}

func TestUpsertDocumentSendsBody(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	err := c.UpsertDocument(context.Background(), "documents-abc123", "http://example.org/s1", map[string]interface{}{"title": "hello"})
	require.NoError(t, err)
	assert.Contains(t, gotPath, "/documents-abc123/_doc/")
}

func TestServerErrorYieldsQueryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	err := c.RefreshIndex(context.Background(), "documents-abc123")
	require.Error(t, err)
	assert.False(t, errs.IsNotFound(err))
}
