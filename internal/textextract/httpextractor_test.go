package textextract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPExtractorDecodesText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)
		w.Write([]byte(`{"text": "hello world"}`))
	}))
	defer srv.Close()

	ext := NewHTTPExtractor(srv.URL)
	text, err := ext.Extract(context.Background(), "a.pdf", []byte("pdf bytes"))
	require.NoError(t, err)
	require.NotNil(t, text)
	assert.Equal(t, "hello world", *text)
}

func TestHTTPExtractorNullText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": null}`))
	}))
	defer srv.Close()

	ext := NewHTTPExtractor(srv.URL)
	text, err := ext.Extract(context.Background(), "a.pdf", []byte("pdf bytes"))
	require.NoError(t, err)
	assert.Nil(t, text)
}

func TestHTTPExtractorErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ext := NewHTTPExtractor(srv.URL)
	_, err := ext.Extract(context.Background(), "a.pdf", []byte("pdf bytes"))
	assert.Error(t, err)
}
