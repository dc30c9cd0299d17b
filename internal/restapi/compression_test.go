package restapi

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressionMiddleware(t *testing.T) {
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		largeResponse := strings.Repeat(`{"test": "data"}`, 1000)
		_, _ = w.Write([]byte(largeResponse))
	})

	t.Run("compresses response when gzip accepted", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Accept-Encoding", "gzip")

		recorder := httptest.NewRecorder()
		CompressionMiddleware(testHandler).ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "gzip", recorder.Header().Get("Content-Encoding"))

		reader, err := gzip.NewReader(bytes.NewReader(recorder.Body.Bytes()))
		require.NoError(t, err)
		defer func() { _ = reader.Close() }()

		decompressed, err := io.ReadAll(reader)
		require.NoError(t, err)

		expected := strings.Repeat(`{"test": "data"}`, 1000)
		assert.Equal(t, expected, string(decompressed))
		assert.Less(t, recorder.Body.Len(), len(expected))
	})

	t.Run("does not compress when gzip not accepted", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)

		recorder := httptest.NewRecorder()
		CompressionMiddleware(testHandler).ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Empty(t, recorder.Header().Get("Content-Encoding"))
		assert.Equal(t, strings.Repeat(`{"test": "data"}`, 1000), recorder.Body.String())
	})

	t.Run("handles empty responses", func(t *testing.T) {
		emptyHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Accept-Encoding", "gzip")

		recorder := httptest.NewRecorder()
		CompressionMiddleware(emptyHandler).ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.Empty(t, recorder.Body.String())
	})

	t.Run("leaves search streams uncompressed", func(t *testing.T) {
		streamHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", ndjsonContentType)
			_, _ = w.Write([]byte(strings.Repeat(`{"type":"progress"}`+"\n", 200)))
		})

		req := httptest.NewRequest("POST", "/api/sessions/x/search", nil)
		req.Header.Set("Accept-Encoding", "gzip")

		recorder := httptest.NewRecorder()
		CompressionMiddleware(streamHandler).ServeHTTP(recorder, req)

		assert.Empty(t, recorder.Header().Get("Content-Encoding"))
		assert.Equal(t, ndjsonContentType, recorder.Header().Get("Content-Type"))
	})
}

func TestCompressionConfig(t *testing.T) {
	config := DefaultCompressionConfig()
	assert.Equal(t, 1024, config.MinSize)
	assert.Equal(t, 6, config.Level)
}
