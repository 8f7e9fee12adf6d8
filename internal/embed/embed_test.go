package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/chunklink/internal/config"
)

// Test Plan for the embedding providers:
// - HTTP provider posts {"texts": [...]} and returns index-aligned vectors
// - Count and dimension drift fail with the sentinel errors
// - Non-200 responses and context cancellation surface as errors
// - Empty input makes no request
// - Mock provider is deterministic
// - Cached provider only embeds misses and preserves order

func newServer(t *testing.T, handler func(req embedRequest) (int, any)) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		status, body := handler(req)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func providerFor(url string, dims int) *HTTPProvider {
	return NewHTTPProvider(config.EmbeddingConfig{Endpoint: url, Dimensions: dims, TimeoutSeconds: 5})
}

func TestHTTPProvider_Embed(t *testing.T) {
	t.Parallel()

	srv, calls := newServer(t, func(req embedRequest) (int, any) {
		out := make([][]float32, len(req.Texts))
		for i := range req.Texts {
			out[i] = []float32{float32(i), 1}
		}
		return http.StatusOK, embedResponse{Embeddings: out}
	})

	p := providerFor(srv.URL, 2)
	vectors, err := p.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}, {2, 1}}, vectors)
	assert.Equal(t, 1, *calls, "all texts go in one request")
	assert.Equal(t, 2, p.Dimensions())
}

func TestHTTPProvider_EmptyInput(t *testing.T) {
	t.Parallel()

	srv, calls := newServer(t, func(req embedRequest) (int, any) {
		return http.StatusOK, embedResponse{}
	})

	vectors, err := providerFor(srv.URL, 2).Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, *calls)
}

func TestHTTPProvider_Drift(t *testing.T) {
	t.Parallel()

	t.Run("count", func(t *testing.T) {
		t.Parallel()
		srv, _ := newServer(t, func(req embedRequest) (int, any) {
			return http.StatusOK, embedResponse{Embeddings: [][]float32{{1, 2}}}
		})
		_, err := providerFor(srv.URL, 2).Embed(context.Background(), []string{"a", "b"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCountMismatch)
	})

	t.Run("dimension", func(t *testing.T) {
		t.Parallel()
		srv, _ := newServer(t, func(req embedRequest) (int, any) {
			return http.StatusOK, embedResponse{Embeddings: [][]float32{{1, 2}, {1, 2, 3}}}
		})
		_, err := providerFor(srv.URL, 2).Embed(context.Background(), []string{"a", "b"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestHTTPProvider_ServerError(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, func(req embedRequest) (int, any) {
		return http.StatusInternalServerError, map[string]string{"error": "model not loaded"}
	})

	_, err := providerFor(srv.URL, 2).Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestHTTPProvider_Cancelled(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, func(req embedRequest) (int, any) {
		return http.StatusOK, embedResponse{Embeddings: [][]float32{{1, 2}}}
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := providerFor(srv.URL, 2).Embed(ctx, []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockProvider_Deterministic(t *testing.T) {
	t.Parallel()

	p := NewMockProvider(16)
	a, err := p.Embed(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), []string{"hello"})
	require.NoError(t, err)

	assert.Equal(t, a[0], b[0])
	assert.NotEqual(t, a[0], a[1])
	assert.Len(t, a[0], 16)
	assert.NoError(t, Validate(a, 2, 16))
	assert.Equal(t, 2, p.Calls())
}

func TestCachedProvider(t *testing.T) {
	t.Parallel()

	inner := NewMockProvider(8)
	p, err := NewCachedProvider(inner, 100, time.Hour)
	require.NoError(t, err)
	defer p.Close()

	first, err := p.Embed(context.Background(), []string{"q1", "q2"})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.Calls())

	second, err := p.Embed(context.Background(), []string{"q2", "q3", "q1"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.Calls(), "only q3 is embedded")
	assert.Equal(t, first[1], second[0])
	assert.Equal(t, first[0], second[2])

	_, err = p.Embed(context.Background(), []string{"q1"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.Calls(), "fully cached queries make no call")
	assert.Equal(t, 8, p.Dimensions())
}
