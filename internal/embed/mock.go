package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// MockProvider generates deterministic embeddings from a hash of each text.
type MockProvider struct {
	dimensions int
	calls      int
}

// NewMockProvider creates a mock embedding provider for testing.
func NewMockProvider(dimensions int) *MockProvider {
	return &MockProvider{dimensions: dimensions}
}

// Embed generates mock embeddings by hashing the input text.
func (p *MockProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.calls++

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		hash := sha256.Sum256([]byte(text))

		embedding := make([]float32, p.dimensions)
		for j := 0; j < p.dimensions; j++ {
			offset := (j * 4) % len(hash)
			val := binary.BigEndian.Uint32(hash[offset : offset+4])
			// [-1, 1]
			embedding[j] = (float32(val)/float32(1<<32))*2.0 - 1.0
		}
		embeddings[i] = embedding
	}

	return embeddings, nil
}

// Calls returns how many times Embed was invoked.
func (p *MockProvider) Calls() int {
	return p.calls
}

// Dimensions returns the dimensionality of mock embeddings.
func (p *MockProvider) Dimensions() int {
	return p.dimensions
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}
