package embed

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCountMismatch indicates the service returned a different number of vectors than texts sent.
	ErrCountMismatch = errors.New("embedding count mismatch")

	// ErrDimensionMismatch indicates a returned vector has the wrong length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Provider defines the interface for embedding text into vectors.
type Provider interface {
	// Embed converts texts into vectors, index-aligned with the input.
	// Implementations fail rather than return a misaligned or wrongly sized result.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of the embedding vectors produced by this provider.
	Dimensions() int

	// Close releases any resources held by the provider.
	Close() error
}

// Validate checks that vectors line up 1:1 with n texts and all have the given dimension.
func Validate(vectors [][]float32, n, dimensions int) error {
	if len(vectors) != n {
		return fmt.Errorf("%w: sent %d texts, received %d vectors", ErrCountMismatch, n, len(vectors))
	}
	for i, v := range vectors {
		if len(v) != dimensions {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d", ErrDimensionMismatch, i, len(v), dimensions)
		}
	}
	return nil
}
