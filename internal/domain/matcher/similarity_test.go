package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical ignoring case", "Coffee Shop", "COFFEE SHOP", 1},
		{"containment", "POS COFFEE SHOP 1234", "coffee shop", 1},
		{"empty side", "", "Coffee", 0},
		{"whitespace collapsed", "Coffee   Shop", "coffee shop", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Similarity(tt.a, tt.b))
		})
	}
}

func TestSimilarity_Ranks(t *testing.T) {
	close := Similarity("gas station a", "gas station b")
	far := Similarity("gas station a", "pharmacy")

	assert.Greater(t, close, far)
	assert.Greater(t, close, 0.5)
	assert.Less(t, far, 0.5)
}

func TestTokenOverlap(t *testing.T) {
	assert.InDelta(t, 0.5, tokenOverlap("gas station a", "gas station b"), 1e-9)
	assert.Equal(t, 0.0, tokenOverlap("alpha", "beta"))
}
